package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/internal/config"
	"github.com/cnclabs/kgeval/internal/models"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var flags dataFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Train one configuration and report its test ranking metrics",
		Long: `Train the model of the run file with its params section on the training
triples, then rank every test triple against its corruptions and report
MR, MRR and Hits@{1,3,10}.

With evaluation.filter set, train, validation and test triples are
removed from the corruptions.`,
		Example: `  kgeval evaluate -c run.yaml
  kgeval evaluate -m DistMult --train train.txt --test test.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cfg)
			return a.evaluate(cmd, cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) evaluate(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	data, err := a.loadData(cfg.Data)
	if err != nil {
		return err
	}
	factory, err := models.Lookup(cfg.Model)
	if err != nil {
		return err
	}

	params := cfg.Params
	params.Verbose = params.Verbose || a.verbose
	model, err := factory.Model(params, a.logger)
	if err != nil {
		return err
	}
	model.SetProgress(a.errOut)

	var es *evaluation.EarlyStopping
	if cfg.Evaluation.EarlyStopping != nil {
		stopping := *cfg.Evaluation.EarlyStopping
		stopping.Valid = data.Valid
		if cfg.Evaluation.Filter {
			stopping.Filter = knowledge.Concat(data.Train, data.Valid)
		}
		es = &stopping
	}
	if err := model.Fit(ctx, data.Train, es); err != nil {
		return err
	}

	opts := evaluation.Options{
		PrimeFilter:         cfg.Evaluation.PrimeFilter,
		Strict:              cfg.Evaluation.Strict,
		RankAgainstEntities: cfg.Evaluation.RankAgainstEntities,
		CorruptSide:         cfg.Evaluation.CorruptSide,
		Verbose:             a.verbose,
		Progress:            a.errOut,
		Logger:              a.logger,
	}
	if cfg.Evaluation.Filter {
		opts.FilterTriples = knowledge.Concat(data.Train, data.Valid, data.Test)
	}
	ranks, err := evaluation.EvaluatePerformance(ctx, data.Test, model, opts)
	if err != nil {
		return err
	}
	a.logger.Debug("test set ranked", zap.Int("ranks", len(ranks)))

	if err := saveEmbeddings(model, cfg.Output); err != nil {
		return err
	}
	return renderReport(a.out, []reportRow{{
		label:   factory.Name(),
		triples: len(ranks),
		summary: evaluation.Summarize(ranks),
	}})
}
