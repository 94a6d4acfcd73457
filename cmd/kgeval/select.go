package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cnclabs/kgeval/internal/config"
	"github.com/cnclabs/kgeval/internal/models"
	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/selection"
)

func newSelectCmd(a *app) *cobra.Command {
	var flags dataFlags
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Grid search the hyperparameters of a model by MRR",
		Long: `Train one model per configuration of the grid section of the run file,
keep the one with the highest MRR on the validation set (or the test set
with evaluation.use_test_for_selection), retrain it on train+valid and
report its test metrics.`,
		Example: `  kgeval select -c grid.yaml -v`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cfg)
			return a.selectModel(cmd, cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) selectModel(cmd *cobra.Command, cfg *config.Config) error {
	data, err := a.loadData(cfg.Data)
	if err != nil {
		return err
	}
	factory, err := models.Lookup(cfg.Model)
	if err != nil {
		return err
	}

	ev := cfg.Evaluation
	opts := selection.Options{
		UseFilter:           ev.Filter,
		UseTestForSelection: ev.UseTestForSelection,
		RankAgainstEntities: ev.RankAgainstEntities,
		CorruptSide:         ev.CorruptSide,
		UseDefaultProtocol:  ev.UseDefaultProtocol,
		Verbose:             a.verbose,
		Progress:            a.errOut,
		Logger:              a.logger,
	}
	if ev.EarlyStopping != nil {
		opts.EarlyStopping = true
		opts.EarlyStoppingParams = *ev.EarlyStopping
	}

	res, err := selection.SelectBestModelRanking(cmd.Context(), factory, data, cfg.Grid, opts)
	if err != nil {
		return err
	}

	if m, ok := res.BestModel.(*kge.Model); ok {
		if err := saveEmbeddings(m, cfg.Output); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(a.out, "best hyperparameters: %s\nselection MRR: %.4f\n", res.BestParams, res.BestMRRTrain); err != nil {
		return err
	}
	return renderReport(a.out, []reportRow{{
		label:   factory.Name(),
		triples: len(res.RanksTest),
		summary: evaluation.Summarize(res.RanksTest),
	}})
}
