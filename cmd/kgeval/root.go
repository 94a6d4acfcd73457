package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cnclabs/kgeval/internal/config"
	"github.com/cnclabs/kgeval/internal/models"
	"github.com/cnclabs/kgeval/internal/models/kge"
	"github.com/cnclabs/kgeval/pkg/knowledge"
	"github.com/cnclabs/kgeval/pkg/selection"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool

	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "kgeval",
		Short: "Evaluate knowledge graph embedding models",
		Long: `kgeval trains knowledge graph embedding models and evaluates them with
the link prediction protocol: every test triple is ranked against its
subject and object corruptions, optionally filtering known triples.

Models: ` + fmt.Sprint(models.Names()),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.out = cmd.OutOrStdout()
			a.errOut = cmd.ErrOrStderr()
			a.logger = newLogger(a.verbose, a.errOut)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Run file (YAML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logs and progress bars")

	root.AddCommand(newSplitCmd(a), newEvaluateCmd(a), newSelectCmd(a))
	return root
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level))
}

// loadConfig reads the run file, or the defaults without one.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.Default(), nil
	}
	return config.Load(a.configPath)
}

// dataFlags override the data section of the run file.
type dataFlags struct {
	model, train, valid, test string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Embedding model, overrides the run file")
	cmd.Flags().StringVar(&f.train, "train", "", "Training triples")
	cmd.Flags().StringVar(&f.valid, "valid", "", "Validation triples")
	cmd.Flags().StringVar(&f.test, "test", "", "Test triples")
}

func (f *dataFlags) apply(cfg *config.Config) {
	if f.model != "" {
		cfg.Model = f.model
	}
	if f.train != "" {
		cfg.Data.Train = f.train
	}
	if f.valid != "" {
		cfg.Data.Valid = f.valid
	}
	if f.test != "" {
		cfg.Data.Test = f.test
	}
}

// loadData reads the configured splits. Train and test are required.
func (a *app) loadData(d config.Data) (selection.Dataset, error) {
	var data selection.Dataset
	if d.Train == "" || d.Test == "" {
		return data, fmt.Errorf("train and test triples are required: %w", knowledge.ErrInvalidArgument)
	}

	var err error
	if data.Train, err = knowledge.LoadTriples(d.Train, a.logger); err != nil {
		return data, err
	}
	if data.Test, err = knowledge.LoadTriples(d.Test, a.logger); err != nil {
		return data, err
	}
	if d.Valid != "" {
		if data.Valid, err = knowledge.LoadTriples(d.Valid, a.logger); err != nil {
			return data, err
		}
	}
	return data, nil
}

// saveEmbeddings writes the trained embeddings named in out.
func saveEmbeddings(m *kge.Model, out config.Output) error {
	for _, target := range []struct {
		path  string
		write func(io.Writer) error
	}{
		{out.Entities, m.WriteEmbeddings},
		{out.Relations, m.WriteRelationEmbeddings},
	} {
		if target.path == "" {
			continue
		}
		if err := writeFile(target.path, target.write); err != nil {
			return err
		}
	}
	return nil
}
