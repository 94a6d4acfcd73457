package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

func newSplitCmd(a *app) *cobra.Command {
	var (
		input, trainOut, testOut, testSize string
		seed                               int64
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split triples into train and test sets without unseen entities",
		Long: `Split a triple file so that every entity and relation of the test set
also occurs in the training set.

--test-size is either a number of triples (100) or a fraction (0.1).`,
		Example: `  kgeval split --input kg.txt --test-size 0.1 --train-out train.txt --test-out test.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size, err := parseTestSize(testSize)
			if err != nil {
				return err
			}
			triples, err := knowledge.LoadTriples(input, a.logger)
			if err != nil {
				return err
			}

			train, test, err := evaluation.TrainTestSplitNoUnseen(cmd.Context(), triples, size, seed)
			if err != nil {
				return err
			}
			if err := knowledge.SaveTriples(trainOut, train); err != nil {
				return err
			}
			if err := knowledge.SaveTriples(testOut, test); err != nil {
				return err
			}

			a.logger.Info("split written",
				zap.String("train", trainOut),
				zap.Int("train_triples", len(train)),
				zap.String("test", testOut),
				zap.Int("test_triples", len(test)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Triples to split")
	cmd.Flags().StringVar(&testSize, "test-size", "0.1", "Test set size, a count or a fraction")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	cmd.Flags().StringVar(&trainOut, "train-out", "train.txt", "Output file for the training triples")
	cmd.Flags().StringVar(&testOut, "test-out", "test.txt", "Output file for the test triples")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// parseTestSize reads a positive count or a fraction in (0, 1).
func parseTestSize(s string) (evaluation.TestSize, error) {
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 || f >= 1 {
			return evaluation.TestSize{}, fmt.Errorf("test size fraction %q must be in (0, 1): %w", s, knowledge.ErrInvalidArgument)
		}
		return evaluation.TestFraction(f), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return evaluation.TestSize{}, fmt.Errorf("test size %q must be a positive count: %w", s, knowledge.ErrInvalidArgument)
	}
	return evaluation.TestCount(n), nil
}
