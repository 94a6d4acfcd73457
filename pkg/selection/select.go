package selection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// ErrNoModelSelected is returned when the grid produced no configuration.
var ErrNoModelSelected = errors.New("no model selected")

// Trainable is an evaluable model that can be fit on raw triples. Fit must
// discard any previous training state.
type Trainable interface {
	evaluation.Model
	Fit(ctx context.Context, train []knowledge.RawTriple, es *evaluation.EarlyStopping) error
}

// Factory builds fresh models for a configuration.
type Factory interface {
	ModelSpec
	New(h hyperparams.Hyperparams, logger *zap.Logger) (Trainable, error)
}

// Dataset holds the three splits used in model selection.
type Dataset struct {
	Train []knowledge.RawTriple
	Valid []knowledge.RawTriple
	Test  []knowledge.RawTriple
}

// Options configures SelectBestModelRanking.
type Options struct {
	// UseFilter ranks against train+valid+test as known triples.
	UseFilter bool

	// EarlyStopping enables early stopping with EarlyStoppingParams. An
	// empty validation set there defaults to Dataset.Valid.
	EarlyStopping       bool
	EarlyStoppingParams evaluation.EarlyStopping

	// UseTestForSelection ranks the test set during selection; otherwise
	// the validation set is used.
	UseTestForSelection bool

	RankAgainstEntities []string
	CorruptSide         corrupt.Side

	// UseDefaultProtocol ranks subject and object corruptions separately
	// and concatenates both rank lists, ignoring CorruptSide.
	UseDefaultProtocol bool

	Verbose  bool
	Progress io.Writer
	Logger   *zap.Logger
}

// Result is the outcome of model selection.
type Result struct {
	BestModel    Trainable
	BestParams   hyperparams.Hyperparams
	BestMRRTrain float64
	RanksTest    []int
	MRRTest      float64
}

// SelectBestModelRanking trains one model per grid configuration, keeps the
// one with the highest MRR (ties keep the earlier configuration), retrains
// it on train+valid and reports its ranks and MRR on the test set.
func SelectBestModelRanking(ctx context.Context, factory Factory, data Dataset, grid Grid, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	grid = grid.withEmptyParams()

	side := opts.CorruptSide
	if side == "" {
		side = corrupt.SubjectObject
	}
	if err := side.Validate(); err != nil {
		return nil, err
	}

	var es *evaluation.EarlyStopping
	if opts.EarlyStopping {
		params := opts.EarlyStoppingParams
		if params.Valid == nil {
			logger.Debug("early stopping enabled without validation triples, using the validation set")
			params.Valid = data.Valid
		}
		es = &params
	}

	var filter []knowledge.RawTriple
	if opts.UseFilter {
		filter = knowledge.Concat(data.Train, data.Valid, data.Test)
	}

	selectionSet := data.Valid
	if opts.UseTestForSelection {
		selectionSet = data.Test
	}

	eval := evaluator{
		filter:   filter,
		entities: opts.RankAgainstEntities,
		side:     side,
		dual:     opts.UseDefaultProtocol,
		verbose:  opts.Verbose,
		progress: opts.Progress,
		logger:   logger,
	}

	var bar *progressbar.ProgressBar
	if opts.Verbose {
		w := opts.Progress
		if w == nil {
			w = os.Stderr
		}
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("model selection"))
	}

	var (
		best         Trainable
		bestParams   hyperparams.Hyperparams
		bestMRRTrain float64
	)
	for params := range GridSearchNextHyperparam(logger, factory, grid) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		model, err := factory.New(params, logger)
		if err != nil {
			return nil, fmt.Errorf("building %s with %s: %w", factory.Name(), params, err)
		}
		if err := model.Fit(ctx, data.Train, es); err != nil {
			return nil, fmt.Errorf("fitting %s with %s: %w", factory.Name(), params, err)
		}

		ranks, err := eval.ranks(ctx, selectionSet, model)
		if err != nil {
			return nil, err
		}

		s := evaluation.Summarize(ranks)
		fields := []zap.Field{
			zap.Float64("mr", s.MR),
			zap.Float64("mrr", s.MRR),
			zap.Float64("hits1", s.Hits1),
			zap.Float64("hits3", s.Hits3),
			zap.Float64("hits10", s.Hits10),
			zap.String("model", factory.Name()),
			zap.Stringer("params", params),
		}
		if opts.Verbose {
			logger.Info("evaluated configuration", fields...)
		} else {
			logger.Debug("evaluated configuration", fields...)
		}

		if s.MRR > bestMRRTrain {
			bestMRRTrain = s.MRR
			best = model
			bestParams = params
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if best == nil {
		return nil, fmt.Errorf("grid for %s yielded no configuration with a positive MRR: %w", factory.Name(), ErrNoModelSelected)
	}

	logger.Info("retraining best model on train and validation sets", zap.Stringer("params", bestParams))
	if err := best.Fit(ctx, knowledge.Concat(data.Train, data.Valid), nil); err != nil {
		return nil, fmt.Errorf("retraining best model: %w", err)
	}

	ranksTest, err := eval.ranks(ctx, data.Test, best)
	if err != nil {
		return nil, err
	}

	return &Result{
		BestModel:    best,
		BestParams:   bestParams,
		BestMRRTrain: bestMRRTrain,
		RanksTest:    ranksTest,
		MRRTest:      evaluation.MRRScore(ranksTest),
	}, nil
}

// evaluator ranks a triple set under either a single corruption side or
// the subject-then-object protocol.
type evaluator struct {
	filter   []knowledge.RawTriple
	entities []string
	side     corrupt.Side
	dual     bool
	verbose  bool
	progress io.Writer
	logger   *zap.Logger
}

func (e evaluator) ranks(ctx context.Context, triples []knowledge.RawTriple, model evaluation.Model) ([]int, error) {
	opts := evaluation.Options{
		FilterTriples:       e.filter,
		Strict:              true,
		RankAgainstEntities: e.entities,
		CorruptSide:         e.side,
		Verbose:             e.verbose,
		Progress:            e.progress,
		Logger:              e.logger,
	}
	if !e.dual {
		return evaluation.EvaluatePerformance(ctx, triples, model, opts)
	}

	opts.CorruptSide = corrupt.Subject
	ranks, err := evaluation.EvaluatePerformance(ctx, triples, model, opts)
	if err != nil {
		return nil, err
	}
	opts.CorruptSide = corrupt.Object
	objRanks, err := evaluation.EvaluatePerformance(ctx, triples, model, opts)
	if err != nil {
		return nil, err
	}
	return append(ranks, objRanks...), nil
}
