package kge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/evaluation"
	"github.com/cnclabs/kgeval/pkg/hyperparams"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// ErrNotFitted is returned when a model is used before Fit succeeded.
var ErrNotFitted = errors.New("model has not been fitted")

// Model trains an Embedder and exposes it to the evaluation protocol.
type Model struct {
	name     string
	emb      Embedder
	params   hyperparams.Hyperparams
	logger   *zap.Logger
	progress io.Writer

	mappings knowledge.Mappings
	fitted   bool
}

// New wraps emb with the training configuration h.
func New(name string, emb Embedder, h hyperparams.Hyperparams, logger *zap.Logger) (*Model, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{
		name:     name,
		emb:      emb,
		params:   h,
		logger:   logger.With(zap.String("model", name)),
		progress: os.Stderr,
	}, nil
}

// SetProgress redirects the verbose training progress bar.
func (m *Model) SetProgress(w io.Writer) {
	m.progress = w
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Hyperparams() hyperparams.Hyperparams {
	return m.params
}

func (m *Model) Mappings() knowledge.Mappings {
	return m.mappings
}

// Fit trains fresh embeddings on train. Each epoch shuffles the triples
// into batches, draws eta corruptions per positive and updates with the
// configured loss, regularizer and optimizer. With es set, the validation
// criteria is checked every CheckInterval epochs after BurnIn and training
// stops after StopInterval checks without improvement.
func (m *Model) Fit(ctx context.Context, train []knowledge.RawTriple, es *evaluation.EarlyStopping) (err error) {
	if len(train) == 0 {
		return fmt.Errorf("fit needs training triples: %w", knowledge.ErrInvalidArgument)
	}
	var stopper *earlyStopper
	if es != nil {
		cfg := es.WithDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		stopper = &earlyStopper{cfg: cfg}
	}

	h := m.params
	lossFn, err := newLoss(h)
	if err != nil {
		return err
	}
	reg, err := newRegularizer(h)
	if err != nil {
		return err
	}

	m.fitted = false
	m.mappings = knowledge.CreateMappings(train)
	triples, err := knowledge.ToIdx(train, m.mappings.Entities, m.mappings.Relations)
	if err != nil {
		return err
	}
	numEntities, numRelations := m.mappings.Entities.Len(), m.mappings.Relations.Len()

	opt, err := newOptimizer(h, numEntities, numRelations)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if h.Seed != nil {
		seed = *h.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	if err := m.emb.Init(numEntities, numRelations, h.K, h.EmbeddingModelParams, rng); err != nil {
		return err
	}

	// early stopping ranks with the model while it trains
	m.fitted = true
	defer func() {
		if err != nil {
			m.fitted = false
		}
	}()

	n := len(triples)
	batchSize := (n + h.BatchesCount - 1) / h.BatchesCount
	numBatches := (n + batchSize - 1) / batchSize
	totalBatches := h.Epochs * numBatches
	entities := m.mappings.Entities.IDs()

	m.logger.Info("training embedding model",
		zap.Int("triples", n),
		zap.Int("entities", numEntities),
		zap.Int("relations", numRelations),
		zap.Int("batch_size", batchSize),
		zap.Stringer("hyperparams", h))

	var bar *progressbar.ProgressBar
	if h.Verbose {
		bar = progressbar.NewOptions(h.Epochs,
			progressbar.OptionSetWriter(m.progress),
			progressbar.OptionSetDescription(m.name),
			progressbar.OptionShowCount())
	}

	batch := make([]knowledge.Triple, 0, batchSize)
	negs := make([]knowledge.Triple, h.Eta)
	batchCount := 0

	for epoch := 1; epoch <= h.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		order := rng.Perm(n)
		epochLoss := 0.0
		for start := 0; start < n; start += batchSize {
			end := min(start+batchSize, n)
			batch = batch[:0]
			for _, i := range order[start:end] {
				batch = append(batch, triples[i])
			}

			corruptions, err := corrupt.ForFit(batch, entities, h.Eta, corrupt.SubjectObject, rng)
			if err != nil {
				return err
			}
			for i, pos := range batch {
				for j := range negs {
					negs[j] = corruptions[i+j*len(batch)]
				}
				epochLoss += lossFn.update(m.emb, opt, pos, negs)
				reg.apply(m.emb, pos)
			}

			batchCount++
			opt.advance(float64(batchCount) / float64(totalBatches))
		}
		m.emb.Normalize()

		m.logger.Debug("epoch done", zap.Int("epoch", epoch), zap.Float64("loss", epochLoss/float64(n)))
		if bar != nil {
			_ = bar.Add(1)
		}

		if stopper != nil {
			stop, err := stopper.check(ctx, m, epoch)
			if err != nil {
				return err
			}
			if stop {
				m.logger.Info("early stopping",
					zap.Int("epoch", epoch),
					zap.String("criteria", stopper.cfg.Criteria),
					zap.Float64("best", stopper.best))
				break
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

// Predict scores t and ranks it against the corruptions described by p.
// An empty candidate pool ranks against every entity.
func (m *Model) Predict(_ context.Context, t knowledge.Triple, p evaluation.Protocol) (float64, int, error) {
	if !m.fitted {
		return 0, 0, ErrNotFitted
	}
	return evaluation.RankTriple(m.emb.Score, t, p.WithEntities(m.mappings.Entities.Len()))
}

// Score returns the plausibility of raw triples.
func (m *Model) Score(triples []knowledge.RawTriple) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	idx, err := knowledge.ToIdx(triples, m.mappings.Entities, m.mappings.Relations)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(idx))
	for i, t := range idx {
		out[i] = m.emb.Score(t)
	}
	return out, nil
}

// WriteEmbeddings writes the entity embeddings as a header line with the
// count and dimension followed by one "name v1 v2 ..." line per entity.
func (m *Model) WriteEmbeddings(w io.Writer) error {
	if !m.fitted {
		return ErrNotFitted
	}
	return writeVectors(w, m.mappings.Entities, m.emb.Dim(), m.emb.Entity)
}

// WriteRelationEmbeddings writes the relation embeddings in the format of
// WriteEmbeddings.
func (m *Model) WriteRelationEmbeddings(w io.Writer) error {
	if !m.fitted {
		return ErrNotFitted
	}
	return writeVectors(w, m.mappings.Relations, m.emb.Dim(), m.emb.Relation)
}

func writeVectors(w io.Writer, vocab *knowledge.Vocabulary, dim int, vector func(int64) []float64) error {
	if _, err := fmt.Fprintf(w, "%d %d\n", vocab.Len(), dim); err != nil {
		return err
	}
	for i, name := range vocab.Keys() {
		if _, err := fmt.Fprint(w, name); err != nil {
			return err
		}
		for _, v := range vector(int64(i)) {
			if _, err := fmt.Fprintf(w, " %.6f", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

type earlyStopper struct {
	cfg   evaluation.EarlyStopping
	best  float64
	seen  bool
	stale int
}

// check evaluates the validation criteria when epoch is a check epoch and
// reports whether training should stop.
func (s *earlyStopper) check(ctx context.Context, m *Model, epoch int) (bool, error) {
	if epoch < s.cfg.BurnIn || (epoch-s.cfg.BurnIn)%s.cfg.CheckInterval != 0 {
		return false, nil
	}
	ranks, err := evaluation.EvaluatePerformance(ctx, s.cfg.Valid, m, evaluation.Options{
		FilterTriples:       s.cfg.Filter,
		RankAgainstEntities: s.cfg.CorruptionEntities,
		CorruptSide:         s.cfg.CorruptSide,
		Logger:              m.logger,
	})
	if err != nil {
		return false, fmt.Errorf("early stopping at epoch %d: %w", epoch, err)
	}
	current, err := s.cfg.Measure(ranks)
	if err != nil {
		return false, err
	}
	m.logger.Debug("early stopping check",
		zap.Int("epoch", epoch),
		zap.String("criteria", s.cfg.Criteria),
		zap.Float64("value", current))

	if !s.seen || current > s.best {
		s.best, s.seen, s.stale = current, true, 0
		return false, nil
	}
	s.stale++
	return s.stale >= s.cfg.StopInterval, nil
}
