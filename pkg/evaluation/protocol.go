// Package evaluation implements the link prediction evaluation protocol:
// no-unseen train/test splitting, ranking of test triples against their
// corruptions under the local closed world assumption, and rank metrics.
package evaluation

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Protocol configures how a single triple is ranked. It is passed with
// every prediction instead of being stored on the model.
type Protocol struct {
	// CorruptionEntities are the candidate entities used to build
	// corruptions. Nil means every entity of the model.
	CorruptionEntities []int64

	// CorruptSide selects the corrupted side(s).
	CorruptSide corrupt.Side

	// Filter removes known true triples from the corruptions. Nil gives
	// raw ranks.
	Filter corrupt.KnownTriples
}

// WithEntities returns a copy of p whose candidate pool defaults to all
// numEntities IDs when p has none.
func (p Protocol) WithEntities(numEntities int) Protocol {
	if p.CorruptionEntities != nil {
		return p
	}
	p.CorruptionEntities = make([]int64, numEntities)
	for i := range p.CorruptionEntities {
		p.CorruptionEntities[i] = int64(i)
	}
	return p
}

// Model is an embedding model that can be evaluated.
type Model interface {
	// Mappings returns the vocabularies the model was trained with.
	Mappings() knowledge.Mappings

	// Predict scores t and ranks it against its corruptions.
	Predict(ctx context.Context, t knowledge.Triple, p Protocol) (score float64, rank int, err error)
}

// ScoreFunc scores an ID-space triple. Higher scores are more plausible.
type ScoreFunc func(t knowledge.Triple) float64

// RankTriple scores t and returns its rank among the corruptions generated
// by p. The test triple itself and, when p.Filter is set, every known true
// corruption are left out; ties count against t. Filters that carry prime
// tables are queried by signature.
func RankTriple(score ScoreFunc, t knowledge.Triple, p Protocol) (float64, int, error) {
	var (
		tables    *corrupt.PrimeTables
		sigFilter corrupt.SignatureFilter
	)
	if f, ok := p.Filter.(corrupt.SignatureFilter); ok && coversAll(f.Tables(), t, p.CorruptionEntities) {
		sigFilter, tables = f, f.Tables()
	}

	corruptions, sigs, err := corrupt.ForEval([]knowledge.Triple{t}, p.CorruptionEntities, p.CorruptSide, tables)
	if err != nil {
		return 0, 0, err
	}

	positive := score(t)
	rank := 1
	for i, c := range corruptions {
		if c == t {
			continue
		}
		if sigFilter != nil {
			if sigFilter.ContainsSignature(sigs[i]) {
				continue
			}
		} else if p.Filter != nil && p.Filter.Contains(c) {
			continue
		}
		if score(c) >= positive {
			rank++
		}
	}
	return positive, rank, nil
}

func coversAll(tables *corrupt.PrimeTables, t knowledge.Triple, candidates []int64) bool {
	if !tables.Covers(t) {
		return false
	}
	for _, e := range candidates {
		if !tables.Covers(knowledge.Triple{Subject: e, Relation: t.Relation, Object: e}) {
			return false
		}
	}
	return true
}

// FilterUnseenEntities drops the triples whose subject or object is not in
// entities. With strict set, any such triple fails with ErrUnseenEntity
// instead. The number of removed triples is logged.
func FilterUnseenEntities(triples []knowledge.RawTriple, entities *knowledge.Vocabulary, strict bool, logger *zap.Logger) ([]knowledge.RawTriple, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	unseen := make(map[string]struct{})
	for _, t := range triples {
		for _, e := range []string{t.Subject, t.Object} {
			if !entities.Contains(e) {
				unseen[e] = struct{}{}
			}
		}
	}
	if len(unseen) == 0 {
		logger.Debug("no unseen entities found")
		return triples, nil
	}

	if strict {
		logger.Error("unseen entities found in test set", zap.Int("entities", len(unseen)))
		return nil, fmt.Errorf("%d entities absent from the model vocabulary, remove them or evaluate with strict disabled: %w",
			len(unseen), knowledge.ErrUnseenEntity)
	}

	kept := make([]knowledge.RawTriple, 0, len(triples))
	for _, t := range triples {
		_, s := unseen[t.Subject]
		_, o := unseen[t.Object]
		if !s && !o {
			kept = append(kept, t)
		}
	}
	logger.Warn("removing triples containing unseen entities",
		zap.Int("removed", len(triples)-len(kept)),
		zap.Int("unseen_entities", len(unseen)))
	return kept, nil
}

// Options configures EvaluatePerformance.
type Options struct {
	// FilterTriples are known true triples removed from the corruptions.
	// Nil gives raw ranks.
	FilterTriples []knowledge.RawTriple

	// PrimeFilter indexes FilterTriples by prime signature instead of a
	// hashed triple set.
	PrimeFilter bool

	// Strict fails on unseen entities instead of dropping their triples.
	Strict bool

	// RankAgainstEntities restricts the corruption candidates to these
	// entities. Nil means every entity known to the model.
	RankAgainstEntities []string

	// CorruptSide defaults to SubjectObject.
	CorruptSide corrupt.Side

	// Verbose renders a progress bar on Progress (stderr when nil).
	Verbose  bool
	Progress io.Writer

	Logger *zap.Logger
}

// EvaluatePerformance ranks every triple against its corruptions and
// returns the ranks in input order.
func EvaluatePerformance(ctx context.Context, triples []knowledge.RawTriple, model Model, opts Options) ([]int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	side := opts.CorruptSide
	if side == "" {
		side = corrupt.SubjectObject
	}
	if err := side.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("evaluating the performance of the embedding model", zap.Int("triples", len(triples)))
	m := model.Mappings()

	test, err := FilterUnseenEntities(triples, m.Entities, opts.Strict, logger)
	if err != nil {
		return nil, err
	}
	testIdx, err := knowledge.ToIdx(test, m.Entities, m.Relations)
	if err != nil {
		return nil, err
	}

	protocol := Protocol{CorruptSide: side}
	if opts.FilterTriples != nil {
		filterIdx := knownTriples(opts.FilterTriples, m)
		logger.Debug("getting filtered triples",
			zap.Int("filter", len(opts.FilterTriples)),
			zap.Int("in_vocabulary", len(filterIdx)))
		protocol.Filter, err = buildFilter(filterIdx, m, opts.PrimeFilter)
		if err != nil {
			return nil, err
		}
	}

	if opts.RankAgainstEntities != nil {
		protocol.CorruptionEntities = restrictEntities(m.Entities, opts.RankAgainstEntities)
	} else {
		protocol.CorruptionEntities = m.Entities.IDs()
	}

	var bar *progressbar.ProgressBar
	if opts.Verbose {
		w := opts.Progress
		if w == nil {
			w = os.Stderr
		}
		bar = progressbar.NewOptions(len(testIdx),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("ranking"),
			progressbar.OptionShowCount())
	}

	ranks := make([]int, 0, len(testIdx))
	for _, t := range testIdx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, rank, err := model.Predict(ctx, t, protocol)
		if err != nil {
			return nil, err
		}
		ranks = append(ranks, rank)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	logger.Debug("returning ranks of positive test triples", zap.Int("ranks", len(ranks)))
	return ranks, nil
}

// knownTriples maps the triples expressible in m. Any other triple can never
// equal a corruption, so it is skipped.
func knownTriples(triples []knowledge.RawTriple, m knowledge.Mappings) []knowledge.Triple {
	out := make([]knowledge.Triple, 0, len(triples))
	for _, t := range triples {
		idx, err := knowledge.TripleToIdx(t, m.Entities, m.Relations)
		if err != nil {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func buildFilter(triples []knowledge.Triple, m knowledge.Mappings, prime bool) (corrupt.KnownTriples, error) {
	if !prime {
		return corrupt.NewHashFilter(triples), nil
	}
	f, err := corrupt.NewPrimeFilter(triples, m.Entities.Len(), m.Relations.Len())
	if err != nil {
		return nil, fmt.Errorf("prime filter: %w", err)
	}
	return f, nil
}

// restrictEntities returns, in ID order, the IDs of the vocabulary entries
// listed in names. Names unknown to the vocabulary are ignored.
func restrictEntities(entities *knowledge.Vocabulary, names []string) []int64 {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	ids := make([]int64, 0, len(names))
	for i, k := range entities.Keys() {
		if _, ok := wanted[k]; ok {
			ids = append(ids, int64(i))
		}
	}
	return ids
}
