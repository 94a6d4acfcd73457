package evaluation

import (
	"fmt"

	"github.com/cnclabs/kgeval/pkg/corrupt"
	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// Early stopping criteria.
const (
	CriteriaMRR    = "mrr"
	CriteriaHits1  = "hits1"
	CriteriaHits3  = "hits3"
	CriteriaHits10 = "hits10"
)

// EarlyStopping configures validation-based early stopping during fit.
type EarlyStopping struct {
	// Valid is the validation set ranked at every check.
	Valid []knowledge.RawTriple `yaml:"-"`

	// Criteria is one of mrr, hits1, hits3, hits10. Defaults to mrr.
	Criteria string `yaml:"criteria"`

	// Filter triples for filtered validation ranks. Nil gives raw ranks.
	Filter []knowledge.RawTriple `yaml:"-"`

	// BurnIn is the number of epochs before the first check (default 100).
	BurnIn int `yaml:"burn_in"`

	// CheckInterval is the number of epochs between checks (default 10).
	CheckInterval int `yaml:"check_interval"`

	// StopInterval stops training after this many consecutive checks
	// without improvement (default 3).
	StopInterval int `yaml:"stop_interval"`

	CorruptionEntities []string     `yaml:"corruption_entities"`
	CorruptSide        corrupt.Side `yaml:"corrupt_side"`
}

// WithDefaults fills unset fields.
func (es EarlyStopping) WithDefaults() EarlyStopping {
	if es.Criteria == "" {
		es.Criteria = CriteriaMRR
	}
	if es.BurnIn == 0 {
		es.BurnIn = 100
	}
	if es.CheckInterval <= 0 {
		es.CheckInterval = 10
	}
	if es.StopInterval <= 0 {
		es.StopInterval = 3
	}
	if es.CorruptSide == "" {
		es.CorruptSide = corrupt.SubjectObject
	}
	return es
}

// Validate checks the criteria and corruption side.
func (es EarlyStopping) Validate() error {
	if _, err := es.Measure(nil); err != nil {
		return err
	}
	if len(es.Valid) == 0 {
		return fmt.Errorf("early stopping needs validation triples: %w", knowledge.ErrInvalidArgument)
	}
	return es.CorruptSide.Validate()
}

// Measure returns the criteria value of ranks. Higher is better.
func (es EarlyStopping) Measure(ranks []int) (float64, error) {
	switch es.Criteria {
	case CriteriaMRR:
		return MRRScore(ranks), nil
	case CriteriaHits1:
		return HitsAtNScore(ranks, 1), nil
	case CriteriaHits3:
		return HitsAtNScore(ranks, 3), nil
	case CriteriaHits10:
		return HitsAtNScore(ranks, 10), nil
	}
	return 0, fmt.Errorf("early stopping criteria %q: %w", es.Criteria, knowledge.ErrInvalidArgument)
}
