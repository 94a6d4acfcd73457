package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/cnclabs/kgeval/pkg/knowledge"
)

// ErrInfeasibleSplit is returned when no remaining triple can move to the
// test set without leaving one of its entities or its relation unseen.
var ErrInfeasibleSplit = errors.New("infeasible train/test split")

// TestSize is either an absolute number of test triples or a fraction of
// the dataset.
type TestSize struct {
	count    int
	fraction float64
	relative bool
}

// TestCount requests exactly n test triples.
func TestCount(n int) TestSize {
	return TestSize{count: n}
}

// TestFraction requests int(f * len(triples)) test triples.
func TestFraction(f float64) TestSize {
	return TestSize{fraction: f, relative: true}
}

func (s TestSize) resolve(total int) int {
	if s.relative {
		return int(float64(total) * s.fraction)
	}
	return s.count
}

// TrainTestSplitNoUnseen splits triples so that every entity and relation of
// the test set still occurs in the training set.
//
// Test triples are picked by rejection sampling with a generator seeded with
// seed: a uniformly drawn index is accepted if it was not picked before and
// its subject, relation and object each still have more than one occurrence
// in the training part of their column. Identical seeds give identical
// splits. The training set keeps the input order.
//
// The loop needs enough redundant triples for the requested size. When the
// sampler stalls it checks whether any triple can still be accepted and
// fails with ErrInfeasibleSplit if none can.
func TrainTestSplitNoUnseen(ctx context.Context, triples []knowledge.RawTriple, size TestSize, seed int64) (train, test []knowledge.RawTriple, err error) {
	n := len(triples)
	testSize := size.resolve(n)
	if testSize < 0 || testSize > n {
		return nil, nil, fmt.Errorf("test size %d for %d triples: %w", testSize, n, knowledge.ErrInvalidArgument)
	}

	subjects := make(map[string]int)
	relations := make(map[string]int)
	objects := make(map[string]int)
	for _, t := range triples {
		subjects[t.Subject]++
		relations[t.Relation]++
		objects[t.Object]++
	}

	selected := make([]bool, n)
	eligible := func(i int) bool {
		t := triples[i]
		return !selected[i] && subjects[t.Subject] > 1 && relations[t.Relation] > 1 && objects[t.Object] > 1
	}

	rng := rand.New(rand.NewSource(seed))
	stallLimit := 8*n + 64
	idxTest := make([]int, 0, testSize)
	misses := 0
	for draws := 0; len(idxTest) < testSize; draws++ {
		if draws%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}

		i := rng.Intn(n)
		if !eligible(i) {
			misses++
			if misses >= stallLimit {
				if !anyEligible(n, eligible) {
					return nil, nil, fmt.Errorf("%d of %d test triples selected: %w", len(idxTest), testSize, ErrInfeasibleSplit)
				}
				misses = 0
			}
			continue
		}

		t := triples[i]
		subjects[t.Subject]--
		relations[t.Relation]--
		objects[t.Object]--
		selected[i] = true
		idxTest = append(idxTest, i)
		misses = 0
	}

	train = make([]knowledge.RawTriple, 0, n-testSize)
	for i, t := range triples {
		if !selected[i] {
			train = append(train, t)
		}
	}
	test = make([]knowledge.RawTriple, len(idxTest))
	for k, i := range idxTest {
		test[k] = triples[i]
	}
	return train, test, nil
}

func anyEligible(n int, eligible func(int) bool) bool {
	for i := 0; i < n; i++ {
		if eligible(i) {
			return true
		}
	}
	return false
}
