package evaluation

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RankScore returns the rank of the first positive label among yPred sorted
// by decreasing score. It returns 0 when yTrue holds no positive.
func RankScore(yTrue []bool, yPred []float64) int {
	idx := make([]int, len(yPred))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return yPred[idx[a]] > yPred[idx[b]]
	})
	for pos, i := range idx {
		if i < len(yTrue) && yTrue[i] {
			return pos + 1
		}
	}
	return 0
}

// MRRScore is the mean reciprocal rank.
func MRRScore(ranks []int) float64 {
	if len(ranks) == 0 {
		return 0
	}
	rr := make([]float64, len(ranks))
	for i, r := range ranks {
		rr[i] = 1 / float64(r)
	}
	return stat.Mean(rr, nil)
}

// HitsAtNScore is the fraction of ranks no greater than n.
func HitsAtNScore(ranks []int, n int) float64 {
	if len(ranks) == 0 {
		return 0
	}
	hits := 0
	for _, r := range ranks {
		if r <= n {
			hits++
		}
	}
	return float64(hits) / float64(len(ranks))
}

// MARScore is the mean rank.
func MARScore(ranks []int) float64 {
	if len(ranks) == 0 {
		return 0
	}
	rf := make([]float64, len(ranks))
	for i, r := range ranks {
		rf[i] = float64(r)
	}
	return stat.Mean(rf, nil)
}

// Summary bundles the usual link prediction metrics of a rank list.
type Summary struct {
	MR     float64
	MRR    float64
	Hits1  float64
	Hits3  float64
	Hits10 float64
}

// Summarize computes MR, MRR and Hits@{1,3,10}.
func Summarize(ranks []int) Summary {
	return Summary{
		MR:     MARScore(ranks),
		MRR:    MRRScore(ranks),
		Hits1:  HitsAtNScore(ranks, 1),
		Hits3:  HitsAtNScore(ranks, 3),
		Hits10: HitsAtNScore(ranks, 10),
	}
}
