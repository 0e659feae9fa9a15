// Package assign - Exact one-to-one assignment for query-based heads.
package assign

import (
	hungarian "github.com/arthurkushman/go-hungarian"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-assign/boxes"
)

// Hungarian assigns each truth exactly one prior: the globally cheapest
// one-to-one matching under the same classification + localization cost
// surface SimOTA uses, minus the spatial plausibility mask, which has no
// meaning for query-based heads. Intended for small prior counts (query
// sets); the solver is cubic in the matrix size.
type Hungarian struct {
	cfg Config
}

// NewHungarian creates the assigner. CenterRadius and CandidateTopK are
// accepted for config symmetry but unused here.
func NewHungarian(cfg Config) (*Hungarian, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid assigner config")
	}
	return &Hungarian{cfg: cfg}, nil
}

// Config returns the assigner's tunables.
func (a *Hungarian) Config() Config {
	return a.cfg
}

// Assign runs exact one-to-one assignment for one image.
func (a *Hungarian) Assign(in *Inputs) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid assignment inputs")
	}
	n := len(in.Priors)
	m := len(in.Truths)
	if m == 0 {
		return emptyResult(n), nil
	}
	if m > n {
		return nil, errors.Errorf("%d truths exceed %d priors, one-to-one assignment impossible", m, n)
	}

	// Every prior participates: no spatial test, an all-true pair mask.
	validIdx := make([]int, n)
	for i := range validIdx {
		validIdx[i] = i
	}
	pairMask := make([]bool, n*m)
	for i := range pairMask {
		pairMask[i] = true
	}

	truthBoxes := make([]boxes.Box, m)
	for j := range in.Truths {
		truthBoxes[j] = in.Truths[j].Box
	}
	iou := boxes.PairwiseIoU(in.Boxes, truthBoxes)

	cost := make([]float32, n*m)
	buildCostMatrix(in, validIdx, iou, pairMask, a.cfg, cost)

	// Square-pad the matrix. Padding columns cost the same for every row,
	// so they absorb the leftover rows without biasing which rows win the
	// real columns.
	matrix := make([][]float64, n)
	for i := range matrix {
		row := make([]float64, n)
		for j := 0; j < m; j++ {
			row[j] = float64(cost[i*m+j])
		}
		matrix[i] = row
	}

	solved := hungarian.SolveMin(matrix)

	res := &Result{ValidMask: make([]bool, n)}
	for i := 0; i < n; i++ {
		cols := solved[i]
		if len(cols) == 0 {
			continue
		}
		matched := -1
		for j := range cols {
			matched = j
			break
		}
		if matched < 0 || matched >= m {
			// Assigned to a padding column: background.
			continue
		}
		res.ValidMask[i] = true
		res.MatchedLabels = append(res.MatchedLabels, in.Truths[matched].Label)
		res.MatchedTruth = append(res.MatchedTruth, matched)
		res.MatchedIoUs = append(res.MatchedIoUs, iou[i*m+matched])
		res.NumForeground++
	}
	return res, nil
}
