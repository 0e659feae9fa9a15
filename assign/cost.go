// Package assign - Pair cost computation.
package assign

import "github.com/chewxy/math32"

const (
	// costInfinity is added to spatially implausible pairs. It dominates
	// any realizable classification plus localization sum so those pairs
	// are never selected, while staying finite so downstream comparisons
	// remain well-defined.
	costInfinity float32 = 1e8

	// bceLogFloor bounds the log terms of the binary cross-entropy so a
	// probability of exactly zero or one contributes a large finite
	// penalty instead of an infinity.
	bceLogFloor float32 = -100
)

// buildCostMatrix fills the row-major cost matrix over (valid prior,
// truth) pairs:
//
//	cost = clsWeight*bce(sqrt(scores), onehot) + iouWeight*(-log(iou+eps))
//
// plus costInfinity wherever the pair fails the combined spatial test.
// Lower is better.
func buildCostMatrix(in *Inputs, validIdx []int, iou []float32, pairMask []bool, cfg Config, cost []float32) {
	m := len(in.Truths)
	for vi, i := range validIdx {
		scores := in.Scores[i*in.Classes : (i+1)*in.Classes]
		iouRow := iou[vi*m : (vi+1)*m]
		maskRow := pairMask[vi*m : (vi+1)*m]
		costRow := cost[vi*m : (vi+1)*m]
		for j := range in.Truths {
			iouCost := -math32.Log(iouRow[j] + cfg.Eps)
			clsCost := bceOneHot(scores, in.Truths[j].Label)
			c := cfg.ClsWeight*clsCost + cfg.IoUWeight*iouCost
			if !maskRow[j] {
				c += costInfinity
			}
			costRow[j] = c
		}
	}
}

// bceOneHot is the classification cost of one (prior, truth) pair: binary
// cross-entropy between the square roots of the per-class scores and the
// one-hot truth label, summed over classes. Scores are clamped to
// non-negative before the root so floating-point noise below zero cannot
// produce NaN.
func bceOneHot(scores []float32, label int) float32 {
	var sum float32
	for c, s := range scores {
		if s < 0 {
			s = 0
		}
		p := math32.Sqrt(s)
		if c == label {
			sum -= clampedLog(p)
		} else {
			sum -= clampedLog(1 - p)
		}
	}
	return sum
}

// clampedLog returns log(x) floored at bceLogFloor, with non-positive x
// mapped straight to the floor.
func clampedLog(x float32) float32 {
	if x <= 0 {
		return bceLogFloor
	}
	if l := math32.Log(x); l > bceLogFloor {
		return l
	}
	return bceLogFloor
}
