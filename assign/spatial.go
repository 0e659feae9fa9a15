// Package assign - Spatial plausibility filtering.
package assign

// filterCandidates determines which priors are spatially plausible
// candidates for which truths.
//
// A prior is in-box for a truth when all four margins from its center to
// the box edges are strictly positive, and in-center when the same holds
// against the square region of CenterRadius x stride around the truth
// centroid. Priors passing either test for at least one truth are the
// valid candidates; everything downstream works on those rows only.
//
// Returns:
// - validIdx: original indices of the valid priors, ascending.
// - pairMask: row-major len(validIdx) x len(truths), true where the prior
//   passes BOTH tests for that truth.
func filterCandidates(priors []Prior, truths []GroundTruth, radius float32) ([]int, []bool) {
	if len(truths) == 0 {
		return nil, nil
	}

	var validIdx []int
	for i := range priors {
		p := &priors[i]
		for j := range truths {
			if inBox(p, &truths[j]) || inCenter(p, &truths[j], radius) {
				validIdx = append(validIdx, i)
				break
			}
		}
	}

	pairMask := make([]bool, len(validIdx)*len(truths))
	for vi, i := range validIdx {
		p := &priors[i]
		row := pairMask[vi*len(truths):]
		for j := range truths {
			row[j] = inBox(p, &truths[j]) && inCenter(p, &truths[j], radius)
		}
	}
	return validIdx, pairMask
}

// inBox reports whether the prior center lies strictly inside the truth
// box.
func inBox(p *Prior, t *GroundTruth) bool {
	left := p.CenterX - t.Box.X1
	top := p.CenterY - t.Box.Y1
	right := t.Box.X2 - p.CenterX
	bottom := t.Box.Y2 - p.CenterY
	return left > 0 && top > 0 && right > 0 && bottom > 0
}

// inCenter reports whether the prior center lies strictly inside the
// radius*stride region around the truth centroid. The region scales with
// the prior's own stride, so priors from coarser feature levels see a
// proportionally larger region.
func inCenter(p *Prior, t *GroundTruth, radius float32) bool {
	cx := t.Box.CenterX()
	cy := t.Box.CenterY()
	left := p.CenterX - (cx - radius*p.StrideX)
	top := p.CenterY - (cy - radius*p.StrideY)
	right := (cx + radius*p.StrideX) - p.CenterX
	bottom := (cy + radius*p.StrideY) - p.CenterY
	return left > 0 && top > 0 && right > 0 && bottom > 0
}
