// Package assign - Dynamic top-k selection and conflict resolution.
package assign

import (
	"sort"

	"github.com/chewxy/math32"
)

// selectCandidates fills the 0/1 matching matrix. For each truth column,
// the dynamic k is the floored sum of the column's min(candidateTopK, nv)
// largest IoUs, at least 1: truths localized well by many candidates
// receive more matches, poorly localized ones exactly one. The k
// smallest-cost rows of the column are then selected.
//
// Cost ties break toward the lower prior index, so repeat calls are
// deterministic. Returns the per-column k values.
func selectCandidates(cost, iou []float32, nv, m, candidateTopK int, matching []float32) []int {
	colIoUs := make([]float32, nv)
	order := make([]int, nv)
	ks := make([]int, m)

	limit := candidateTopK
	if nv < limit {
		limit = nv
	}

	for j := 0; j < m; j++ {
		for i := 0; i < nv; i++ {
			colIoUs[i] = iou[i*m+j]
		}
		sort.Slice(colIoUs, func(a, b int) bool { return colIoUs[a] > colIoUs[b] })

		var sum float32
		for i := 0; i < limit; i++ {
			sum += colIoUs[i]
		}
		k := int(math32.Floor(sum))
		if k < 1 {
			k = 1
		}
		if k > nv {
			k = nv
		}
		ks[j] = k

		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			ra, rb := order[a], order[b]
			ca, cb := cost[ra*m+j], cost[rb*m+j]
			if ca != cb {
				return ca < cb
			}
			return ra < rb
		})
		for i := 0; i < k; i++ {
			matching[order[i]*m+j] = 1
		}
	}
	return ks
}

// resolveConflicts enforces at most one truth per prior. A row selected by
// multiple columns is zeroed and reassigned to the single minimum-cost
// column of that row; equal minima resolve to the first such column.
func resolveConflicts(matching, cost []float32, nv, m int) {
	for i := 0; i < nv; i++ {
		row := matching[i*m : (i+1)*m]
		selected := 0
		for j := range row {
			if row[j] != 0 {
				selected++
			}
		}
		if selected <= 1 {
			continue
		}

		costRow := cost[i*m : (i+1)*m]
		best := 0
		for j := 1; j < m; j++ {
			if costRow[j] < costRow[best] {
				best = j
			}
		}
		for j := range row {
			row[j] = 0
		}
		row[best] = 1
	}
}
