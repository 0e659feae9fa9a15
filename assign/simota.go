// Package assign - Dynamic top-k assigner with degraded-mode fallback.
package assign

import (
	"log"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-assign/boxes"
	"github.com/nvr-ai/go-assign/compute"
)

// SimOTA matches predictions to truths by dynamic top-k selection over a
// classification + localization cost surface. Construct once per device
// pair and reuse; Assign is safe for concurrent use across images as long
// as each call owns its inputs.
type SimOTA struct {
	cfg  Config
	link *compute.Link
}

// NewSimOTA creates the assigner.
//
// Arguments:
// - cfg: Assignment tunables; see DefaultConfig.
// - link: The primary/fallback device pair every attempt runs against.
//
// Returns:
// - *SimOTA: The assigner.
// - error: An error if the config is invalid or the link is nil.
func NewSimOTA(cfg Config, link *compute.Link) (*SimOTA, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid assigner config")
	}
	if link == nil {
		return nil, errors.New("compute link is required")
	}
	return &SimOTA{cfg: cfg, link: link}, nil
}

// Config returns the assigner's tunables.
func (a *SimOTA) Config() Config {
	return a.cfg
}

// Assign runs label assignment for one image.
//
// The pipeline is attempted on the primary device. If that device cannot
// grant the workspace the attempt needs, the primary's reservation cache
// is flushed, the inputs move to the fallback device, the pipeline runs
// exactly once more, and the result moves back. Shape mismatches and any
// failure of the fallback attempt itself propagate unmodified; there is no
// further tier.
func (a *SimOTA) Assign(in *Inputs) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid assignment inputs")
	}
	if len(in.Truths) == 0 {
		return emptyResult(len(in.Priors)), nil
	}

	res, err := a.assignOn(a.link.Primary(), in)
	if err == nil {
		return res, nil
	}
	if !compute.IsExhausted(err) {
		return nil, err
	}

	freed := a.link.Primary().Flush()
	log.Printf("assign: workspace exhausted on %s during label assignment, "+
		"retrying this image on %s (flushed %d cached bytes); reduce batch or "+
		"image size to avoid the slow path",
		a.link.Primary().Name(), a.link.Fallback().Name(), freed)
	a.link.RecordFallback()

	moved, movedBytes := in.clone()
	a.link.RecordTransfer(movedBytes)

	res, err = a.assignOn(a.link.Fallback(), moved)
	if err != nil {
		return nil, err
	}
	back, backBytes := res.clone()
	a.link.RecordTransfer(backBytes)
	return back, nil
}

// assignOn executes the full pipeline on one device.
func (a *SimOTA) assignOn(dev compute.Device, in *Inputs) (*Result, error) {
	validIdx, pairMask := filterCandidates(in.Priors, in.Truths, a.cfg.CenterRadius)
	if len(validIdx) == 0 {
		// No prior is spatially plausible for any truth; the whole image
		// is background.
		return emptyResult(len(in.Priors)), nil
	}
	nv := len(validIdx)
	m := len(in.Truths)

	ws, err := dev.Reserve(workspaceBytes(nv, m))
	if err != nil {
		return nil, errors.Wrapf(err, "%dx%d assignment workspace", nv, m)
	}
	defer ws.Release()

	validBoxes := make([]boxes.Box, nv)
	for vi, i := range validIdx {
		validBoxes[vi] = in.Boxes[i]
	}
	truthBoxes := make([]boxes.Box, m)
	for j := range in.Truths {
		truthBoxes[j] = in.Truths[j].Box
	}
	iou := boxes.PairwiseIoU(validBoxes, truthBoxes)

	cost := make([]float32, nv*m)
	buildCostMatrix(in, validIdx, iou, pairMask, a.cfg, cost)

	matching := make([]float32, nv*m)
	selectCandidates(cost, iou, nv, m, a.cfg.CandidateTopK, matching)
	resolveConflicts(matching, cost, nv, m)

	return assemble(matching, iou, in.Truths, validIdx, len(in.Priors)), nil
}

// workspaceBytes is the dense-intermediate footprint of one attempt: the
// IoU, cost, and matching matrices plus the per-column selection scratch.
func workspaceBytes(nv, m int) int64 {
	return int64(nv)*int64(m)*12 + int64(nv)*12 + int64(m)*8
}

// assemble scatters the resolved matching back into the original prior
// index space and collects the per-foreground arrays.
func assemble(matching, iou []float32, truths []GroundTruth, validIdx []int, n int) *Result {
	m := len(truths)
	res := &Result{ValidMask: make([]bool, n)}
	for vi, i := range validIdx {
		row := matching[vi*m : (vi+1)*m]
		matched := -1
		for j := range row {
			if row[j] != 0 {
				matched = j
				break
			}
		}
		if matched < 0 {
			continue
		}
		res.ValidMask[i] = true
		res.MatchedLabels = append(res.MatchedLabels, truths[matched].Label)
		res.MatchedTruth = append(res.MatchedTruth, matched)
		res.MatchedIoUs = append(res.MatchedIoUs, iou[vi*m+matched])
		res.NumForeground++
	}
	return res
}
