// Package assign - Training-time label assignment for object detection.
//
// An Assigner decides, for one image, which predicted candidates act as
// foreground for which ground-truth objects. The package provides the
// dynamic top-k assigner used by dense one-stage heads (SimOTA) and an
// exact one-to-one assigner for query-based heads (Hungarian).
package assign

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-assign/boxes"
)

// Prior is a prediction anchor location: a center point plus the cell size
// of the feature level it belongs to.
type Prior struct {
	// CenterX, CenterY locate the anchor center in image coordinates.
	CenterX, CenterY float32
	// StrideX, StrideY are the feature-level cell sizes at this anchor.
	StrideX, StrideY float32
}

// GroundTruth is one labeled object from the training annotations.
type GroundTruth struct {
	// Box is the annotated object box, in the same coordinate system as
	// the decoded predictions.
	Box boxes.Box
	// Label is the class index in [0, classes).
	Label int
}

// Inputs bundles one image's predictions and annotations for a single
// assignment call. Everything is consumed within the call; nothing is
// retained.
type Inputs struct {
	// Scores holds per-class confidences in [0, 1], row-major with one
	// row of Classes entries per prior.
	Scores []float32
	// Classes is the number of classes scored per prior.
	Classes int
	// Boxes are the decoded box predictions, one per prior.
	Boxes []boxes.Box
	// Priors are the anchor locations, parallel to Boxes.
	Priors []Prior
	// Truths are the image's ground-truth objects. May be empty.
	Truths []GroundTruth
}

// Validate checks the shape agreement of the bundle. A mismatch is fatal
// for the whole assignment call and is never retried.
func (in *Inputs) Validate() error {
	if in.Classes <= 0 {
		return errors.Errorf("classes must be positive, got %d", in.Classes)
	}
	n := len(in.Priors)
	if len(in.Boxes) != n {
		return errors.Errorf("%d decoded boxes for %d priors", len(in.Boxes), n)
	}
	if len(in.Scores) != n*in.Classes {
		return errors.Errorf("scores length %d, want %d (%d priors x %d classes)",
			len(in.Scores), n*in.Classes, n, in.Classes)
	}
	for j := range in.Truths {
		if l := in.Truths[j].Label; l < 0 || l >= in.Classes {
			return errors.Errorf("truth %d has label %d outside [0, %d)", j, l, in.Classes)
		}
	}
	return nil
}

// clone deep-copies the bundle and reports the bytes moved, so the
// fallback retry never aliases buffers tied to the primary device.
func (in *Inputs) clone() (*Inputs, int64) {
	out := &Inputs{
		Scores:  append([]float32(nil), in.Scores...),
		Classes: in.Classes,
		Boxes:   append([]boxes.Box(nil), in.Boxes...),
		Priors:  append([]Prior(nil), in.Priors...),
		Truths:  append([]GroundTruth(nil), in.Truths...),
	}
	moved := int64(len(in.Scores))*4 +
		int64(len(in.Boxes))*16 +
		int64(len(in.Priors))*16 +
		int64(len(in.Truths))*24
	return out, moved
}

// Result is the per-image assignment outcome.
//
// The matched arrays run over the foreground priors in ascending prior
// order; ValidMask marks those same priors within the original prior index
// space, so the two views stay in step for the caller.
type Result struct {
	// MatchedLabels holds the class label of the truth assigned to each
	// foreground prior.
	MatchedLabels []int
	// ValidMask has one entry per prior, true exactly for foreground.
	ValidMask []bool
	// MatchedIoUs holds the overlap between each foreground prior's
	// decoded box and its assigned truth, in [0, 1].
	MatchedIoUs []float32
	// MatchedTruth holds the index of the assigned truth per foreground
	// prior.
	MatchedTruth []int
	// NumForeground is the number of foreground priors.
	NumForeground int
}

// clone deep-copies the result and reports the bytes moved.
func (r *Result) clone() (*Result, int64) {
	out := &Result{
		MatchedLabels: append([]int(nil), r.MatchedLabels...),
		ValidMask:     append([]bool(nil), r.ValidMask...),
		MatchedIoUs:   append([]float32(nil), r.MatchedIoUs...),
		MatchedTruth:  append([]int(nil), r.MatchedTruth...),
		NumForeground: r.NumForeground,
	}
	moved := int64(len(r.MatchedLabels))*8 +
		int64(len(r.ValidMask)) +
		int64(len(r.MatchedIoUs))*4 +
		int64(len(r.MatchedTruth))*8
	return out, moved
}

// emptyResult is the all-background outcome for n priors.
func emptyResult(n int) *Result {
	return &Result{ValidMask: make([]bool, n)}
}

// Assigner matches one image's predictions against its ground truths.
type Assigner interface {
	Assign(in *Inputs) (*Result, error)
}

// Config holds the assignment tunables. Behavior is fixed for a given
// config so repeated calls on the same device reproduce bit-identical
// results.
type Config struct {
	// CenterRadius scales the stride-sized center region around each
	// truth centroid used by the spatial filter.
	CenterRadius float32 `json:"center_radius" yaml:"center_radius"`
	// CandidateTopK bounds how many top-IoU candidates per truth feed
	// the dynamic-k estimate.
	CandidateTopK int `json:"candidate_topk" yaml:"candidate_topk"`
	// Eps keeps the localization cost finite when an overlap is exactly
	// zero.
	Eps float32 `json:"eps" yaml:"eps"`
	// IoUWeight scales the localization term of the pair cost.
	IoUWeight float32 `json:"iou_weight" yaml:"iou_weight"`
	// ClsWeight scales the classification term of the pair cost.
	ClsWeight float32 `json:"cls_weight" yaml:"cls_weight"`
}

// DefaultConfig returns the stock assignment tunables.
func DefaultConfig() Config {
	return Config{
		CenterRadius:  2.5,
		CandidateTopK: 10,
		Eps:           1e-7,
		IoUWeight:     3.0,
		ClsWeight:     1.0,
	}
}

func (c Config) validate() error {
	if c.CenterRadius <= 0 {
		return errors.Errorf("center radius must be positive, got %f", c.CenterRadius)
	}
	if c.CandidateTopK < 1 {
		return errors.Errorf("candidate topk must be at least 1, got %d", c.CandidateTopK)
	}
	if c.Eps <= 0 {
		return errors.Errorf("eps must be positive, got %g", c.Eps)
	}
	if c.IoUWeight < 0 || c.ClsWeight < 0 {
		return errors.Errorf("cost weights must be non-negative, got iou=%f cls=%f",
			c.IoUWeight, c.ClsWeight)
	}
	return nil
}
