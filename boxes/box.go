// Package boxes - Axis-aligned box geometry shared by the assignment pipeline.
package boxes

import (
	"fmt"

	"github.com/chewxy/math32"
)

// unionEps guards the IoU denominator so fully degenerate boxes divide
// cleanly instead of producing NaN.
const unionEps = 1e-6

// Box is an axis-aligned box in (x1, y1, x2, y2) corner form, in the same
// coordinate system as the detector's decoded predictions.
type Box struct {
	X1, Y1, X2, Y2 float32
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float32 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box.
func (b Box) Height() float32 {
	return b.Y2 - b.Y1
}

// Area returns the raw area of the box. Boxes are expected in canonical
// corner order (X1 <= X2, Y1 <= Y2); no clamping is applied here.
func (b Box) Area() float32 {
	return b.Width() * b.Height()
}

// CenterX returns the x coordinate of the box centroid.
func (b Box) CenterX() float32 {
	return (b.X1 + b.X2) / 2
}

// CenterY returns the y coordinate of the box centroid.
func (b Box) CenterY() float32 {
	return (b.Y1 + b.Y2) / 2
}

func (b Box) String() string {
	return fmt.Sprintf("(%f, %f), (%f, %f)", b.X1, b.Y1, b.X2, b.Y2)
}

// Intersection calculates the overlap area between two boxes.
//
// Arguments:
// - other: The other box to intersect with.
//
// Returns:
// - The overlap area as float32, zero when the boxes are disjoint.
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 100, Y2: 100}
// b := Box{X1: 50, Y1: 50, X2: 150, Y2: 150}
// area := a.Intersection(b) // Returns 2500.0 (50x50 overlap)
func (b Box) Intersection(other Box) float32 {
	w := math32.Min(b.X2, other.X2) - math32.Max(b.X1, other.X1)
	h := math32.Min(b.Y2, other.Y2) - math32.Max(b.Y1, other.Y1)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IoU calculates the intersection over union between two boxes.
//
// The union is floored at a small epsilon so a pair of zero-area boxes
// yields 0 rather than NaN.
//
// Arguments:
// - other: The other box to compare against.
//
// Returns:
// - The IoU value in [0, 1].
//
// @example
// a := Box{X1: 0, Y1: 0, X2: 100, Y2: 100}
// b := Box{X1: 50, Y1: 50, X2: 150, Y2: 150}
// iou := a.IoU(b) // Returns ~0.143 (2500/17500)
func (b Box) IoU(other Box) float32 {
	inter := b.Intersection(other)
	union := b.Area() + other.Area() - inter
	return inter / math32.Max(union, unionEps)
}

// PairwiseIoU computes the dense IoU matrix between two box sets.
//
// Arguments:
// - preds: First box set, typically decoded predictions.
// - truths: Second box set, typically ground-truth boxes.
//
// Returns:
// - A row-major len(preds) x len(truths) matrix; entry [i*len(truths)+j]
//   is IoU(preds[i], truths[j]). Empty when either set is empty.
func PairwiseIoU(preds, truths []Box) []float32 {
	if len(preds) == 0 || len(truths) == 0 {
		return nil
	}
	out := make([]float32, len(preds)*len(truths))
	for i, p := range preds {
		row := out[i*len(truths):]
		for j, t := range truths {
			row[j] = p.IoU(t)
		}
	}
	return out
}
