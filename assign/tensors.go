// Package assign - Dense-tensor input boundary.
package assign

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-assign/boxes"
)

// FromDense builds an input bundle from the dense tensors a model head
// produces: per-class scores of shape (priors, classes) and decoded boxes
// of shape (priors, 4), both float32.
//
// The score backing is shared with the tensor rather than copied, so the
// tensors must own their backing (no views) and stay untouched for the
// duration of the assignment call. Box rows are converted into Box values.
//
// Arguments:
// - scores: Classification scores, shape (priors, classes).
// - decoded: Decoded box predictions, shape (priors, 4).
// - priors: Anchor locations, one per score row.
// - truths: Ground-truth objects; may be empty.
//
// Returns:
// - *Inputs: The bundle ready for an Assigner.
// - error: An error on dtype or shape disagreement.
func FromDense(scores, decoded *tensor.Dense, priors []Prior, truths []GroundTruth) (*Inputs, error) {
	sData, sShape, err := denseFloats(scores, "scores")
	if err != nil {
		return nil, err
	}
	dData, dShape, err := denseFloats(decoded, "decoded boxes")
	if err != nil {
		return nil, err
	}

	if len(sShape) != 2 {
		return nil, errors.Errorf("scores must be 2-D, got shape %v", sShape)
	}
	if len(dShape) != 2 || dShape[1] != 4 {
		return nil, errors.Errorf("decoded boxes must have shape (priors, 4), got %v", dShape)
	}
	if dShape[0] != sShape[0] {
		return nil, errors.Errorf("%d decoded boxes for %d score rows", dShape[0], sShape[0])
	}
	if sShape[0] != len(priors) {
		return nil, errors.Errorf("%d score rows for %d priors", sShape[0], len(priors))
	}

	bs := make([]boxes.Box, dShape[0])
	for i := range bs {
		row := dData[i*4 : i*4+4]
		bs[i] = boxes.Box{X1: row[0], Y1: row[1], X2: row[2], Y2: row[3]}
	}

	return &Inputs{
		Scores:  sData,
		Classes: sShape[1],
		Boxes:   bs,
		Priors:  priors,
		Truths:  truths,
	}, nil
}

// denseFloats extracts the float32 backing and shape of a dense tensor.
func denseFloats(t *tensor.Dense, what string) ([]float32, tensor.Shape, error) {
	if t == nil {
		return nil, nil, errors.Errorf("%s tensor is required", what)
	}
	if t.Dtype() != tensor.Float32 {
		return nil, nil, errors.Errorf("%s tensor must be float32, got %v", what, t.Dtype())
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, nil, errors.Errorf("%s tensor backing is %T, want []float32", what, t.Data())
	}
	return data, t.Shape(), nil
}
