package benchmark

import (
	"fmt"
	"math/rand"

	"github.com/nvr-ai/go-assign/assign"
	"github.com/nvr-ai/go-assign/boxes"
)

// GenerateCorpus builds deterministic synthetic images for a scenario:
// priors on the scenario's feature grids, decoded boxes jittered around
// each prior, random scores, and random ground-truth boxes. The same
// scenario seed always yields the same corpus.
//
// Arguments:
//   - scenario: The scenario whose grids and counts shape the inputs.
//   - size: The number of distinct images to generate.
//
// Returns:
//   - []*assign.Inputs: One input set per image.
//   - error: Non-nil when the scenario cannot produce valid inputs.
func GenerateCorpus(scenario Scenario, size int) ([]*assign.Inputs, error) {
	if size <= 0 {
		return nil, fmt.Errorf("corpus size must be positive, got %d", size)
	}
	if scenario.Classes <= 0 {
		return nil, fmt.Errorf("scenario %s needs a positive class count, got %d", scenario.Name, scenario.Classes)
	}
	if scenario.Truths < 0 {
		return nil, fmt.Errorf("scenario %s has a negative truth count %d", scenario.Name, scenario.Truths)
	}
	if scenario.Resolution.Width <= 0 || scenario.Resolution.Height <= 0 {
		return nil, fmt.Errorf("scenario %s has an empty resolution %dx%d",
			scenario.Name, scenario.Resolution.Width, scenario.Resolution.Height)
	}

	priors := gridPriors(scenario)
	if len(priors) == 0 {
		return nil, fmt.Errorf("scenario %s produces no priors from strides %v", scenario.Name, scenario.Strides)
	}

	corpus := make([]*assign.Inputs, size)
	for img := 0; img < size; img++ {
		corpus[img] = synthesizeImage(scenario, priors, scenario.Seed+int64(img))
	}
	return corpus, nil
}

// gridPriors lays out one prior per feature cell, centered in the cell,
// for every stride level.
func gridPriors(scenario Scenario) []assign.Prior {
	var priors []assign.Prior
	for _, stride := range scenario.Strides {
		if stride <= 0 {
			continue
		}
		nx := scenario.Resolution.Width / stride
		ny := scenario.Resolution.Height / stride
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				priors = append(priors, assign.Prior{
					CenterX: (float32(x) + 0.5) * float32(stride),
					CenterY: (float32(y) + 0.5) * float32(stride),
					StrideX: float32(stride),
					StrideY: float32(stride),
				})
			}
		}
	}
	return priors
}

func synthesizeImage(scenario Scenario, priors []assign.Prior, seed int64) *assign.Inputs {
	rng := rand.New(rand.NewSource(seed))
	width := float32(scenario.Resolution.Width)
	height := float32(scenario.Resolution.Height)

	truths := make([]assign.GroundTruth, scenario.Truths)
	for j := range truths {
		w := (0.05 + 0.25*rng.Float32()) * width
		h := (0.05 + 0.25*rng.Float32()) * height
		cx := w/2 + rng.Float32()*(width-w)
		cy := h/2 + rng.Float32()*(height-h)
		truths[j] = assign.GroundTruth{
			Box: boxes.Box{
				X1: cx - w/2, Y1: cy - h/2,
				X2: cx + w/2, Y2: cy + h/2,
			},
			Label: rng.Intn(scenario.Classes),
		}
	}

	in := &assign.Inputs{
		Classes: scenario.Classes,
		Priors:  priors,
		Truths:  truths,
		Boxes:   make([]boxes.Box, len(priors)),
		Scores:  make([]float32, len(priors)*scenario.Classes),
	}
	for i, p := range priors {
		// Decoded boxes wander up to a stride off their prior and span
		// one to four strides, roughly what a mid-training head emits.
		cx := p.CenterX + (rng.Float32()*2-1)*p.StrideX
		cy := p.CenterY + (rng.Float32()*2-1)*p.StrideY
		w := (1 + 3*rng.Float32()) * p.StrideX
		h := (1 + 3*rng.Float32()) * p.StrideY
		in.Boxes[i] = boxes.Box{
			X1: cx - w/2, Y1: cy - h/2,
			X2: cx + w/2, Y2: cy + h/2,
		}
		for c := 0; c < scenario.Classes; c++ {
			in.Scores[i*scenario.Classes+c] = rng.Float32()
		}
	}
	return in
}
