// Package scoring implements the acceptance-score regressor: a small
// feed-forward network with one sigmoid hidden layer and a sigmoid output.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/okian/matchxai/internal/domain/types"
)

const outputSize = 1

// Network is a trained 4-H-1 regressor. It is immutable after training or
// decoding, so a single value may serve concurrent predictions.
type Network struct {
	hidden       int
	learningRate float64

	inputHidden  [][]float64 // [types.FeatureCount][hidden]
	hiddenOutput []float64   // [hidden]
	biasHidden   []float64   // [hidden]
	biasOutput   float64
}

// HiddenSize returns the number of hidden units.
func (n *Network) HiddenSize() int { return n.hidden }

// Predict returns the acceptance score of v in (0,1).
func (n *Network) Predict(v types.Vector) float64 {
	_, out := n.forward(v, nil)
	return out
}

// forward runs the network; if act is non-nil it receives the hidden activations.
func (n *Network) forward(v types.Vector, act []float64) ([]float64, float64) {
	if act == nil {
		act = make([]float64, n.hidden)
	}
	for h := 0; h < n.hidden; h++ {
		sum := n.biasHidden[h]
		for i := 0; i < types.FeatureCount; i++ {
			sum += v[i] * n.inputHidden[i][h]
		}
		act[h] = sigmoid(sum)
	}
	out := n.biasOutput
	for h := 0; h < n.hidden; h++ {
		out += act[h] * n.hiddenOutput[h]
	}
	return act, sigmoid(out)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// wire is the persisted layout.
type wire struct {
	Config struct {
		InputSize    int     `json:"inputSize"`
		HiddenSize   int     `json:"hiddenSize"`
		OutputSize   int     `json:"outputSize"`
		LearningRate float64 `json:"learningRate"`
	} `json:"config"`
	Weights struct {
		InputHidden  [][]float64 `json:"inputHidden"`
		HiddenOutput [][]float64 `json:"hiddenOutput"`
	} `json:"weights"`
	Biases struct {
		Hidden []float64 `json:"hidden"`
		Output []float64 `json:"output"`
	} `json:"biases"`
}

// MarshalJSON encodes the network's configuration, weights and biases.
func (n *Network) MarshalJSON() ([]byte, error) {
	var w wire
	w.Config.InputSize = types.FeatureCount
	w.Config.HiddenSize = n.hidden
	w.Config.OutputSize = outputSize
	w.Config.LearningRate = n.learningRate
	w.Weights.InputHidden = n.inputHidden
	w.Weights.HiddenOutput = make([][]float64, n.hidden)
	for h, x := range n.hiddenOutput {
		w.Weights.HiddenOutput[h] = []float64{x}
	}
	w.Biases.Hidden = n.biasHidden
	w.Biases.Output = []float64{n.biasOutput}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a network, rejecting blobs whose shape does not
// match a 4-H-1 layout or that hold non-finite parameters.
func (n *Network) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	if err := w.validate(); err != nil {
		return err
	}

	n.hidden = w.Config.HiddenSize
	n.learningRate = w.Config.LearningRate
	n.inputHidden = w.Weights.InputHidden
	n.hiddenOutput = make([]float64, n.hidden)
	for h, row := range w.Weights.HiddenOutput {
		n.hiddenOutput[h] = row[0]
	}
	n.biasHidden = w.Biases.Hidden
	n.biasOutput = w.Biases.Output[0]
	return nil
}

func (w *wire) validate() error {
	h := w.Config.HiddenSize
	switch {
	case w.Config.InputSize != types.FeatureCount:
		return fmt.Errorf("%w: input size %d", ErrCorruptModel, w.Config.InputSize)
	case w.Config.OutputSize != outputSize:
		return fmt.Errorf("%w: output size %d", ErrCorruptModel, w.Config.OutputSize)
	case h <= 0:
		return fmt.Errorf("%w: hidden size %d", ErrCorruptModel, h)
	case len(w.Weights.InputHidden) != types.FeatureCount:
		return fmt.Errorf("%w: input-hidden rows", ErrCorruptModel)
	case len(w.Weights.HiddenOutput) != h, len(w.Biases.Hidden) != h, len(w.Biases.Output) != outputSize:
		return fmt.Errorf("%w: layer sizes", ErrCorruptModel)
	}

	check := func(xs ...float64) error {
		for _, x := range xs {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: non-finite parameter", ErrCorruptModel)
			}
		}
		return nil
	}
	for _, row := range w.Weights.InputHidden {
		if len(row) != h {
			return fmt.Errorf("%w: input-hidden columns", ErrCorruptModel)
		}
		if err := check(row...); err != nil {
			return err
		}
	}
	for _, row := range w.Weights.HiddenOutput {
		if len(row) != outputSize {
			return fmt.Errorf("%w: hidden-output columns", ErrCorruptModel)
		}
		if err := check(row...); err != nil {
			return err
		}
	}
	if err := check(w.Biases.Hidden...); err != nil {
		return err
	}
	return check(w.Biases.Output...)
}

// Decode parses a persisted network. Every failure is an ErrCorruptModel.
func Decode(blob []byte) (*Network, error) {
	n := &Network{}
	if err := json.Unmarshal(blob, n); err != nil {
		if errors.Is(err, ErrCorruptModel) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	return n, nil
}

// Encode serializes n for persistence.
func Encode(n *Network) ([]byte, error) {
	return json.Marshal(n)
}
