package nn

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	training bool
	lastMask []bool
}

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{training: true}
}

// Forward zeroes negative elements.
func (r *ReLU) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	output := input.Clone()
	mask := make([]bool, len(output.Data))
	for i, v := range output.Data {
		if v > 0 {
			mask[i] = true
		} else {
			output.Data[i] = 0
		}
	}
	if r.training {
		r.lastMask = mask
	}
	return output, nil
}

// Backward passes gradients through where the input was positive.
func (r *ReLU) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if r.lastMask == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}
	if len(gradOut.Data) != len(r.lastMask) {
		return nil, fmt.Errorf("gradient size %d does not match activation %d", len(gradOut.Data), len(r.lastMask))
	}

	gradIn := gradOut.Clone()
	for i, pass := range r.lastMask {
		if !pass {
			gradIn.Data[i] = 0
		}
	}
	return gradIn, nil
}

// Parameters returns nil; activations have no trainable state.
func (r *ReLU) Parameters() []*Parameter { return nil }

func (r *ReLU) Train() { r.training = true }

func (r *ReLU) Eval() { r.training = false }

func (r *ReLU) IsTraining() bool { return r.training }
