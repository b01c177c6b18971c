package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/sonomed/sonoclass/tensor"
)

// Dropout randomly zeroes elements with probability p during training and
// scales the survivors by 1/(1-p). In evaluation mode it is the identity.
type Dropout struct {
	p        float64
	training bool
	rng      *rand.Rand

	lastMask []float64
}

// NewDropout creates a dropout layer with drop probability p in [0, 1).
func NewDropout(p float64) (*Dropout, error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("dropout probability must be in [0, 1), got %f", p)
	}
	return &Dropout{
		p:        p,
		training: true,
		rng:      rand.New(globalSrc),
	}, nil
}

// Forward applies the dropout mask in training mode.
func (d *Dropout) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if !d.training || d.p == 0 {
		d.lastMask = nil
		return input, nil
	}

	scale := 1.0 / (1.0 - d.p)
	mask := make([]float64, len(input.Data))
	output := input.Clone()
	for i := range mask {
		if d.rng.Float64() >= d.p {
			mask[i] = scale
		}
		output.Data[i] *= mask[i]
	}
	d.lastMask = mask
	return output, nil
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if d.lastMask == nil {
		return gradOut, nil
	}
	if len(gradOut.Data) != len(d.lastMask) {
		return nil, fmt.Errorf("gradient size %d does not match dropout mask %d", len(gradOut.Data), len(d.lastMask))
	}

	gradIn := gradOut.Clone()
	for i, m := range d.lastMask {
		gradIn.Data[i] *= m
	}
	return gradIn, nil
}

// Parameters returns nil; dropout has no trainable state.
func (d *Dropout) Parameters() []*Parameter { return nil }

func (d *Dropout) Train() { d.training = true }

func (d *Dropout) Eval() { d.training = false }

func (d *Dropout) IsTraining() bool { return d.training }
