package nn

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// Flatten collapses all dimensions after the batch dimension.
type Flatten struct {
	training  bool
	lastShape []int
}

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{training: true}
}

// Forward reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
func (f *Flatten) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) < 2 {
		return nil, fmt.Errorf("Flatten expects at least 2D input, got shape %v", input.Shape)
	}

	features := input.NumElems / input.Shape[0]
	output, err := input.Reshape([]int{input.Shape[0], features})
	if err != nil {
		return nil, err
	}

	if f.training {
		shape := make([]int, len(input.Shape))
		copy(shape, input.Shape)
		f.lastShape = shape
	}
	return output, nil
}

// Backward restores the gradient to the original input shape.
func (f *Flatten) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if f.lastShape == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}
	return gradOut.Reshape(f.lastShape)
}

// Parameters returns nil; flatten has no trainable state.
func (f *Flatten) Parameters() []*Parameter { return nil }

func (f *Flatten) Train() { f.training = true }

func (f *Flatten) Eval() { f.training = false }

func (f *Flatten) IsTraining() bool { return f.training }
