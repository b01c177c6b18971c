package nn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/sonomed/sonoclass/tensor"
)

// Global random source for deterministic weight initialization.
var globalSrc rand.Source = rand.NewSource(1)

// SetRandomSeed sets the global random seed for deterministic weight
// initialization and dropout masks.
func SetRandomSeed(seed uint64) {
	globalSrc = rand.NewSource(seed)
}

// Parameter is a trainable tensor together with its gradient accumulator.
type Parameter struct {
	Name string
	Data *tensor.Tensor
	Grad *tensor.Tensor
}

// NewParameter wraps a data tensor with a zero gradient of the same shape.
func NewParameter(name string, data *tensor.Tensor) *Parameter {
	grad, _ := tensor.Zeros(data.Shape)
	return &Parameter{
		Name: name,
		Data: data,
		Grad: grad,
	}
}

// ZeroGrad resets the accumulated gradient to zero.
func (p *Parameter) ZeroGrad() {
	p.Grad.Zero()
}

// Module interface defines methods that all neural network layers must implement.
// Backward takes the gradient of the loss with respect to the module's output
// and returns the gradient with respect to its input, accumulating parameter
// gradients along the way.
type Module interface {
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*Parameter
	Train()
	Eval()
	IsTraining() bool
}

// Sequential chains multiple Modules in order.
type Sequential struct {
	layers   []Module
	training bool
}

// NewSequential creates a Sequential container from the given layers.
func NewSequential(layers ...Module) *Sequential {
	return &Sequential{
		layers:   layers,
		training: true,
	}
}

// Forward applies each layer in sequence.
func (s *Sequential) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	out := input
	var err error
	for i, layer := range s.layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("layer %d forward failed: %v", i, err)
		}
	}
	return out, nil
}

// Backward applies Backward in reverse order.
func (s *Sequential) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	grad := gradOut
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		grad, err = s.layers[i].Backward(grad)
		if err != nil {
			return nil, fmt.Errorf("layer %d backward failed: %v", i, err)
		}
	}
	return grad, nil
}

// Parameters returns the trainable parameters of all layers in order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Train sets every layer to training mode.
func (s *Sequential) Train() {
	s.training = true
	for _, layer := range s.layers {
		layer.Train()
	}
}

// Eval sets every layer to evaluation mode.
func (s *Sequential) Eval() {
	s.training = false
	for _, layer := range s.layers {
		layer.Eval()
	}
}

// IsTraining returns true if the container is in training mode.
func (s *Sequential) IsTraining() bool {
	return s.training
}

// Layers exposes the contained layers.
func (s *Sequential) Layers() []Module {
	return s.layers
}
