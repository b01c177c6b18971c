package nn

import (
	"fmt"
	"math"

	"github.com/sonomed/sonoclass/tensor"
)

// Linear implements a fully connected layer: y = xW + b.
type Linear struct {
	weight   *Parameter
	bias     *Parameter
	training bool

	lastInput *tensor.Tensor
}

// NewLinear creates a new Linear layer with Xavier/Glorot uniform
// initialization: W ~ U(-sqrt(6/(fan_in+fan_out)), sqrt(6/(fan_in+fan_out))).
func NewLinear(name string, inputSize, outputSize int, bias bool) (*Linear, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("invalid layer sizes: %d -> %d", inputSize, outputSize)
	}

	bound := math.Sqrt(6.0 / float64(inputSize+outputSize))
	weight, err := tensor.Uniform([]int{inputSize, outputSize}, -bound, bound, globalSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create weight tensor: %v", err)
	}

	l := &Linear{
		weight:   NewParameter(name+".weight", weight),
		training: true,
	}

	if bias {
		biasT, err := tensor.Zeros([]int{outputSize})
		if err != nil {
			return nil, fmt.Errorf("failed to create bias tensor: %v", err)
		}
		l.bias = NewParameter(name+".bias", biasT)
	}

	return l, nil
}

// Forward performs the forward pass: y = xW + b.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 2 {
		return nil, fmt.Errorf("Linear layer expects 2D input [batch_size, input_size], got shape %v", input.Shape)
	}
	if input.Shape[1] != l.weight.Data.Shape[0] {
		return nil, fmt.Errorf("input size mismatch: expected %d, got %d", l.weight.Data.Shape[0], input.Shape[1])
	}

	output, err := tensor.MatMul(input, l.weight.Data)
	if err != nil {
		return nil, fmt.Errorf("matrix multiplication failed: %v", err)
	}

	if l.bias != nil {
		batchSize := input.Shape[0]
		outputSize := l.weight.Data.Shape[1]
		for i := 0; i < batchSize; i++ {
			for j := 0; j < outputSize; j++ {
				output.Data[i*outputSize+j] += l.bias.Data.Data[j]
			}
		}
	}

	if l.training {
		l.lastInput = input
	}
	return output, nil
}

// Backward computes parameter gradients and the gradient with respect to the
// layer input.
func (l *Linear) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}
	if len(gradOut.Shape) != 2 {
		return nil, fmt.Errorf("Linear backward expects 2D gradient, got shape %v", gradOut.Shape)
	}

	// dW = x^T @ dY
	inputT, err := tensor.Transpose(l.lastInput)
	if err != nil {
		return nil, err
	}
	gradW, err := tensor.MatMul(inputT, gradOut)
	if err != nil {
		return nil, fmt.Errorf("weight gradient failed: %v", err)
	}
	for i := range l.weight.Grad.Data {
		l.weight.Grad.Data[i] += gradW.Data[i]
	}

	// db = column sums of dY
	if l.bias != nil {
		batchSize := gradOut.Shape[0]
		outputSize := gradOut.Shape[1]
		for i := 0; i < batchSize; i++ {
			for j := 0; j < outputSize; j++ {
				l.bias.Grad.Data[j] += gradOut.Data[i*outputSize+j]
			}
		}
	}

	// dX = dY @ W^T
	weightT, err := tensor.Transpose(l.weight.Data)
	if err != nil {
		return nil, err
	}
	gradIn, err := tensor.MatMul(gradOut, weightT)
	if err != nil {
		return nil, fmt.Errorf("input gradient failed: %v", err)
	}
	return gradIn, nil
}

// Parameters returns the layer's trainable parameters.
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

func (l *Linear) Train() { l.training = true }

func (l *Linear) Eval() { l.training = false }

func (l *Linear) IsTraining() bool { return l.training }
