package tensor

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// New creates a tensor with the given shape and data. A nil data slice
// allocates a zero-filled tensor; otherwise the slice is adopted directly.
func New(shape []int, data []float64) (*Tensor, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	numElems := calculateNumElements(shape)
	if data == nil {
		data = make([]float64, numElems)
	} else if len(data) != numElems {
		return nil, fmt.Errorf("data length %d does not match tensor size %d", len(data), numElems)
	}

	shapeCopy := make([]int, len(shape))
	copy(shapeCopy, shape)

	return &Tensor{
		Shape:    shapeCopy,
		Strides:  calculateStrides(shapeCopy),
		Data:     data,
		NumElems: numElems,
	}, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape []int) (*Tensor, error) {
	return New(shape, nil)
}

// Ones creates a tensor filled with 1.
func Ones(shape []int) (*Tensor, error) {
	return Full(shape, 1)
}

// Full creates a tensor filled with the given value.
func Full(shape []int, value float64) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}
	for i := range t.Data {
		t.Data[i] = value
	}
	return t, nil
}

// FromScalar creates a single-element tensor holding the value.
func FromScalar(value float64) *Tensor {
	t, _ := New([]int{1}, []float64{value})
	return t
}

// Uniform creates a tensor with elements drawn from U(low, high) using the
// supplied random source.
func Uniform(shape []int, low, high float64, src rand.Source) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}

	dist := distuv.Uniform{Min: low, Max: high, Src: src}
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
	return t, nil
}

// Normal creates a tensor with elements drawn from N(mean, sigma^2) using
// the supplied random source.
func Normal(shape []int, mean, sigma float64, src rand.Source) (*Tensor, error) {
	t, err := New(shape, nil)
	if err != nil {
		return nil, err
	}

	dist := distuv.Normal{Mu: mean, Sigma: sigma, Src: src}
	for i := range t.Data {
		t.Data[i] = dist.Rand()
	}
	return t, nil
}
