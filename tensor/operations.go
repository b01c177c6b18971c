package tensor

import (
	"fmt"
	"math"
)

func checkCompatibility(t1, t2 *Tensor) error {
	if !shapesEqual(t1.Shape, t2.Shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", t1.Shape, t2.Shape)
	}
	return nil
}

// Add performs elementwise addition.
func Add(t1, t2 *Tensor) (*Tensor, error) {
	if err := checkCompatibility(t1, t2); err != nil {
		return nil, fmt.Errorf("addition failed: %v", err)
	}

	result := t1.Clone()
	for i := range result.Data {
		result.Data[i] += t2.Data[i]
	}
	return result, nil
}

// Sub performs elementwise subtraction.
func Sub(t1, t2 *Tensor) (*Tensor, error) {
	if err := checkCompatibility(t1, t2); err != nil {
		return nil, fmt.Errorf("subtraction failed: %v", err)
	}

	result := t1.Clone()
	for i := range result.Data {
		result.Data[i] -= t2.Data[i]
	}
	return result, nil
}

// Mul performs elementwise multiplication.
func Mul(t1, t2 *Tensor) (*Tensor, error) {
	if err := checkCompatibility(t1, t2); err != nil {
		return nil, fmt.Errorf("multiplication failed: %v", err)
	}

	result := t1.Clone()
	for i := range result.Data {
		result.Data[i] *= t2.Data[i]
	}
	return result, nil
}

// Scale multiplies every element by a scalar.
func Scale(t *Tensor, s float64) *Tensor {
	result := t.Clone()
	for i := range result.Data {
		result.Data[i] *= s
	}
	return result
}

// AddScalar adds a scalar to every element.
func AddScalar(t *Tensor, s float64) *Tensor {
	result := t.Clone()
	for i := range result.Data {
		result.Data[i] += s
	}
	return result
}

// Sigmoid applies the logistic function elementwise.
func Sigmoid(t *Tensor) *Tensor {
	result := t.Clone()
	for i, v := range result.Data {
		result.Data[i] = 1.0 / (1.0 + math.Exp(-v))
	}
	return result
}

// Exp applies the exponential function elementwise.
func Exp(t *Tensor) *Tensor {
	result := t.Clone()
	for i, v := range result.Data {
		result.Data[i] = math.Exp(v)
	}
	return result
}

// Sum returns the sum of all elements.
func Sum(t *Tensor) float64 {
	sum := 0.0
	for _, v := range t.Data {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean of all elements.
func Mean(t *Tensor) float64 {
	if t.NumElems == 0 {
		return 0
	}
	return Sum(t) / float64(t.NumElems)
}
