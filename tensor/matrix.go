package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// AsDense wraps a 2D tensor as a gonum dense matrix sharing the same
// backing slice. Mutations through the matrix are visible in the tensor.
func (t *Tensor) AsDense() (*mat.Dense, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("AsDense requires a 2D tensor, got shape %v", t.Shape)
	}
	return mat.NewDense(t.Shape[0], t.Shape[1], t.Data), nil
}

// FromDense creates a 2D tensor adopting the dense matrix's backing data.
func FromDense(m *mat.Dense) *Tensor {
	r, c := m.Dims()
	t, _ := New([]int{r, c}, m.RawMatrix().Data)
	return t
}

// MatMul computes the matrix product of two 2D tensors using gonum.
func MatMul(t1, t2 *Tensor) (*Tensor, error) {
	if len(t1.Shape) != 2 || len(t2.Shape) != 2 {
		return nil, fmt.Errorf("MatMul requires 2D tensors, got shapes %v and %v", t1.Shape, t2.Shape)
	}
	if t1.Shape[1] != t2.Shape[0] {
		return nil, fmt.Errorf("incompatible shapes for MatMul: %v x %v", t1.Shape, t2.Shape)
	}

	a, err := t1.AsDense()
	if err != nil {
		return nil, err
	}
	b, err := t2.AsDense()
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(t1.Shape[0], t2.Shape[1], nil)
	out.Mul(a, b)

	return FromDense(out), nil
}

// Transpose returns the transpose of a 2D tensor as a new tensor.
func Transpose(t *Tensor) (*Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("Transpose requires a 2D tensor, got shape %v", t.Shape)
	}

	rows, cols := t.Shape[0], t.Shape[1]
	out, err := New([]int{cols, rows}, nil)
	if err != nil {
		return nil, err
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Data[j*rows+i] = t.Data[i*cols+j]
		}
	}
	return out, nil
}
