package tensor

import (
	"fmt"
)

// DeviceType identifies the compute capability a run was configured with.
// Resolution happens once at process start; nothing re-queries the device
// per call.
type DeviceType int

const (
	CPU DeviceType = iota
	Accelerator
)

func (d DeviceType) String() string {
	switch d {
	case CPU:
		return "CPU"
	case Accelerator:
		return "Accelerator"
	default:
		return "Unknown"
	}
}

// Tensor is a dense, row-major float64 tensor held in host memory.
type Tensor struct {
	Shape    []int
	Strides  []int
	Data     []float64
	NumElems int
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, elements=%d)", t.Shape, t.NumElems)
}

func calculateStrides(shape []int) []int {
	if len(shape) == 0 {
		return []int{}
	}

	strides := make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}
	return strides
}

func calculateNumElements(shape []int) int {
	if len(shape) == 0 {
		return 0
	}

	elements := 1
	for _, dim := range shape {
		elements *= dim
	}
	return elements
}

func validateShape(shape []int) error {
	if len(shape) == 0 {
		return fmt.Errorf("invalid shape: must have at least one dimension")
	}
	for i, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("invalid shape: dimension %d has size %d, must be positive", i, dim)
		}
	}
	return nil
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Size returns the tensor shape.
func (t *Tensor) Size() []int {
	return t.Shape
}

// Numel returns the total number of elements.
func (t *Tensor) Numel() int {
	return t.NumElems
}

// Dim returns the number of dimensions.
func (t *Tensor) Dim() int {
	return len(t.Shape)
}

// At returns the element at the given multi-dimensional indices.
func (t *Tensor) At(indices ...int) (float64, error) {
	if len(indices) != len(t.Shape) {
		return 0, fmt.Errorf("expected %d indices, got %d", len(t.Shape), len(indices))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape[i] {
			return 0, fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, t.Shape[i])
		}
		offset += idx * t.Strides[i]
	}
	return t.Data[offset], nil
}

// SetAt stores a value at the given multi-dimensional indices.
func (t *Tensor) SetAt(value float64, indices ...int) error {
	if len(indices) != len(t.Shape) {
		return fmt.Errorf("expected %d indices, got %d", len(t.Shape), len(indices))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= t.Shape[i] {
			return fmt.Errorf("index %d out of range for dimension %d (size %d)", idx, i, t.Shape[i])
		}
		offset += idx * t.Strides[i]
	}
	t.Data[offset] = value
	return nil
}

// Item returns the single element of a one-element tensor.
func (t *Tensor) Item() (float64, error) {
	if t.NumElems != 1 {
		return 0, fmt.Errorf("Item() requires a single-element tensor, got %d elements", t.NumElems)
	}
	return t.Data[0], nil
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.Data))
	copy(data, t.Data)

	shape := make([]int, len(t.Shape))
	copy(shape, t.Shape)

	return &Tensor{
		Shape:    shape,
		Strides:  calculateStrides(shape),
		Data:     data,
		NumElems: t.NumElems,
	}
}

// CopyFrom overwrites the tensor's data with the data of src.
// Shapes must match exactly.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !shapesEqual(t.Shape, src.Shape) {
		return fmt.Errorf("shape mismatch: %v vs %v", t.Shape, src.Shape)
	}
	copy(t.Data, src.Data)
	return nil
}

// Zero resets every element to 0 in place.
func (t *Tensor) Zero() {
	for i := range t.Data {
		t.Data[i] = 0
	}
}

// Equal reports whether two tensors have the same shape and identical data.
func (t *Tensor) Equal(other *Tensor) bool {
	if !shapesEqual(t.Shape, other.Shape) {
		return false
	}
	for i := range t.Data {
		if t.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// Reshape returns a view-like tensor with a new shape sharing the same data.
func (t *Tensor) Reshape(newShape []int) (*Tensor, error) {
	if err := validateShape(newShape); err != nil {
		return nil, err
	}
	if calculateNumElements(newShape) != t.NumElems {
		return nil, fmt.Errorf("cannot reshape tensor of %d elements to shape %v", t.NumElems, newShape)
	}

	shape := make([]int, len(newShape))
	copy(shape, newShape)

	return &Tensor{
		Shape:    shape,
		Strides:  calculateStrides(shape),
		Data:     t.Data,
		NumElems: t.NumElems,
	}, nil
}
