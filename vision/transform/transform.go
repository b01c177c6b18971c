package transform

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// Transform maps one image tensor in CHW layout to another. Implementations
// must not modify their input; random transforms draw from their own seeded
// source so a pipeline is reproducible.
type Transform interface {
	Apply(img *tensor.Tensor) (*tensor.Tensor, error)
}

// Compose chains transforms in order.
type Compose struct {
	transforms []Transform
}

// NewCompose creates a pipeline applying the given transforms left to right.
func NewCompose(transforms ...Transform) *Compose {
	return &Compose{transforms: transforms}
}

// Apply runs the image through every transform in sequence.
func (c *Compose) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	out := img
	var err error
	for i, t := range c.transforms {
		out, err = t.Apply(out)
		if err != nil {
			return nil, fmt.Errorf("transform %d failed: %v", i, err)
		}
	}
	return out, nil
}

// checkCHW validates the 3D channel-first layout transforms operate on.
func checkCHW(img *tensor.Tensor) error {
	if len(img.Shape) != 3 {
		return fmt.Errorf("expected CHW image tensor, got shape %v", img.Shape)
	}
	return nil
}
