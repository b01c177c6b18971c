package transform

import (
	"fmt"
	"math/rand"

	"github.com/sonomed/sonoclass/tensor"
)

// RandomHorizontalFlip mirrors the image across the vertical axis with
// probability P.
type RandomHorizontalFlip struct {
	P   float64
	rng *rand.Rand
}

// NewRandomHorizontalFlip creates a seeded flip transform.
func NewRandomHorizontalFlip(p float64, seed int64) (*RandomHorizontalFlip, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("flip probability must be in [0, 1], got %f", p)
	}
	return &RandomHorizontalFlip{
		P:   p,
		rng: rand.New(rand.NewSource(seed)),
	}, nil
}

// Apply flips the image or returns it unchanged.
func (f *RandomHorizontalFlip) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}
	if f.rng.Float64() >= f.P {
		return img, nil
	}
	return flipHorizontal(img), nil
}

func flipHorizontal(img *tensor.Tensor) *tensor.Tensor {
	channels, h, w := img.Shape[0], img.Shape[1], img.Shape[2]
	plane := h * w

	out := img.Clone()
	for c := 0; c < channels; c++ {
		for y := 0; y < h; y++ {
			row := c*plane + y*w
			for x := 0; x < w; x++ {
				out.Data[row+x] = img.Data[row+w-1-x]
			}
		}
	}
	return out
}

// RandomRotation90 rotates the image by a uniformly random number of
// quarter turns, including zero.
type RandomRotation90 struct {
	rng *rand.Rand
}

// NewRandomRotation90 creates a seeded quarter-turn rotation transform.
func NewRandomRotation90(seed int64) *RandomRotation90 {
	return &RandomRotation90{rng: rand.New(rand.NewSource(seed))}
}

// Apply rotates the image by 0, 90, 180 or 270 degrees counterclockwise.
func (r *RandomRotation90) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}

	turns := r.rng.Intn(4)
	out := img
	for i := 0; i < turns; i++ {
		out = rotate90(out)
	}
	return out, nil
}

// rotate90 rotates one quarter turn counterclockwise: (y, x) -> (w-1-x, y).
func rotate90(img *tensor.Tensor) *tensor.Tensor {
	channels, h, w := img.Shape[0], img.Shape[1], img.Shape[2]
	plane := h * w

	out, _ := tensor.Zeros([]int{channels, w, h})
	for c := 0; c < channels; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Data[c*plane+(w-1-x)*h+y] = img.Data[c*plane+y*w+x]
			}
		}
	}
	return out
}
