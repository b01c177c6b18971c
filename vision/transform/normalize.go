package transform

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// Normalize standardizes each channel: (x - mean[c]) / std[c].
type Normalize struct {
	Mean []float64
	Std  []float64
}

// NewNormalize creates a per-channel standardization transform.
func NewNormalize(mean, std []float64) (*Normalize, error) {
	if len(mean) != len(std) {
		return nil, fmt.Errorf("mean has %d channels, std has %d", len(mean), len(std))
	}
	if len(mean) == 0 {
		return nil, fmt.Errorf("at least one channel is required")
	}
	for i, s := range std {
		if s <= 0 {
			return nil, fmt.Errorf("std for channel %d must be positive, got %f", i, s)
		}
	}
	return &Normalize{Mean: mean, Std: std}, nil
}

// Apply standardizes every channel of the image.
func (n *Normalize) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}
	if img.Shape[0] != len(n.Mean) {
		return nil, fmt.Errorf("image has %d channels, normalization has %d", img.Shape[0], len(n.Mean))
	}

	out := img.Clone()
	plane := img.Shape[1] * img.Shape[2]
	for c := 0; c < img.Shape[0]; c++ {
		mean, std := n.Mean[c], n.Std[c]
		for i := c * plane; i < (c+1)*plane; i++ {
			out.Data[i] = (out.Data[i] - mean) / std
		}
	}
	return out, nil
}

// Grayscale3 collapses the channels to their luminance average and
// replicates it back across all channels, keeping the tensor shape intact
// for models that expect multi-channel input.
type Grayscale3 struct{}

// NewGrayscale3 creates a channel-averaging grayscale transform.
func NewGrayscale3() *Grayscale3 {
	return &Grayscale3{}
}

// Apply averages the channels elementwise and broadcasts the result.
func (g *Grayscale3) Apply(img *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkCHW(img); err != nil {
		return nil, err
	}

	channels := img.Shape[0]
	plane := img.Shape[1] * img.Shape[2]

	out := img.Clone()
	for i := 0; i < plane; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += img.Data[c*plane+i]
		}
		avg := sum / float64(channels)
		for c := 0; c < channels; c++ {
			out.Data[c*plane+i] = avg
		}
	}
	return out, nil
}
