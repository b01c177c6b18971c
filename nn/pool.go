package nn

import (
	"fmt"
	"math"

	"github.com/sonomed/sonoclass/tensor"
)

// MaxPool2D downsamples NCHW input by taking the maximum over non-overlapping
// windows of size kernel x kernel.
type MaxPool2D struct {
	kernel   int
	training bool

	lastArgmax []int
	lastShape  []int
}

// NewMaxPool2D creates a max pooling layer with the given window size.
func NewMaxPool2D(kernel int) (*MaxPool2D, error) {
	if kernel <= 0 {
		return nil, fmt.Errorf("invalid pooling kernel size %d", kernel)
	}
	return &MaxPool2D{kernel: kernel, training: true}, nil
}

// Forward performs max pooling. Input height and width must be divisible by
// the window size.
func (p *MaxPool2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("MaxPool2D expects 4D input, got shape %v", input.Shape)
	}

	batchSize, channels, inH, inW := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	if inH%p.kernel != 0 || inW%p.kernel != 0 {
		return nil, fmt.Errorf("input %dx%d not divisible by pooling window %d", inH, inW, p.kernel)
	}

	outH, outW := inH/p.kernel, inW/p.kernel
	output, err := tensor.Zeros([]int{batchSize, channels, outH, outW})
	if err != nil {
		return nil, err
	}

	argmax := make([]int, output.NumElems)

	for s := 0; s < batchSize; s++ {
		for ch := 0; ch < channels; ch++ {
			planeOffset := (s*channels + ch) * inH * inW
			outOffset := (s*channels + ch) * outH * outW
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					best := math.Inf(-1)
					bestIdx := 0
					for ky := 0; ky < p.kernel; ky++ {
						for kx := 0; kx < p.kernel; kx++ {
							idx := planeOffset + (oy*p.kernel+ky)*inW + ox*p.kernel + kx
							if input.Data[idx] > best {
								best = input.Data[idx]
								bestIdx = idx
							}
						}
					}
					outIdx := outOffset + oy*outW + ox
					output.Data[outIdx] = best
					argmax[outIdx] = bestIdx
				}
			}
		}
	}

	if p.training {
		p.lastArgmax = argmax
		p.lastShape = []int{batchSize, channels, inH, inW}
	}
	return output, nil
}

// Backward routes each output gradient to the input position that produced
// the maximum.
func (p *MaxPool2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if p.lastArgmax == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}
	if gradOut.NumElems != len(p.lastArgmax) {
		return nil, fmt.Errorf("gradient size %d does not match pooled output %d", gradOut.NumElems, len(p.lastArgmax))
	}

	gradIn, err := tensor.Zeros(p.lastShape)
	if err != nil {
		return nil, err
	}
	for i, srcIdx := range p.lastArgmax {
		gradIn.Data[srcIdx] += gradOut.Data[i]
	}
	return gradIn, nil
}

// Parameters returns nil; pooling has no trainable state.
func (p *MaxPool2D) Parameters() []*Parameter { return nil }

func (p *MaxPool2D) Train() { p.training = true }

func (p *MaxPool2D) Eval() { p.training = false }

func (p *MaxPool2D) IsTraining() bool { return p.training }

// GlobalAvgPool reduces NCHW input to [batch, channels] by averaging each
// spatial plane.
type GlobalAvgPool struct {
	training  bool
	lastShape []int
}

// NewGlobalAvgPool creates a global average pooling layer.
func NewGlobalAvgPool() *GlobalAvgPool {
	return &GlobalAvgPool{training: true}
}

// Forward averages over the spatial dimensions.
func (g *GlobalAvgPool) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("GlobalAvgPool expects 4D input, got shape %v", input.Shape)
	}

	batchSize, channels, inH, inW := input.Shape[0], input.Shape[1], input.Shape[2], input.Shape[3]
	plane := inH * inW

	output, err := tensor.Zeros([]int{batchSize, channels})
	if err != nil {
		return nil, err
	}

	for s := 0; s < batchSize; s++ {
		for ch := 0; ch < channels; ch++ {
			offset := (s*channels + ch) * plane
			sum := 0.0
			for i := 0; i < plane; i++ {
				sum += input.Data[offset+i]
			}
			output.Data[s*channels+ch] = sum / float64(plane)
		}
	}

	if g.training {
		g.lastShape = []int{batchSize, channels, inH, inW}
	}
	return output, nil
}

// Backward spreads each channel gradient evenly over its spatial plane.
func (g *GlobalAvgPool) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if g.lastShape == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}

	batchSize, channels, inH, inW := g.lastShape[0], g.lastShape[1], g.lastShape[2], g.lastShape[3]
	plane := inH * inW

	gradIn, err := tensor.Zeros(g.lastShape)
	if err != nil {
		return nil, err
	}
	for s := 0; s < batchSize; s++ {
		for ch := 0; ch < channels; ch++ {
			v := gradOut.Data[s*channels+ch] / float64(plane)
			offset := (s*channels + ch) * plane
			for i := 0; i < plane; i++ {
				gradIn.Data[offset+i] = v
			}
		}
	}
	return gradIn, nil
}

// Parameters returns nil; pooling has no trainable state.
func (g *GlobalAvgPool) Parameters() []*Parameter { return nil }

func (g *GlobalAvgPool) Train() { g.training = true }

func (g *GlobalAvgPool) Eval() { g.training = false }

func (g *GlobalAvgPool) IsTraining() bool { return g.training }
