package nn

import (
	"fmt"
	"math"

	"github.com/sonomed/sonoclass/tensor"
)

// Conv2D is a 2D convolutional layer over NCHW input with stride 1 and
// symmetric zero padding. The kernel is stored flattened as
// [outChan, inChan*kh*kw] so the convolution runs as an im2col matrix
// product.
type Conv2D struct {
	inChan, outChan int
	kh, kw          int
	padding         int

	weight   *Parameter
	bias     *Parameter
	training bool

	// Cached for the backward pass.
	lastCols  []*tensor.Tensor
	lastShape []int
}

// NewConv2D creates a new Conv2D layer with Glorot uniform initialization.
func NewConv2D(name string, inChan, outChan, kh, kw, padding int) (*Conv2D, error) {
	if inChan <= 0 || outChan <= 0 || kh <= 0 || kw <= 0 {
		return nil, fmt.Errorf("invalid conv dimensions: in=%d out=%d kernel=%dx%d", inChan, outChan, kh, kw)
	}
	if padding < 0 {
		return nil, fmt.Errorf("padding cannot be negative")
	}

	fanIn := inChan * kh * kw
	fanOut := outChan * kh * kw
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	weight, err := tensor.Uniform([]int{outChan, fanIn}, -bound, bound, globalSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kernel tensor: %v", err)
	}
	biasT, err := tensor.Zeros([]int{outChan})
	if err != nil {
		return nil, fmt.Errorf("failed to create bias tensor: %v", err)
	}

	return &Conv2D{
		inChan:   inChan,
		outChan:  outChan,
		kh:       kh,
		kw:       kw,
		padding:  padding,
		weight:   NewParameter(name+".weight", weight),
		bias:     NewParameter(name+".bias", biasT),
		training: true,
	}, nil
}

func (c *Conv2D) outputDims(inH, inW int) (int, int) {
	outH := inH + 2*c.padding - c.kh + 1
	outW := inW + 2*c.padding - c.kw + 1
	return outH, outW
}

// im2col unrolls one padded input sample into a [inChan*kh*kw, outH*outW]
// matrix whose columns are receptive fields.
func (c *Conv2D) im2col(input *tensor.Tensor, sample, inH, inW, outH, outW int) (*tensor.Tensor, error) {
	cols, err := tensor.Zeros([]int{c.inChan * c.kh * c.kw, outH * outW})
	if err != nil {
		return nil, err
	}

	sampleOffset := sample * c.inChan * inH * inW
	colWidth := outH * outW

	for ch := 0; ch < c.inChan; ch++ {
		chanOffset := sampleOffset + ch*inH*inW
		for ky := 0; ky < c.kh; ky++ {
			for kx := 0; kx < c.kw; kx++ {
				row := (ch*c.kh+ky)*c.kw + kx
				for oy := 0; oy < outH; oy++ {
					iy := oy + ky - c.padding
					if iy < 0 || iy >= inH {
						continue
					}
					for ox := 0; ox < outW; ox++ {
						ix := ox + kx - c.padding
						if ix < 0 || ix >= inW {
							continue
						}
						cols.Data[row*colWidth+oy*outW+ox] = input.Data[chanOffset+iy*inW+ix]
					}
				}
			}
		}
	}
	return cols, nil
}

// col2im scatters column gradients back into an input-shaped gradient,
// accumulating overlapping receptive fields.
func (c *Conv2D) col2im(cols *tensor.Tensor, gradIn *tensor.Tensor, sample, inH, inW, outH, outW int) {
	sampleOffset := sample * c.inChan * inH * inW
	colWidth := outH * outW

	for ch := 0; ch < c.inChan; ch++ {
		chanOffset := sampleOffset + ch*inH*inW
		for ky := 0; ky < c.kh; ky++ {
			for kx := 0; kx < c.kw; kx++ {
				row := (ch*c.kh+ky)*c.kw + kx
				for oy := 0; oy < outH; oy++ {
					iy := oy + ky - c.padding
					if iy < 0 || iy >= inH {
						continue
					}
					for ox := 0; ox < outW; ox++ {
						ix := ox + kx - c.padding
						if ix < 0 || ix >= inW {
							continue
						}
						gradIn.Data[chanOffset+iy*inW+ix] += cols.Data[row*colWidth+oy*outW+ox]
					}
				}
			}
		}
	}
}

// Forward performs the convolution for a batch of NCHW samples.
func (c *Conv2D) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	if len(input.Shape) != 4 {
		return nil, fmt.Errorf("Conv2D expects 4D input [batch, channels, height, width], got shape %v", input.Shape)
	}
	if input.Shape[1] != c.inChan {
		return nil, fmt.Errorf("channel count mismatch: expected %d, got %d", c.inChan, input.Shape[1])
	}

	batchSize, inH, inW := input.Shape[0], input.Shape[2], input.Shape[3]
	outH, outW := c.outputDims(inH, inW)
	if outH <= 0 || outW <= 0 {
		return nil, fmt.Errorf("kernel %dx%d too large for input %dx%d", c.kh, c.kw, inH, inW)
	}

	output, err := tensor.Zeros([]int{batchSize, c.outChan, outH, outW})
	if err != nil {
		return nil, err
	}

	cols := make([]*tensor.Tensor, batchSize)
	colWidth := outH * outW

	for s := 0; s < batchSize; s++ {
		col, err := c.im2col(input, s, inH, inW, outH, outW)
		if err != nil {
			return nil, err
		}
		cols[s] = col

		// [outChan, fanIn] x [fanIn, outH*outW]
		out, err := tensor.MatMul(c.weight.Data, col)
		if err != nil {
			return nil, fmt.Errorf("convolution matmul failed: %v", err)
		}

		sampleOffset := s * c.outChan * colWidth
		for oc := 0; oc < c.outChan; oc++ {
			b := c.bias.Data.Data[oc]
			for i := 0; i < colWidth; i++ {
				output.Data[sampleOffset+oc*colWidth+i] = out.Data[oc*colWidth+i] + b
			}
		}
	}

	if c.training {
		c.lastCols = cols
		c.lastShape = []int{batchSize, c.inChan, inH, inW}
	}
	return output, nil
}

// Backward accumulates kernel and bias gradients and returns the gradient
// with respect to the layer input.
func (c *Conv2D) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if c.lastCols == nil {
		return nil, fmt.Errorf("Backward called before Forward")
	}
	if len(gradOut.Shape) != 4 || gradOut.Shape[1] != c.outChan {
		return nil, fmt.Errorf("unexpected gradient shape %v", gradOut.Shape)
	}

	batchSize, inH, inW := c.lastShape[0], c.lastShape[2], c.lastShape[3]
	outH, outW := gradOut.Shape[2], gradOut.Shape[3]
	colWidth := outH * outW

	gradIn, err := tensor.Zeros(c.lastShape)
	if err != nil {
		return nil, err
	}

	weightT, err := tensor.Transpose(c.weight.Data)
	if err != nil {
		return nil, err
	}

	for s := 0; s < batchSize; s++ {
		sampleOffset := s * c.outChan * colWidth
		gradSample, err := tensor.New([]int{c.outChan, colWidth}, gradOut.Data[sampleOffset:sampleOffset+c.outChan*colWidth])
		if err != nil {
			return nil, err
		}

		// dW += dY @ cols^T
		colsT, err := tensor.Transpose(c.lastCols[s])
		if err != nil {
			return nil, err
		}
		gradW, err := tensor.MatMul(gradSample, colsT)
		if err != nil {
			return nil, fmt.Errorf("kernel gradient failed: %v", err)
		}
		for i := range c.weight.Grad.Data {
			c.weight.Grad.Data[i] += gradW.Data[i]
		}

		// db += row sums of dY
		for oc := 0; oc < c.outChan; oc++ {
			sum := 0.0
			for i := 0; i < colWidth; i++ {
				sum += gradSample.Data[oc*colWidth+i]
			}
			c.bias.Grad.Data[oc] += sum
		}

		// dX = col2im(W^T @ dY)
		gradCols, err := tensor.MatMul(weightT, gradSample)
		if err != nil {
			return nil, fmt.Errorf("input gradient failed: %v", err)
		}
		c.col2im(gradCols, gradIn, s, inH, inW, outH, outW)
	}

	return gradIn, nil
}

// Parameters returns the kernel and bias parameters.
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

func (c *Conv2D) Train() { c.training = true }

func (c *Conv2D) Eval() { c.training = false }

func (c *Conv2D) IsTraining() bool { return c.training }
