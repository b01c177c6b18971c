package nn

import (
	"math"
	"testing"

	"github.com/sonomed/sonoclass/tensor"
)

// naiveConv2D computes a direct convolution for one sample, used as the
// reference for the im2col path.
func naiveConv2D(input []float64, weight []float64, bias []float64, inC, inH, inW, outC, kh, kw, pad int) []float64 {
	outH := inH + 2*pad - kh + 1
	outW := inW + 2*pad - kw + 1
	out := make([]float64, outC*outH*outW)

	for oc := 0; oc < outC; oc++ {
		for oy := 0; oy < outH; oy++ {
			for ox := 0; ox < outW; ox++ {
				sum := bias[oc]
				for ic := 0; ic < inC; ic++ {
					for ky := 0; ky < kh; ky++ {
						for kx := 0; kx < kw; kx++ {
							iy := oy + ky - pad
							ix := ox + kx - pad
							if iy < 0 || iy >= inH || ix < 0 || ix >= inW {
								continue
							}
							w := weight[oc*inC*kh*kw+(ic*kh+ky)*kw+kx]
							sum += w * input[(ic*inH+iy)*inW+ix]
						}
					}
				}
				out[(oc*outH+oy)*outW+ox] = sum
			}
		}
	}
	return out
}

func TestConv2DForwardMatchesNaive(t *testing.T) {
	SetRandomSeed(3)
	conv, err := NewConv2D("conv", 2, 3, 3, 3, 1)
	if err != nil {
		t.Fatalf("failed to create conv layer: %v", err)
	}

	input, err := tensor.Normal([]int{1, 2, 5, 5}, 0, 1, globalSrc)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	out, err := conv.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	if !equalShapes(out.Shape, []int{1, 3, 5, 5}) {
		t.Fatalf("unexpected output shape %v", out.Shape)
	}

	want := naiveConv2D(input.Data, conv.weight.Data.Data, conv.bias.Data.Data, 2, 5, 5, 3, 3, 3, 1)
	for i := range want {
		if math.Abs(out.Data[i]-want[i]) > 1e-10 {
			t.Fatalf("output %d: im2col %f vs naive %f", i, out.Data[i], want[i])
		}
	}
}

func equalShapes(a, b []int) bool {
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

func TestConv2DBackwardNumerical(t *testing.T) {
	SetRandomSeed(5)
	conv, _ := NewConv2D("conv", 1, 2, 3, 3, 1)

	input, err := tensor.Normal([]int{2, 1, 4, 4}, 0, 1, globalSrc)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}

	out, err := conv.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	upstream, _ := tensor.Ones(out.Shape)

	gradIn, err := conv.Backward(upstream)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	const eps = 1e-6
	for i := range input.Data {
		orig := input.Data[i]

		input.Data[i] = orig + eps
		plus := sumForward(t, conv, input)
		input.Data[i] = orig - eps
		minus := sumForward(t, conv, input)
		input.Data[i] = orig

		numerical := (plus - minus) / (2 * eps)
		if math.Abs(gradIn.Data[i]-numerical) > 1e-4 {
			t.Errorf("input gradient %d: analytic %f vs numerical %f", i, gradIn.Data[i], numerical)
		}
	}

	conv.weight.ZeroGrad()
	conv.bias.ZeroGrad()
	if _, err := conv.Forward(input); err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if _, err := conv.Backward(upstream); err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	for i := range conv.weight.Data.Data {
		orig := conv.weight.Data.Data[i]

		conv.weight.Data.Data[i] = orig + eps
		plus := sumForward(t, conv, input)
		conv.weight.Data.Data[i] = orig - eps
		minus := sumForward(t, conv, input)
		conv.weight.Data.Data[i] = orig

		numerical := (plus - minus) / (2 * eps)
		if math.Abs(conv.weight.Grad.Data[i]-numerical) > 1e-4 {
			t.Errorf("weight gradient %d: analytic %f vs numerical %f", i, conv.weight.Grad.Data[i], numerical)
		}
	}

	for i := range conv.bias.Data.Data {
		orig := conv.bias.Data.Data[i]

		conv.bias.Data.Data[i] = orig + eps
		plus := sumForward(t, conv, input)
		conv.bias.Data.Data[i] = orig - eps
		minus := sumForward(t, conv, input)
		conv.bias.Data.Data[i] = orig

		numerical := (plus - minus) / (2 * eps)
		if math.Abs(conv.bias.Grad.Data[i]-numerical) > 1e-4 {
			t.Errorf("bias gradient %d: analytic %f vs numerical %f", i, conv.bias.Grad.Data[i], numerical)
		}
	}
}

func TestConv2DChannelMismatch(t *testing.T) {
	conv, _ := NewConv2D("conv", 3, 4, 3, 3, 1)
	input, _ := tensor.Zeros([]int{1, 1, 8, 8})
	if _, err := conv.Forward(input); err == nil {
		t.Error("expected channel count mismatch error")
	}
}
