package nn

import (
	"math"
	"testing"

	"github.com/sonomed/sonoclass/tensor"
)

func TestMaxPool2DForward(t *testing.T) {
	pool, err := NewMaxPool2D(2)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	input, _ := tensor.New([]int{1, 1, 4, 4}, []float64{
		1, 2, 5, 6,
		3, 4, 7, 8,
		-1, -2, 0, 0,
		-3, -4, 0, 9,
	})

	out, err := pool.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	want := []float64{4, 8, -1, 9}
	for i, w := range want {
		if out.Data[i] != w {
			t.Errorf("output %d: expected %f, got %f", i, w, out.Data[i])
		}
	}
}

func TestMaxPool2DBackwardRoutesToArgmax(t *testing.T) {
	pool, _ := NewMaxPool2D(2)
	input, _ := tensor.New([]int{1, 1, 2, 2}, []float64{
		1, 7,
		3, 2,
	})

	if _, err := pool.Forward(input); err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	upstream, _ := tensor.New([]int{1, 1, 1, 1}, []float64{5})
	gradIn, err := pool.Backward(upstream)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	want := []float64{0, 5, 0, 0}
	for i, w := range want {
		if gradIn.Data[i] != w {
			t.Errorf("gradient %d: expected %f, got %f", i, w, gradIn.Data[i])
		}
	}
}

func TestMaxPool2DIndivisibleInput(t *testing.T) {
	pool, _ := NewMaxPool2D(2)
	input, _ := tensor.Zeros([]int{1, 1, 5, 4})
	if _, err := pool.Forward(input); err == nil {
		t.Error("expected error for indivisible input size")
	}
}

func TestGlobalAvgPool(t *testing.T) {
	pool := NewGlobalAvgPool()
	input, _ := tensor.New([]int{1, 2, 2, 2}, []float64{
		1, 2, 3, 4, // channel 0: mean 2.5
		10, 20, 30, 40, // channel 1: mean 25
	})

	out, err := pool.Forward(input)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	if !equalShapes(out.Shape, []int{1, 2}) {
		t.Fatalf("unexpected output shape %v", out.Shape)
	}
	if math.Abs(out.Data[0]-2.5) > 1e-12 || math.Abs(out.Data[1]-25) > 1e-12 {
		t.Errorf("unexpected means: %v", out.Data)
	}

	upstream, _ := tensor.New([]int{1, 2}, []float64{4, 8})
	gradIn, err := pool.Backward(upstream)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		if gradIn.Data[i] != 1 {
			t.Errorf("channel 0 gradient %d: expected 1, got %f", i, gradIn.Data[i])
		}
	}
	for i := 4; i < 8; i++ {
		if gradIn.Data[i] != 2 {
			t.Errorf("channel 1 gradient %d: expected 2, got %f", i, gradIn.Data[i])
		}
	}
}
