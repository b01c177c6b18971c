package nn

import (
	"math"
	"testing"

	"github.com/sonomed/sonoclass/tensor"
)

func TestBCEWithLogitsForward(t *testing.T) {
	loss, err := NewBCEWithLogitsLoss(1.0)
	if err != nil {
		t.Fatalf("failed to create loss: %v", err)
	}

	logits, _ := tensor.New([]int{2}, []float64{0.3, -1.2})
	targets, _ := tensor.New([]int{2}, []float64{1, 0})

	out, err := loss.Forward(logits, targets)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}

	// Reference: -[y*log(sigmoid) + (1-y)*log(1-sigmoid)] averaged.
	want := 0.0
	for i, z := range logits.Data {
		sig := 1.0 / (1.0 + math.Exp(-z))
		y := targets.Data[i]
		want += -(y*math.Log(sig) + (1-y)*math.Log(1-sig))
	}
	want /= 2

	got, _ := out.Item()
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("expected loss %f, got %f", want, got)
	}
}

func TestBCEWithLogitsPosWeight(t *testing.T) {
	unweighted, _ := NewBCEWithLogitsLoss(1.0)
	weighted, _ := NewBCEWithLogitsLoss(3.0)

	logits, _ := tensor.New([]int{1}, []float64{-0.5})
	positives, _ := tensor.New([]int{1}, []float64{1})
	negatives, _ := tensor.New([]int{1}, []float64{0})

	// Positive samples are scaled by the weight.
	u, _ := unweighted.Forward(logits, positives)
	w, _ := weighted.Forward(logits, positives)
	uVal, _ := u.Item()
	wVal, _ := w.Item()
	if math.Abs(wVal-3*uVal) > 1e-12 {
		t.Errorf("positive loss should scale with pos_weight: %f vs 3*%f", wVal, uVal)
	}

	// Negative samples are unaffected.
	u, _ = unweighted.Forward(logits, negatives)
	w, _ = weighted.Forward(logits, negatives)
	uVal, _ = u.Item()
	wVal, _ = w.Item()
	if math.Abs(wVal-uVal) > 1e-12 {
		t.Errorf("negative loss should not scale with pos_weight: %f vs %f", wVal, uVal)
	}
}

func TestBCEWithLogitsExtremeLogitsStable(t *testing.T) {
	loss, _ := NewBCEWithLogitsLoss(1.0)

	logits, _ := tensor.New([]int{2}, []float64{500, -500})
	targets, _ := tensor.New([]int{2}, []float64{1, 0})

	out, err := loss.Forward(logits, targets)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	got, _ := out.Item()
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Errorf("loss not numerically stable for extreme logits: %f", got)
	}
	if got > 1e-9 {
		t.Errorf("confident correct predictions should have near-zero loss, got %f", got)
	}
}

func TestBCEWithLogitsBackwardNumerical(t *testing.T) {
	loss, _ := NewBCEWithLogitsLoss(2.5)

	logits, _ := tensor.New([]int{4}, []float64{0.7, -0.3, 1.9, -2.2})
	targets, _ := tensor.New([]int{4}, []float64{1, 0, 0, 1})

	grad, err := loss.Backward(logits, targets)
	if err != nil {
		t.Fatalf("backward failed: %v", err)
	}

	const eps = 1e-6
	for i := range logits.Data {
		orig := logits.Data[i]

		logits.Data[i] = orig + eps
		plusT, _ := loss.Forward(logits, targets)
		logits.Data[i] = orig - eps
		minusT, _ := loss.Forward(logits, targets)
		logits.Data[i] = orig

		plus, _ := plusT.Item()
		minus, _ := minusT.Item()
		numerical := (plus - minus) / (2 * eps)
		if math.Abs(grad.Data[i]-numerical) > 1e-6 {
			t.Errorf("gradient %d: analytic %f vs numerical %f", i, grad.Data[i], numerical)
		}
	}
}

func TestBCEWithLogitsRejectsBadInput(t *testing.T) {
	if _, err := NewBCEWithLogitsLoss(0); err == nil {
		t.Error("expected error for non-positive pos_weight")
	}

	loss, _ := NewBCEWithLogitsLoss(1.0)
	logits, _ := tensor.Zeros([]int{2})
	badTargets, _ := tensor.New([]int{2}, []float64{0.5, 1})
	if _, err := loss.Forward(logits, badTargets); err == nil {
		t.Error("expected error for non-binary targets")
	}

	short, _ := tensor.Zeros([]int{1})
	if _, err := loss.Forward(logits, short); err == nil {
		t.Error("expected error for size mismatch")
	}
}
