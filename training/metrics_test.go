package training

import (
	"math"
	"testing"
)

func TestAccumulatorBasicCounts(t *testing.T) {
	acc := NewMetricAccumulator()

	// 8 correct out of 10; 4 true positives, 5 predicted positive,
	// 5 actual positives.
	predicted := []int{1, 1, 1, 1, 1, 0, 0, 0, 0, 0}
	labels := []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 1}
	if err := acc.Update(predicted, labels); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if got := acc.Accuracy(); got != 0.8 {
		t.Errorf("accuracy: expected 0.8, got %f", got)
	}
	if got := acc.Precision(); got != 0.8 {
		t.Errorf("precision: expected 0.8, got %f", got)
	}
	if got := acc.Recall(); got != 0.8 {
		t.Errorf("recall: expected 0.8, got %f", got)
	}
	if got := acc.F1(); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("f1: expected 0.8, got %f", got)
	}
}

func TestTruePositiveRequiresBothPositive(t *testing.T) {
	acc := NewMetricAccumulator()

	// One positive prediction and one positive label, on different samples.
	// No sample is predicted positive AND labeled positive.
	if err := acc.Update([]int{1, 0}, []int{0, 1}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if got := acc.Precision(); got != 0.0 {
		t.Errorf("precision: expected 0, got %f", got)
	}
	if got := acc.Recall(); got != 0.0 {
		t.Errorf("recall: expected 0, got %f", got)
	}
	if got := acc.Accuracy(); got != 0.0 {
		t.Errorf("accuracy: expected 0, got %f", got)
	}
}

func TestDegenerateDenominators(t *testing.T) {
	// Nothing predicted positive: precision is 0, not NaN.
	acc := NewMetricAccumulator()
	if err := acc.Update([]int{0, 0, 0}, []int{1, 0, 1}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := acc.Precision(); got != 0.0 {
		t.Errorf("precision with no positive predictions: expected 0, got %f", got)
	}
	if got := acc.F1(); got != 0.0 {
		t.Errorf("f1 with zero precision and recall: expected 0, got %f", got)
	}

	// No positive labels: recall is 0, not NaN.
	acc.Reset()
	if err := acc.Update([]int{1, 0}, []int{0, 0}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := acc.Recall(); got != 0.0 {
		t.Errorf("recall with no positive labels: expected 0, got %f", got)
	}

	// Empty accumulator: every metric is 0.
	acc.Reset()
	m := acc.Metrics()
	if m.Accuracy != 0 || m.Precision != 0 || m.Recall != 0 || m.F1 != 0 {
		t.Errorf("empty accumulator produced nonzero metrics: %+v", m)
	}
}

func TestNoMetricIsNaN(t *testing.T) {
	cases := [][2][]int{
		{{0, 0}, {0, 0}},
		{{1, 1}, {0, 0}},
		{{0, 0}, {1, 1}},
		{{1, 1}, {1, 1}},
	}
	for _, c := range cases {
		acc := NewMetricAccumulator()
		if err := acc.Update(c[0], c[1]); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		m := acc.Metrics()
		for name, v := range map[string]float64{
			"accuracy": m.Accuracy, "precision": m.Precision,
			"recall": m.Recall, "f1": m.F1,
		} {
			if math.IsNaN(v) || v < 0 || v > 1 {
				t.Errorf("predicted=%v labels=%v: %s = %f out of range", c[0], c[1], name, v)
			}
		}
	}
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	acc := NewMetricAccumulator()

	if err := acc.Update([]int{1, 0}, []int{1}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if err := acc.Update([]int{2}, []int{1}); err == nil {
		t.Error("expected error for non-binary prediction")
	}
	if err := acc.Update([]int{1}, []int{-1}); err == nil {
		t.Error("expected error for non-binary label")
	}
}

func TestUpdateAccumulatesAcrossBatches(t *testing.T) {
	acc := NewMetricAccumulator()
	if err := acc.Update([]int{1, 0}, []int{1, 0}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := acc.Update([]int{0, 1}, []int{1, 1}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if acc.Total() != 4 {
		t.Errorf("total: expected 4, got %d", acc.Total())
	}
	if got := acc.Accuracy(); got != 0.75 {
		t.Errorf("accuracy: expected 0.75, got %f", got)
	}
	// 2 true positives over 2 predicted positives and 3 actual positives.
	if got := acc.Precision(); got != 1.0 {
		t.Errorf("precision: expected 1.0, got %f", got)
	}
	if got := acc.Recall(); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("recall: expected 2/3, got %f", got)
	}
}

func TestAverageMetrics(t *testing.T) {
	results := []Metrics{
		{Accuracy: 0.8, Precision: 0.6, Recall: 1.0, F1: 0.75},
		{Accuracy: 0.6, Precision: 0.8, Recall: 0.5, F1: 0.25},
	}

	avg := AverageMetrics(results)
	if math.Abs(avg.Accuracy-0.7) > 1e-12 {
		t.Errorf("accuracy: expected 0.7, got %f", avg.Accuracy)
	}
	if math.Abs(avg.Precision-0.7) > 1e-12 {
		t.Errorf("precision: expected 0.7, got %f", avg.Precision)
	}
	if math.Abs(avg.Recall-0.75) > 1e-12 {
		t.Errorf("recall: expected 0.75, got %f", avg.Recall)
	}
	if math.Abs(avg.F1-0.5) > 1e-12 {
		t.Errorf("f1: expected 0.5, got %f", avg.F1)
	}
}

func TestAverageMetricsEmpty(t *testing.T) {
	avg := AverageMetrics(nil)
	if avg != (Metrics{}) {
		t.Errorf("expected zero metrics for empty input, got %+v", avg)
	}
}
