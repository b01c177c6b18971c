package training

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Metrics is the four-tuple produced by evaluating one fold. Every component
// lies in [0, 1].
type Metrics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

func (m Metrics) String() string {
	return fmt.Sprintf("accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f",
		m.Accuracy, m.Precision, m.Recall, m.F1)
}

// MetricAccumulator computes binary classification metrics from running
// prediction/label counts. Class 1 (malignant) is the positive class.
//
// Degenerate denominators have an explicit policy: precision is 0 when
// nothing was predicted positive, recall is 0 when no positives exist, and
// F1 is 0 when precision+recall is 0. No NaN ever escapes.
type MetricAccumulator struct {
	total             int // samples seen
	correct           int // predictions matching ground truth
	totalPositive     int // ground-truth positives
	predictedPositive int // predicted positives
	truePositive      int // predicted positive AND ground-truth positive
}

// NewMetricAccumulator creates an empty accumulator.
func NewMetricAccumulator() *MetricAccumulator {
	return &MetricAccumulator{}
}

// Reset clears all counters.
func (a *MetricAccumulator) Reset() {
	*a = MetricAccumulator{}
}

// Update feeds one batch of thresholded predictions and ground-truth labels.
// True positives require the prediction and the label to be positive for the
// same sample (elementwise AND, not any aggregate comparison).
func (a *MetricAccumulator) Update(predicted, labels []int) error {
	if len(predicted) != len(labels) {
		return fmt.Errorf("prediction/label length mismatch: %d vs %d", len(predicted), len(labels))
	}

	for i := range predicted {
		if predicted[i] != 0 && predicted[i] != 1 {
			return fmt.Errorf("prediction %d is %d, must be 0 or 1", i, predicted[i])
		}
		if labels[i] != 0 && labels[i] != 1 {
			return fmt.Errorf("label %d is %d, must be 0 or 1", i, labels[i])
		}

		a.total++
		if predicted[i] == labels[i] {
			a.correct++
		}
		if labels[i] == 1 {
			a.totalPositive++
		}
		if predicted[i] == 1 {
			a.predictedPositive++
			if labels[i] == 1 {
				a.truePositive++
			}
		}
	}
	return nil
}

// Total returns the number of samples seen.
func (a *MetricAccumulator) Total() int {
	return a.total
}

// Accuracy returns correct/total, or 0 for an empty accumulator.
func (a *MetricAccumulator) Accuracy() float64 {
	if a.total == 0 {
		return 0.0
	}
	return float64(a.correct) / float64(a.total)
}

// Precision returns truePositive/predictedPositive, or 0 when nothing was
// predicted positive.
func (a *MetricAccumulator) Precision() float64 {
	if a.predictedPositive == 0 {
		return 0.0
	}
	return float64(a.truePositive) / float64(a.predictedPositive)
}

// Recall returns truePositive/totalPositive, or 0 when the data contains no
// positives.
func (a *MetricAccumulator) Recall() float64 {
	if a.totalPositive == 0 {
		return 0.0
	}
	return float64(a.truePositive) / float64(a.totalPositive)
}

// F1 returns the harmonic mean of precision and recall, or 0 when both are 0.
func (a *MetricAccumulator) F1() float64 {
	precision := a.Precision()
	recall := a.Recall()
	if precision+recall == 0 {
		return 0.0
	}
	return 2 * precision * recall / (precision + recall)
}

// Metrics returns the four-tuple for the accumulated counts.
func (a *MetricAccumulator) Metrics() Metrics {
	return Metrics{
		Accuracy:  a.Accuracy(),
		Precision: a.Precision(),
		Recall:    a.Recall(),
		F1:        a.F1(),
	}
}

// AverageMetrics returns the arithmetic mean of each component across folds.
func AverageMetrics(results []Metrics) Metrics {
	if len(results) == 0 {
		return Metrics{}
	}

	accuracy := make([]float64, len(results))
	precision := make([]float64, len(results))
	recall := make([]float64, len(results))
	f1 := make([]float64, len(results))
	for i, m := range results {
		accuracy[i] = m.Accuracy
		precision[i] = m.Precision
		recall[i] = m.Recall
		f1[i] = m.F1
	}

	return Metrics{
		Accuracy:  stat.Mean(accuracy, nil),
		Precision: stat.Mean(precision, nil),
		Recall:    stat.Mean(recall, nil),
		F1:        stat.Mean(f1, nil),
	}
}
