package training

import (
	"fmt"

	"github.com/sonomed/sonoclass/nn"
	"github.com/sonomed/sonoclass/tensor"
)

// Evaluator runs inference over a held-out split and computes binary
// classification metrics at a fixed decision threshold.
type Evaluator struct {
	threshold float64
}

// NewEvaluator creates an Evaluator. The threshold applies to the sigmoid
// of the model's logit output and must lie in (0, 1).
func NewEvaluator(threshold float64) (*Evaluator, error) {
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in (0, 1), got %f", threshold)
	}
	return &Evaluator{threshold: threshold}, nil
}

// Evaluate iterates the loader with the model in evaluation mode (no
// gradient bookkeeping) and returns the four-tuple of metrics. The model is
// left in evaluation mode; callers switch it back before further training.
func (e *Evaluator) Evaluate(model nn.Module, loader *DataLoader) (Metrics, error) {
	model.Eval()
	loader.Reset()

	acc := NewMetricAccumulator()

	for loader.HasNext() {
		batch, err := loader.Next()
		if err != nil {
			return Metrics{}, err
		}
		if batch == nil {
			break
		}

		output, err := model.Forward(batch.Data)
		if err != nil {
			return Metrics{}, fmt.Errorf("evaluation forward pass failed: %v", err)
		}

		probs := tensor.Sigmoid(output)
		predicted := make([]int, len(batch.Labels))
		for i := range predicted {
			if probs.Data[i] > e.threshold {
				predicted[i] = 1
			}
		}

		if err := acc.Update(predicted, batch.Labels); err != nil {
			return Metrics{}, err
		}
	}

	if acc.Total() == 0 {
		return Metrics{}, fmt.Errorf("evaluation data source produced no samples")
	}
	return acc.Metrics(), nil
}
