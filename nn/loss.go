package nn

import (
	"fmt"
	"math"

	"github.com/sonomed/sonoclass/tensor"
)

// Loss interface defines methods that all loss functions must implement.
// Forward returns the scalar loss; Backward returns the gradient of the loss
// with respect to the predictions.
type Loss interface {
	Forward(predicted, target *tensor.Tensor) (*tensor.Tensor, error)
	Backward(predicted, target *tensor.Tensor) (*tensor.Tensor, error)
}

// BCEWithLogitsLoss combines a sigmoid with binary cross-entropy in a
// numerically stable form. PosWeight scales the positive-class term to
// counter class imbalance; 1 means unweighted.
//
//	l = pos_weight*y*softplus(-z) + (1-y)*softplus(z), averaged over the batch
type BCEWithLogitsLoss struct {
	PosWeight float64
}

// NewBCEWithLogitsLoss creates a weighted binary cross-entropy loss on logits.
func NewBCEWithLogitsLoss(posWeight float64) (*BCEWithLogitsLoss, error) {
	if posWeight <= 0 {
		return nil, fmt.Errorf("positive class weight must be positive, got %f", posWeight)
	}
	return &BCEWithLogitsLoss{PosWeight: posWeight}, nil
}

// softplus computes log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

func (bce *BCEWithLogitsLoss) check(predicted, target *tensor.Tensor) error {
	if predicted.NumElems != target.NumElems {
		return fmt.Errorf("predicted and target sizes differ: %d vs %d", predicted.NumElems, target.NumElems)
	}
	for i, y := range target.Data {
		if y != 0 && y != 1 {
			return fmt.Errorf("target %d is %f, binary labels must be 0 or 1", i, y)
		}
	}
	return nil
}

// Forward computes the mean weighted BCE loss over the batch.
func (bce *BCEWithLogitsLoss) Forward(predicted, target *tensor.Tensor) (*tensor.Tensor, error) {
	if err := bce.check(predicted, target); err != nil {
		return nil, err
	}

	total := 0.0
	for i, z := range predicted.Data {
		y := target.Data[i]
		total += bce.PosWeight*y*softplus(-z) + (1-y)*softplus(z)
	}
	return tensor.FromScalar(total / float64(predicted.NumElems)), nil
}

// Backward computes dl/dz for every logit.
func (bce *BCEWithLogitsLoss) Backward(predicted, target *tensor.Tensor) (*tensor.Tensor, error) {
	if err := bce.check(predicted, target); err != nil {
		return nil, err
	}

	grad, err := tensor.Zeros(predicted.Shape)
	if err != nil {
		return nil, err
	}

	n := float64(predicted.NumElems)
	for i, z := range predicted.Data {
		y := target.Data[i]
		sig := 1.0 / (1.0 + math.Exp(-z))
		grad.Data[i] = (bce.PosWeight*y*(sig-1) + (1-y)*sig) / n
	}
	return grad, nil
}
