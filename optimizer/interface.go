// Package optimizer provides gradient-descent parameter update rules.
//
// Optimizers own mutable per-parameter state (momentum, moment estimates)
// and must be constructed fresh for every training run; reusing an instance
// across cross-validation folds leaks state between folds.
package optimizer

import (
	"github.com/sonomed/sonoclass/nn"
)

// Optimizer interface defines the methods that all optimizers must implement.
type Optimizer interface {
	// Step updates model parameters based on their accumulated gradients.
	Step() error
	// ZeroGrad resets gradients to zero for all parameters.
	ZeroGrad()
	// GetLR gets the current learning rate.
	GetLR() float64
	// SetLR sets the learning rate.
	SetLR(lr float64)
}

func zeroGradAll(parameters []*nn.Parameter) {
	for _, p := range parameters {
		p.ZeroGrad()
	}
}
