package optimizer

import (
	"fmt"

	"github.com/sonomed/sonoclass/nn"
)

// SGD implements stochastic gradient descent with optional momentum,
// weight decay, dampening, and Nesterov momentum.
type SGD struct {
	parameters   []*nn.Parameter
	learningRate float64
	momentum     float64
	weightDecay  float64
	dampening    float64
	nesterov     bool
	velocities   [][]float64
}

// NewSGD creates a new SGD optimizer over the given parameters.
func NewSGD(parameters []*nn.Parameter, lr, momentum, weightDecay, dampening float64, nesterov bool) (*SGD, error) {
	if lr <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %f", lr)
	}
	if nesterov && (momentum <= 0 || dampening != 0) {
		return nil, fmt.Errorf("nesterov momentum requires momentum > 0 and zero dampening")
	}

	sgd := &SGD{
		parameters:   parameters,
		learningRate: lr,
		momentum:     momentum,
		weightDecay:  weightDecay,
		dampening:    dampening,
		nesterov:     nesterov,
	}

	if momentum > 0 {
		sgd.velocities = make([][]float64, len(parameters))
		for i, p := range parameters {
			sgd.velocities[i] = make([]float64, p.Data.NumElems)
		}
	}
	return sgd, nil
}

// Step performs a single optimization step.
func (sgd *SGD) Step() error {
	for i, param := range sgd.parameters {
		data := param.Data.Data
		grad := param.Grad.Data

		for j := range data {
			g := grad[j]

			if sgd.weightDecay > 0 {
				g += sgd.weightDecay * data[j]
			}

			if sgd.momentum > 0 {
				v := sgd.momentum*sgd.velocities[i][j] + (1-sgd.dampening)*g
				sgd.velocities[i][j] = v
				if sgd.nesterov {
					g += sgd.momentum * v
				} else {
					g = v
				}
			}

			data[j] -= sgd.learningRate * g
		}
	}
	return nil
}

// ZeroGrad resets all parameter gradients to zero.
func (sgd *SGD) ZeroGrad() {
	zeroGradAll(sgd.parameters)
}

// GetLR returns the current learning rate.
func (sgd *SGD) GetLR() float64 {
	return sgd.learningRate
}

// SetLR sets the learning rate.
func (sgd *SGD) SetLR(lr float64) {
	sgd.learningRate = lr
}
