package optimizer

import (
	"fmt"
	"math"

	"github.com/sonomed/sonoclass/nn"
)

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates and L2 weight decay applied to the gradient.
type Adam struct {
	parameters   []*nn.Parameter
	learningRate float64
	beta1        float64
	beta2        float64
	epsilon      float64
	weightDecay  float64

	stepCount int
	m         [][]float64 // first moment estimates
	v         [][]float64 // second moment estimates
}

// NewAdam creates a new Adam optimizer with the standard defaults
// beta1=0.9, beta2=0.999, epsilon=1e-8.
func NewAdam(parameters []*nn.Parameter, lr, weightDecay float64) (*Adam, error) {
	return NewAdamWithBetas(parameters, lr, 0.9, 0.999, 1e-8, weightDecay)
}

// NewAdamWithBetas creates an Adam optimizer with explicit moment decay rates.
func NewAdamWithBetas(parameters []*nn.Parameter, lr, beta1, beta2, epsilon, weightDecay float64) (*Adam, error) {
	if lr <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %f", lr)
	}
	if beta1 < 0 || beta1 >= 1 || beta2 < 0 || beta2 >= 1 {
		return nil, fmt.Errorf("betas must be in [0, 1), got %f and %f", beta1, beta2)
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("epsilon must be positive, got %g", epsilon)
	}

	adam := &Adam{
		parameters:   parameters,
		learningRate: lr,
		beta1:        beta1,
		beta2:        beta2,
		epsilon:      epsilon,
		weightDecay:  weightDecay,
		m:            make([][]float64, len(parameters)),
		v:            make([][]float64, len(parameters)),
	}
	for i, p := range parameters {
		adam.m[i] = make([]float64, p.Data.NumElems)
		adam.v[i] = make([]float64, p.Data.NumElems)
	}
	return adam, nil
}

// Step performs a single optimization step.
func (adam *Adam) Step() error {
	adam.stepCount++
	biasCorrection1 := 1 - math.Pow(adam.beta1, float64(adam.stepCount))
	biasCorrection2 := 1 - math.Pow(adam.beta2, float64(adam.stepCount))

	for i, param := range adam.parameters {
		data := param.Data.Data
		grad := param.Grad.Data

		for j := range data {
			g := grad[j]
			if adam.weightDecay > 0 {
				g += adam.weightDecay * data[j]
			}

			adam.m[i][j] = adam.beta1*adam.m[i][j] + (1-adam.beta1)*g
			adam.v[i][j] = adam.beta2*adam.v[i][j] + (1-adam.beta2)*g*g

			mHat := adam.m[i][j] / biasCorrection1
			vHat := adam.v[i][j] / biasCorrection2

			data[j] -= adam.learningRate * mHat / (math.Sqrt(vHat) + adam.epsilon)
		}
	}
	return nil
}

// ZeroGrad resets all parameter gradients to zero.
func (adam *Adam) ZeroGrad() {
	zeroGradAll(adam.parameters)
}

// GetLR returns the current learning rate.
func (adam *Adam) GetLR() float64 {
	return adam.learningRate
}

// SetLR sets the learning rate.
func (adam *Adam) SetLR(lr float64) {
	adam.learningRate = lr
}

// StepCount returns the number of optimization steps taken.
func (adam *Adam) StepCount() int {
	return adam.stepCount
}
