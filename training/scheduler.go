package training

import (
	"math"
)

// LRScheduler defines the interface for learning rate scheduling strategies.
// Schedulers are pure functions of the training position; the Trainer applies
// them once per batch, which is what the cyclic policy requires.
type LRScheduler interface {
	// GetLR returns the learning rate for the current epoch/step.
	GetLR(epoch int, step int, baseLR float64) float64

	// GetName returns the scheduler name for logging.
	GetName() string
}

// CyclicLR implements the triangular cyclic learning rate policy: the rate
// climbs linearly from the base rate to MaxLR over StepSize batches, then
// descends back, repeating. Step counts are global across epochs.
type CyclicLR struct {
	MaxLR    float64 // Peak learning rate
	StepSize int     // Batches per half cycle
}

// NewCyclicLR creates a triangular cyclic scheduler.
func NewCyclicLR(maxLR float64, stepSize int) *CyclicLR {
	if stepSize <= 0 {
		stepSize = 2000
	}
	return &CyclicLR{
		MaxLR:    maxLR,
		StepSize: stepSize,
	}
}

func (s *CyclicLR) GetLR(epoch int, step int, baseLR float64) float64 {
	if s.MaxLR <= baseLR {
		return baseLR
	}

	cycle := math.Floor(1 + float64(step)/float64(2*s.StepSize))
	x := math.Abs(float64(step)/float64(s.StepSize) - 2*cycle + 1)
	return baseLR + (s.MaxLR-baseLR)*math.Max(0, 1-x)
}

func (s *CyclicLR) GetName() string {
	return "CyclicLR"
}

// StepLR reduces the learning rate by a factor every stepSize epochs.
type StepLR struct {
	StepSize int     // Epochs between reductions
	Gamma    float64 // Multiplicative decay factor
}

// NewStepLR creates a step learning rate scheduler.
func NewStepLR(stepSize int, gamma float64) *StepLR {
	if stepSize <= 0 {
		stepSize = 30
	}
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.1
	}
	return &StepLR{
		StepSize: stepSize,
		Gamma:    gamma,
	}
}

func (s *StepLR) GetLR(epoch int, step int, baseLR float64) float64 {
	times := epoch / s.StepSize
	return baseLR * math.Pow(s.Gamma, float64(times))
}

func (s *StepLR) GetName() string {
	return "StepLR"
}

// ConstantLR maintains a constant learning rate.
type ConstantLR struct{}

func (s *ConstantLR) GetLR(epoch int, step int, baseLR float64) float64 {
	return baseLR
}

func (s *ConstantLR) GetName() string {
	return "ConstantLR"
}
