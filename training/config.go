package training

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// Config holds the hyperparameters for training and cross-validation.
// It is resolved once at process start and passed to every component;
// nothing re-queries device or configuration state per call.
type Config struct {
	Device tensor.DeviceType

	Epochs    int // Full passes over the training split, per fold and for final training
	BatchSize int
	Folds     int
	Seed      int64

	BaseLR      float64 // Lower bound of the cyclic learning rate
	MaxLR       float64 // Upper bound of the cyclic learning rate
	CycleLength int     // Batches per half cycle of the cyclic policy
	WeightDecay float64

	Threshold float64 // Decision threshold on sigmoid output, in (0, 1)
	LogEvery  int     // Batches per progress log line
}

// DefaultConfig returns the configuration used by the ultrasound pipeline.
func DefaultConfig() Config {
	return Config{
		Device:      tensor.CPU,
		Epochs:      10,
		BatchSize:   16,
		Folds:       5,
		Seed:        42,
		BaseLR:      1e-4,
		MaxLR:       1e-2,
		CycleLength: 100,
		WeightDecay: 1e-4,
		Threshold:   0.5,
		LogEvery:    10,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Device != tensor.CPU {
		return fmt.Errorf("unsupported device %s: only CPU computation is available", c.Device)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Folds < 2 {
		return fmt.Errorf("need at least 2 folds, got %d", c.Folds)
	}
	if c.BaseLR <= 0 {
		return fmt.Errorf("base learning rate must be positive, got %f", c.BaseLR)
	}
	if c.MaxLR < c.BaseLR {
		return fmt.Errorf("max learning rate %f below base %f", c.MaxLR, c.BaseLR)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0, 1), got %f", c.Threshold)
	}
	if c.LogEvery <= 0 {
		return fmt.Errorf("log cadence must be positive, got %d", c.LogEvery)
	}
	return nil
}
