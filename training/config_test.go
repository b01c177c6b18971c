package training

import (
	"testing"

	"github.com/sonomed/sonoclass/tensor"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"accelerator device", func(c *Config) { c.Device = tensor.Accelerator }},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"single fold", func(c *Config) { c.Folds = 1 }},
		{"zero base rate", func(c *Config) { c.BaseLR = 0 }},
		{"peak below base", func(c *Config) { c.MaxLR = c.BaseLR / 2 }},
		{"threshold at zero", func(c *Config) { c.Threshold = 0 }},
		{"threshold at one", func(c *Config) { c.Threshold = 1 }},
		{"zero log cadence", func(c *Config) { c.LogEvery = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
