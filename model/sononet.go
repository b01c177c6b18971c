package model

import (
	"fmt"

	"github.com/sonomed/sonoclass/checkpoints"
	"github.com/sonomed/sonoclass/nn"
)

// SonoNet is the compact convolutional backbone for binary tumor
// classification. Three conv/pool stages feed a global average pool and a
// single-logit head; the logit goes through sigmoid+threshold at evaluation
// time and straight into BCEWithLogitsLoss during training.
type SonoNet struct {
	*nn.Sequential
	inChannels int
}

// NewSonoNet builds the network for the given number of input channels
// (3 for the RGB-replicated grayscale pipeline).
func NewSonoNet(inChannels int) (*SonoNet, error) {
	if inChannels <= 0 {
		return nil, fmt.Errorf("input channels must be positive, got %d", inChannels)
	}

	conv1, err := nn.NewConv2D("conv1", inChannels, 16, 3, 3, 1)
	if err != nil {
		return nil, err
	}
	pool1, err := nn.NewMaxPool2D(2)
	if err != nil {
		return nil, err
	}
	conv2, err := nn.NewConv2D("conv2", 16, 32, 3, 3, 1)
	if err != nil {
		return nil, err
	}
	pool2, err := nn.NewMaxPool2D(2)
	if err != nil {
		return nil, err
	}
	conv3, err := nn.NewConv2D("conv3", 32, 64, 3, 3, 1)
	if err != nil {
		return nil, err
	}
	dropout, err := nn.NewDropout(0.25)
	if err != nil {
		return nil, err
	}
	head, err := nn.NewLinear("head", 64, 1, true)
	if err != nil {
		return nil, err
	}

	seq := nn.NewSequential(
		conv1, nn.NewReLU(), pool1,
		conv2, nn.NewReLU(), pool2,
		conv3, nn.NewReLU(), nn.NewGlobalAvgPool(),
		dropout, head,
	)
	return &SonoNet{Sequential: seq, inChannels: inChannels}, nil
}

// InChannels returns the expected number of input channels.
func (m *SonoNet) InChannels() int {
	return m.inChannels
}

// LoadPretrained replaces the parameters with the weights stored at path.
func (m *SonoNet) LoadPretrained(path string) error {
	if err := checkpoints.LoadModel(path, m); err != nil {
		return fmt.Errorf("failed to load pretrained weights: %v", err)
	}
	return nil
}

// Save persists the current parameters to path.
func (m *SonoNet) Save(path, description string) error {
	return checkpoints.SaveModel(path, m, description)
}
