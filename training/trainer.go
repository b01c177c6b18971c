package training

import (
	"fmt"
	"time"

	"github.com/sonomed/sonoclass/nn"
	"github.com/sonomed/sonoclass/optimizer"
	"github.com/sonomed/sonoclass/tensor"
)

// Trainer runs forward/backward/optimizer-step cycles over a training split.
// It mutates the model, optimizer, and scheduler position; it keeps no
// metrics of its own.
type Trainer struct {
	model     nn.Module
	optimizer optimizer.Optimizer
	criterion nn.Loss
	scheduler LRScheduler
	config    Config

	globalStep int
}

// NewTrainer creates a new Trainer.
func NewTrainer(model nn.Module, opt optimizer.Optimizer, criterion nn.Loss, scheduler LRScheduler, config Config) *Trainer {
	return &Trainer{
		model:     model,
		optimizer: opt,
		criterion: criterion,
		scheduler: scheduler,
		config:    config,
	}
}

// Train runs the configured number of epochs over the loader. A non-negative
// fold tags every progress line with the fold number; pass a negative fold
// for the final full-dataset run.
//
// The scheduler advances once per batch, after the optimizer step; the cyclic
// policy cycles within epochs, not across them.
func (t *Trainer) Train(loader *DataLoader, fold int) error {
	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		if err := t.trainEpoch(loader, fold, epoch); err != nil {
			return fmt.Errorf("training epoch %d failed: %v", epoch, err)
		}
	}
	return nil
}

// trainEpoch runs one full pass over the data source.
func (t *Trainer) trainEpoch(loader *DataLoader, fold, epoch int) error {
	t.model.Train()
	loader.Reset()

	windowLoss := 0.0
	windowCount := 0
	batchIdx := 0
	lastLog := time.Now()

	for loader.HasNext() {
		batch, err := loader.Next()
		if err != nil {
			return err
		}
		if batch == nil {
			break
		}

		t.optimizer.ZeroGrad()

		output, err := t.model.Forward(batch.Data)
		if err != nil {
			return fmt.Errorf("forward pass failed: %v", err)
		}

		// Single-logit output: [batch, 1] -> [batch].
		logits, err := output.Reshape([]int{output.Shape[0]})
		if err != nil {
			return fmt.Errorf("unexpected model output shape %v: %v", output.Shape, err)
		}

		targets, err := castLabels(batch.Labels)
		if err != nil {
			return err
		}

		loss, err := t.criterion.Forward(logits, targets)
		if err != nil {
			return fmt.Errorf("loss computation failed: %v", err)
		}

		grad, err := t.criterion.Backward(logits, targets)
		if err != nil {
			return fmt.Errorf("loss gradient failed: %v", err)
		}
		gradOut, err := grad.Reshape(output.Shape)
		if err != nil {
			return err
		}
		if _, err := t.model.Backward(gradOut); err != nil {
			return fmt.Errorf("backward pass failed: %v", err)
		}

		if err := t.optimizer.Step(); err != nil {
			return fmt.Errorf("optimizer step failed: %v", err)
		}

		// Scheduler steps per batch, after the optimizer.
		t.globalStep++
		t.optimizer.SetLR(t.scheduler.GetLR(epoch, t.globalStep, t.config.BaseLR))

		lossValue, err := loss.Item()
		if err != nil {
			return err
		}
		windowLoss += lossValue
		windowCount++
		batchIdx++

		if windowCount == t.config.LogEvery {
			t.logProgress(fold, epoch, batchIdx, windowLoss, &lastLog)
			windowLoss = 0
			windowCount = 0
		}
	}

	// Tail of the epoch: fewer than LogEvery batches accumulated.
	if windowCount > 0 {
		t.logProgress(fold, epoch, batchIdx, windowLoss, &lastLog)
	}
	return nil
}

func (t *Trainer) logProgress(fold, epoch, batch int, loss float64, lastLog *time.Time) {
	elapsed := time.Since(*lastLog)
	*lastLog = time.Now()

	if fold >= 0 {
		fmt.Printf("Fold %d, Epoch %d, Batch %d: Loss=%.4f, Time=%v\n", fold, epoch, batch, loss, elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Epoch %d, Batch %d: Loss=%.4f, Time=%v\n", epoch, batch, loss, elapsed.Round(time.Millisecond))
	}
}

// GlobalStep returns the number of optimizer steps taken so far.
func (t *Trainer) GlobalStep() int {
	return t.globalStep
}

// castLabels converts integer class labels to the float targets the loss
// expects.
func castLabels(labels []int) (*tensor.Tensor, error) {
	data := make([]float64, len(labels))
	for i, l := range labels {
		if l != 0 && l != 1 {
			return nil, fmt.Errorf("label %d is %d, must be 0 or 1", i, l)
		}
		data[i] = float64(l)
	}
	return tensor.New([]int{len(labels)}, data)
}
