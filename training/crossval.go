package training

import (
	"fmt"

	"github.com/sonomed/sonoclass/checkpoints"
	"github.com/sonomed/sonoclass/nn"
	"github.com/sonomed/sonoclass/optimizer"
)

// OptimizerFactory builds a fresh optimizer over the given parameters.
// Cross-validation calls it once per fold so that no momentum or moment
// state leaks between folds.
type OptimizerFactory func(params []*nn.Parameter) (optimizer.Optimizer, error)

// SchedulerFactory builds a fresh learning-rate scheduler per fold.
type SchedulerFactory func() LRScheduler

// AdamFactory returns a factory producing Adam optimizers configured from c.
func AdamFactory(c Config) OptimizerFactory {
	return func(params []*nn.Parameter) (optimizer.Optimizer, error) {
		return optimizer.NewAdam(params, c.BaseLR, c.WeightDecay)
	}
}

// SGDFactory returns a factory producing momentum SGD optimizers configured
// from c.
func SGDFactory(c Config) OptimizerFactory {
	return func(params []*nn.Parameter) (optimizer.Optimizer, error) {
		return optimizer.NewSGD(params, c.BaseLR, 0.9, c.WeightDecay, 0, false)
	}
}

// CyclicFactory returns a factory producing cyclic schedulers configured
// from c.
func CyclicFactory(c Config) SchedulerFactory {
	return func() LRScheduler {
		return NewCyclicLR(c.MaxLR, c.CycleLength)
	}
}

// FoldResult is the metric tuple produced by one fold.
type FoldResult struct {
	Fold    int
	Metrics Metrics
}

// Result aggregates per-fold metrics and their arithmetic mean.
type Result struct {
	Folds   []FoldResult
	Summary Metrics
}

// CrossValidator orchestrates k-fold cross-validation: it partitions the
// dataset, resets the model to its initial snapshot before every fold,
// trains with fresh optimizer/scheduler instances, evaluates the held-out
// split, and averages metrics across folds.
//
// The validator owns the model's initial-state snapshot; it is captured once
// at construction and never modified afterwards.
type CrossValidator struct {
	model     nn.Module
	criterion nn.Loss
	config    Config

	newOptimizer OptimizerFactory
	newScheduler SchedulerFactory

	snapshot nn.Snapshot
}

// NewCrossValidator creates a CrossValidator and captures the model's
// initial parameter snapshot.
func NewCrossValidator(model nn.Module, criterion nn.Loss, config Config, newOptimizer OptimizerFactory, newScheduler SchedulerFactory) (*CrossValidator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	if newOptimizer == nil || newScheduler == nil {
		return nil, fmt.Errorf("optimizer and scheduler factories are required")
	}

	snapshot, err := nn.Capture(model)
	if err != nil {
		return nil, fmt.Errorf("failed to capture initial snapshot: %v", err)
	}

	return &CrossValidator{
		model:        model,
		criterion:    criterion,
		config:       config,
		newOptimizer: newOptimizer,
		newScheduler: newScheduler,
		snapshot:     snapshot,
	}, nil
}

// Snapshot exposes the captured initial state.
func (cv *CrossValidator) Snapshot() nn.Snapshot {
	return cv.snapshot
}

// Run performs k-fold cross-validation over the dataset and returns the
// per-fold metric tuples together with their average.
func (cv *CrossValidator) Run(dataset Dataset) (*Result, error) {
	splits, err := KFoldSplit(dataset.Len(), cv.config.Folds, cv.config.Seed)
	if err != nil {
		return nil, err
	}

	evaluator, err := NewEvaluator(cv.config.Threshold)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	for _, split := range splits {
		metrics, err := cv.runFold(dataset, split, evaluator)
		if err != nil {
			return nil, fmt.Errorf("fold %d failed: %v", split.Fold, err)
		}

		fmt.Printf("Fold %d: %s\n", split.Fold, metrics)
		result.Folds = append(result.Folds, FoldResult{Fold: split.Fold, Metrics: metrics})
	}

	fold := make([]Metrics, len(result.Folds))
	for i, fr := range result.Folds {
		fold[i] = fr.Metrics
	}
	result.Summary = AverageMetrics(fold)
	fmt.Printf("Cross-validation summary (%d folds): %s\n", cv.config.Folds, result.Summary)

	return result, nil
}

// runFold executes the reset/train/evaluate cycle for one fold.
func (cv *CrossValidator) runFold(dataset Dataset, split FoldSplit, evaluator *Evaluator) (Metrics, error) {
	// Discard anything a prior fold learned.
	if err := cv.snapshot.Restore(cv.model); err != nil {
		return Metrics{}, fmt.Errorf("failed to reset model: %v", err)
	}

	if ps, ok := dataset.(PhaseSwitcher); ok {
		ps.TrainPhase()
	}

	trainSet, err := NewSubsetDataset(dataset, split.TrainIndices)
	if err != nil {
		return Metrics{}, err
	}
	trainLoader, err := NewDataLoader(trainSet, cv.config.BatchSize, true, cv.config.Seed+int64(split.Fold)+1)
	if err != nil {
		return Metrics{}, err
	}

	opt, err := cv.newOptimizer(cv.model.Parameters())
	if err != nil {
		return Metrics{}, fmt.Errorf("failed to create optimizer: %v", err)
	}
	trainer := NewTrainer(cv.model, opt, cv.criterion, cv.newScheduler(), cv.config)

	if err := trainer.Train(trainLoader, split.Fold); err != nil {
		return Metrics{}, err
	}

	if ps, ok := dataset.(PhaseSwitcher); ok {
		ps.EvalPhase()
	}

	testSet, err := NewSubsetDataset(dataset, split.TestIndices)
	if err != nil {
		return Metrics{}, err
	}
	testLoader, err := NewDataLoader(testSet, cv.config.BatchSize, false, cv.config.Seed)
	if err != nil {
		return Metrics{}, err
	}

	return evaluator.Evaluate(cv.model, testLoader)
}

// TrainFinal resets the model to the initial snapshot, trains once on the
// complete dataset with training-time transforms, and persists the final
// weights to path. Cross-validation has already estimated generalization
// performance, so there is no evaluation phase.
func (cv *CrossValidator) TrainFinal(dataset Dataset, path string) error {
	if err := cv.snapshot.Restore(cv.model); err != nil {
		return fmt.Errorf("failed to reset model: %v", err)
	}

	if ps, ok := dataset.(PhaseSwitcher); ok {
		ps.TrainPhase()
	}

	loader, err := NewDataLoader(dataset, cv.config.BatchSize, true, cv.config.Seed)
	if err != nil {
		return err
	}

	opt, err := cv.newOptimizer(cv.model.Parameters())
	if err != nil {
		return fmt.Errorf("failed to create optimizer: %v", err)
	}
	trainer := NewTrainer(cv.model, opt, cv.criterion, cv.newScheduler(), cv.config)

	if err := trainer.Train(loader, -1); err != nil {
		return err
	}

	if err := checkpoints.SaveModel(path, cv.model, "final full-dataset training"); err != nil {
		return fmt.Errorf("failed to persist final weights: %v", err)
	}
	fmt.Printf("Final weights saved to %s\n", path)
	return nil
}
