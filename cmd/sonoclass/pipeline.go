package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/sonomed/sonoclass/model"
	"github.com/sonomed/sonoclass/nn"
	"github.com/sonomed/sonoclass/training"
	"github.com/sonomed/sonoclass/vision/dataset"
	"github.com/sonomed/sonoclass/vision/transform"
)

var (
	epochs         int
	batchSize      int
	folds          int
	seed           int64
	baseLR         float64
	maxLR          float64
	cycleLength    int
	weightDecay    float64
	threshold      float64
	posWeightScale float64
	pretrainedPath string
)

// addTrainingFlags registers the hyperparameter flags shared by the
// crossval and train commands.
func addTrainingFlags(flags *pflag.FlagSet) {
	defaults := training.DefaultConfig()
	flags.IntVar(&epochs, "epochs", defaults.Epochs, "epochs per fold and for final training")
	flags.IntVar(&batchSize, "batch-size", defaults.BatchSize, "training batch size")
	flags.IntVar(&folds, "folds", defaults.Folds, "number of cross-validation folds")
	flags.Int64Var(&seed, "seed", defaults.Seed, "shuffle seed")
	flags.Float64Var(&baseLR, "base-lr", defaults.BaseLR, "lower bound of the cyclic learning rate")
	flags.Float64Var(&maxLR, "max-lr", defaults.MaxLR, "upper bound of the cyclic learning rate")
	flags.IntVar(&cycleLength, "cycle", defaults.CycleLength, "batches per half cycle of the cyclic policy")
	flags.Float64Var(&weightDecay, "weight-decay", defaults.WeightDecay, "optimizer weight decay")
	flags.Float64Var(&threshold, "threshold", defaults.Threshold, "decision threshold on sigmoid output")
	flags.Float64Var(&posWeightScale, "pos-weight-scale", 1.0, "scale factor on the benign/malignant loss weight ratio")
	flags.StringVar(&pretrainedPath, "pretrained", "", "checkpoint with pretrained starting weights")
}

func buildConfig() training.Config {
	config := training.DefaultConfig()
	config.Epochs = epochs
	config.BatchSize = batchSize
	config.Folds = folds
	config.Seed = seed
	config.BaseLR = baseLR
	config.MaxLR = maxLR
	config.CycleLength = cycleLength
	config.WeightDecay = weightDecay
	config.Threshold = threshold
	return config
}

// buildDataset computes normalization statistics over the resized images
// and assembles the dataset with its training and evaluation pipelines.
func buildDataset(config training.Config) (*dataset.UltrasoundDataset, error) {
	resize, err := transform.NewResize(imageSize, imageSize)
	if err != nil {
		return nil, err
	}

	raw, err := dataset.NewUltrasoundDataset(dataDir, resize, resize)
	if err != nil {
		return nil, err
	}
	fmt.Println(raw)

	stats, err := dataset.ComputeStats(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dataset statistics: %v", err)
	}

	train, eval, err := transform.Pipelines(imageSize, stats.Mean, stats.Std, config.Seed)
	if err != nil {
		return nil, err
	}

	ds, err := dataset.NewUltrasoundDataset(dataDir, train, eval)
	if err != nil {
		return nil, err
	}
	ds.EnableCache(ds.Len())
	return ds, nil
}

// buildValidator assembles the model, loss and cross-validator.
func buildValidator(config training.Config, ds *dataset.UltrasoundDataset) (*training.CrossValidator, error) {
	nn.SetRandomSeed(uint64(config.Seed))

	net, err := model.NewSonoNet(3)
	if err != nil {
		return nil, err
	}
	if pretrainedPath != "" {
		if err := net.LoadPretrained(pretrainedPath); err != nil {
			return nil, err
		}
		fmt.Printf("Loaded pretrained weights from %s\n", pretrainedPath)
	}

	posWeight, err := ds.PosWeight(posWeightScale)
	if err != nil {
		return nil, err
	}
	criterion, err := nn.NewBCEWithLogitsLoss(posWeight)
	if err != nil {
		return nil, err
	}

	return training.NewCrossValidator(net, criterion, config,
		training.AdamFactory(config), training.CyclicFactory(config))
}
