package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sonomed/sonoclass/training"
)

// ChannelStats holds per-channel pixel statistics, used to configure the
// Normalize transform.
type ChannelStats struct {
	Mean []float64
	Std  []float64
}

// ComputeStats computes per-channel pixel mean and standard deviation over
// the dataset. Samples must share one shape, which holds once the resize
// transform is in the pipeline.
func ComputeStats(ds training.Dataset) (*ChannelStats, error) {
	n := ds.Len()
	if n == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	first, _, err := ds.Get(0)
	if err != nil {
		return nil, err
	}
	if len(first.Shape) != 3 {
		return nil, fmt.Errorf("expected CHW samples, got shape %v", first.Shape)
	}
	channels := first.Shape[0]
	plane := first.Shape[1] * first.Shape[2]

	// Per-image channel means of x and x^2; with uniform image sizes their
	// averages are the exact dataset moments.
	means := make([][]float64, channels)
	squares := make([][]float64, channels)
	for c := range means {
		means[c] = make([]float64, n)
		squares[c] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		sample, _, err := ds.Get(i)
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %d: %v", i, err)
		}
		if len(sample.Shape) != 3 || sample.Shape[0] != channels ||
			sample.Shape[1]*sample.Shape[2] != plane {
			return nil, fmt.Errorf("sample %d has shape %v, expected %v", i, sample.Shape, first.Shape)
		}

		for c := 0; c < channels; c++ {
			sum, sumSq := 0.0, 0.0
			for _, v := range sample.Data[c*plane : (c+1)*plane] {
				sum += v
				sumSq += v * v
			}
			means[c][i] = sum / float64(plane)
			squares[c][i] = sumSq / float64(plane)
		}
	}

	result := &ChannelStats{
		Mean: make([]float64, channels),
		Std:  make([]float64, channels),
	}
	for c := 0; c < channels; c++ {
		mean := stat.Mean(means[c], nil)
		meanSq := stat.Mean(squares[c], nil)

		variance := meanSq - mean*mean
		if variance < 0 {
			variance = 0
		}
		result.Mean[c] = mean
		result.Std[c] = math.Sqrt(variance)
	}
	return result, nil
}
