package training

import (
	"fmt"
	"math/rand"

	"github.com/sonomed/sonoclass/tensor"
)

// Dataset interface defines methods that all datasets must implement.
type Dataset interface {
	Len() int                                 // Total number of samples
	Get(idx int) (*tensor.Tensor, int, error) // Returns a single sample and its binary label
}

// PhaseSwitcher is implemented by datasets whose transform pipeline differs
// between training and evaluation. The transform is swapped wholesale: after
// a call, every sample the dataset produces uses the new pipeline.
type PhaseSwitcher interface {
	TrainPhase()
	EvalPhase()
}

// SubsetDataset restricts an underlying dataset to an arbitrary index subset.
type SubsetDataset struct {
	original Dataset
	indices  []int
}

// NewSubsetDataset creates a view of the original dataset containing only
// the given indices, in order.
func NewSubsetDataset(original Dataset, indices []int) (*SubsetDataset, error) {
	n := original.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("index %d out of range for dataset of %d samples", idx, n)
		}
	}
	return &SubsetDataset{
		original: original,
		indices:  indices,
	}, nil
}

// Len returns the number of samples in the subset.
func (sd *SubsetDataset) Len() int {
	return len(sd.indices)
}

// Get returns the sample at the given position within the subset.
func (sd *SubsetDataset) Get(idx int) (*tensor.Tensor, int, error) {
	if idx < 0 || idx >= len(sd.indices) {
		return nil, 0, fmt.Errorf("index out of bounds for subset: %d (size %d)", idx, len(sd.indices))
	}
	return sd.original.Get(sd.indices[idx])
}

// Batch represents a batch of stacked sample tensors and their labels.
type Batch struct {
	Data   *tensor.Tensor
	Labels []int
}

// DataLoader provides batching and per-epoch shuffling over a dataset.
// Batches are delivered synchronously and in order; Reset starts a new
// epoch and reshuffles when shuffling is enabled.
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
}

// NewDataLoader creates a new DataLoader. The seed makes the per-epoch
// shuffle deterministic.
func NewDataLoader(dataset Dataset, batchSize int, shuffle bool, seed int64) (*DataLoader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, dataset.Len())
	for i := range indices {
		indices[i] = i
	}

	return &DataLoader{
		dataset:   dataset,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
	}, nil
}

// Len returns the number of batches in an epoch.
func (dl *DataLoader) Len() int {
	return (dl.dataset.Len() + dl.batchSize - 1) / dl.batchSize
}

// Reset resets the data loader for a new epoch.
func (dl *DataLoader) Reset() {
	dl.position = 0
	if dl.shuffle {
		dl.rng.Shuffle(len(dl.indices), func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
}

// HasNext returns true if there are more batches in the current epoch.
func (dl *DataLoader) HasNext() bool {
	return dl.position < len(dl.indices)
}

// Next returns the next batch, or nil once the epoch is complete.
func (dl *DataLoader) Next() (*Batch, error) {
	if dl.position >= len(dl.indices) {
		return nil, nil
	}

	batchEnd := dl.position + dl.batchSize
	if batchEnd > len(dl.indices) {
		batchEnd = len(dl.indices)
	}
	batchIndices := dl.indices[dl.position:batchEnd]
	dl.position = batchEnd

	batch, err := dl.loadBatch(batchIndices)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %v", err)
	}
	return batch, nil
}

// loadBatch loads samples and stacks them into a single batched tensor.
func (dl *DataLoader) loadBatch(indices []int) (*Batch, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("empty batch indices")
	}

	first, firstLabel, err := dl.dataset.Get(indices[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load sample %d: %v", indices[0], err)
	}

	batchShape := append([]int{len(indices)}, first.Shape...)
	data, err := tensor.Zeros(batchShape)
	if err != nil {
		return nil, err
	}

	sampleSize := first.NumElems
	copy(data.Data[:sampleSize], first.Data)
	labels := make([]int, len(indices))
	labels[0] = firstLabel

	for i := 1; i < len(indices); i++ {
		sample, label, err := dl.dataset.Get(indices[i])
		if err != nil {
			return nil, fmt.Errorf("failed to load sample %d: %v", indices[i], err)
		}
		if sample.NumElems != sampleSize {
			return nil, fmt.Errorf("sample %d has %d elements, expected %d", indices[i], sample.NumElems, sampleSize)
		}
		copy(data.Data[i*sampleSize:(i+1)*sampleSize], sample.Data)
		labels[i] = label
	}

	return &Batch{Data: data, Labels: labels}, nil
}
