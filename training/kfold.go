package training

import (
	"fmt"
	"math/rand"
)

// FoldSplit is one train/test partition of dataset indices.
type FoldSplit struct {
	Fold         int
	TrainIndices []int
	TestIndices  []int
}

// KFoldSplit partitions the index range [0, n) into k folds using a seeded
// shuffle. The test sets are pairwise disjoint and their union covers every
// index exactly once; each fold's training set is the complement of its
// test set.
func KFoldSplit(n, k int, seed int64) ([]FoldSplit, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", n, k)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	// The first n%k folds receive one extra test sample.
	splits := make([]FoldSplit, k)
	foldSize := n / k
	remainder := n % k

	start := 0
	for fold := 0; fold < k; fold++ {
		size := foldSize
		if fold < remainder {
			size++
		}
		end := start + size

		test := make([]int, size)
		copy(test, indices[start:end])

		train := make([]int, 0, n-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)

		splits[fold] = FoldSplit{
			Fold:         fold,
			TrainIndices: train,
			TestIndices:  test,
		}
		start = end
	}

	return splits, nil
}
