package transform

// Pipelines builds the training and evaluation transform pairs used by the
// ultrasound pipeline. Both resize and standardize; the training pipeline
// additionally applies seeded flip and quarter-turn augmentation.
func Pipelines(size int, mean, std []float64, seed int64) (train, eval Transform, err error) {
	resize, err := NewResize(size, size)
	if err != nil {
		return nil, nil, err
	}
	normalize, err := NewNormalize(mean, std)
	if err != nil {
		return nil, nil, err
	}
	flip, err := NewRandomHorizontalFlip(0.5, seed)
	if err != nil {
		return nil, nil, err
	}

	train = NewCompose(resize, flip, NewRandomRotation90(seed+1), NewGrayscale3(), normalize)
	eval = NewCompose(resize, NewGrayscale3(), normalize)
	return train, eval, nil
}
