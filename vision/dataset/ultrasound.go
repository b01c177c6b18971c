package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sonomed/sonoclass/tensor"
	"github.com/sonomed/sonoclass/vision/transform"
)

// Class labels follow the directory layout: benign maps to 0, malignant
// to 1. Malignant is the positive class everywhere in the pipeline.
const (
	LabelBenign    = 0
	LabelMalignant = 1
)

var classNames = []string{"benign", "malignant"}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// UltrasoundDataset serves tumor ultrasound images from a directory with
// benign/ and malignant/ subdirectories. All samples share one active
// transform; TrainPhase and EvalPhase swap it wholesale between the
// training and evaluation pipelines.
type UltrasoundDataset struct {
	imagePaths []string
	labels     []int

	trainTransform transform.Transform
	evalTransform  transform.Transform
	active         transform.Transform

	cache *decodeCache
}

// NewUltrasoundDataset scans root for images. The evaluation transform is
// active initially.
func NewUltrasoundDataset(root string, train, eval transform.Transform) (*UltrasoundDataset, error) {
	d := &UltrasoundDataset{
		trainTransform: train,
		evalTransform:  eval,
		active:         eval,
	}

	for label, class := range classNames {
		classDir := filepath.Join(root, class)
		info, err := os.Stat(classDir)
		if err != nil {
			return nil, fmt.Errorf("class directory %s: %v", classDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", classDir)
		}

		for _, ext := range imageExtensions {
			files, err := filepath.Glob(filepath.Join(classDir, "*"+ext))
			if err != nil {
				continue
			}
			for _, file := range files {
				d.imagePaths = append(d.imagePaths, file)
				d.labels = append(d.labels, label)
			}
		}
	}

	if len(d.imagePaths) == 0 {
		return nil, fmt.Errorf("no images found in %s", root)
	}
	return d, nil
}

// Len returns the number of samples.
func (d *UltrasoundDataset) Len() int {
	return len(d.imagePaths)
}

// Get decodes the image at idx and runs it through the active transform.
func (d *UltrasoundDataset) Get(idx int) (*tensor.Tensor, int, error) {
	if idx < 0 || idx >= len(d.imagePaths) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.imagePaths))
	}

	img, err := d.decode(d.imagePaths[idx])
	if err != nil {
		return nil, 0, err
	}

	if d.active != nil {
		img, err = d.active.Apply(img)
		if err != nil {
			return nil, 0, fmt.Errorf("transform failed for %s: %v", d.imagePaths[idx], err)
		}
	}
	return img, d.labels[idx], nil
}

// decode reads and decodes one image, consulting the cache when enabled.
func (d *UltrasoundDataset) decode(path string) (*tensor.Tensor, error) {
	if d.cache != nil {
		if img, ok := d.cache.get(path); ok {
			return img, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer file.Close()

	img, err := transform.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %v", path, err)
	}

	if d.cache != nil {
		d.cache.put(path, img)
	}
	return img, nil
}

// EnableCache caches up to maxItems decoded images so repeated epochs skip
// the decode step. Transforms copy before writing, so cached tensors stay
// pristine.
func (d *UltrasoundDataset) EnableCache(maxItems int) {
	if maxItems <= 0 {
		d.cache = nil
		return
	}
	d.cache = newDecodeCache(maxItems)
}

// CacheStats reports decode cache effectiveness; zero-valued when the cache
// is disabled.
func (d *UltrasoundDataset) CacheStats() CacheStats {
	if d.cache == nil {
		return CacheStats{}
	}
	return d.cache.stats()
}

// TrainPhase activates the training transform for every sample.
func (d *UltrasoundDataset) TrainPhase() {
	d.active = d.trainTransform
}

// EvalPhase activates the evaluation transform for every sample.
func (d *UltrasoundDataset) EvalPhase() {
	d.active = d.evalTransform
}

// SetTransform replaces the active transform directly.
func (d *UltrasoundDataset) SetTransform(t transform.Transform) {
	d.active = t
}

// ClassNames returns the class names in label order.
func (d *UltrasoundDataset) ClassNames() []string {
	return classNames
}

// ClassDistribution returns the sample count per class name.
func (d *UltrasoundDataset) ClassDistribution() map[string]int {
	dist := make(map[string]int)
	for _, label := range d.labels {
		dist[classNames[label]]++
	}
	return dist
}

// PosWeight returns the positive-class weight for the BCE loss: the ratio
// of benign to malignant samples times scale, compensating for class
// imbalance.
func (d *UltrasoundDataset) PosWeight(scale float64) (float64, error) {
	dist := d.ClassDistribution()
	malignant := dist[classNames[LabelMalignant]]
	if malignant == 0 {
		return 0, fmt.Errorf("dataset contains no malignant samples")
	}
	benign := dist[classNames[LabelBenign]]
	return float64(benign) / float64(malignant) * scale, nil
}

// Subset creates a view restricted to the given indices. The view shares
// the parent's transforms but switches phase independently.
func (d *UltrasoundDataset) Subset(indices []int) (*UltrasoundDataset, error) {
	subset := &UltrasoundDataset{
		imagePaths:     make([]string, len(indices)),
		labels:         make([]int, len(indices)),
		trainTransform: d.trainTransform,
		evalTransform:  d.evalTransform,
		active:         d.active,
		cache:          d.cache,
	}
	for i, idx := range indices {
		if idx < 0 || idx >= len(d.imagePaths) {
			return nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.imagePaths))
		}
		subset.imagePaths[i] = d.imagePaths[idx]
		subset.labels[i] = d.labels[idx]
	}
	return subset, nil
}

// String summarizes the dataset.
func (d *UltrasoundDataset) String() string {
	dist := d.ClassDistribution()
	return fmt.Sprintf("UltrasoundDataset: %d images (%d benign, %d malignant)",
		d.Len(), dist["benign"], dist["malignant"])
}
