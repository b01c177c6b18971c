// Package checkpoints persists model parameter snapshots as JSON files.
// The pipeline writes a single checkpoint at the end of final training;
// the same format loads pretrained backbone weights.
package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sonomed/sonoclass/nn"
)

// WeightTensor represents a model parameter tensor with its data.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Metadata contains checkpoint metadata.
type Metadata struct {
	Version     string    `json:"version"`
	Framework   string    `json:"framework"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
}

// Checkpoint represents a complete set of model weights.
type Checkpoint struct {
	Weights  []WeightTensor `json:"weights"`
	Metadata Metadata       `json:"metadata"`
}

// FromModel extracts a checkpoint from the model's current parameters.
func FromModel(model nn.Module, description string) *Checkpoint {
	params := model.Parameters()
	weights := make([]WeightTensor, 0, len(params))
	for _, p := range params {
		shape := make([]int, len(p.Data.Shape))
		copy(shape, p.Data.Shape)
		data := make([]float64, len(p.Data.Data))
		copy(data, p.Data.Data)
		weights = append(weights, WeightTensor{
			Name:  p.Name,
			Shape: shape,
			Data:  data,
		})
	}

	return &Checkpoint{
		Weights: weights,
		Metadata: Metadata{
			Version:     "1.0.0",
			Framework:   "sonoclass",
			CreatedAt:   time.Now().UTC(),
			Description: description,
		},
	}
}

// Save writes the checkpoint to path as indented JSON.
func (cp *Checkpoint) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %v", err)
	}
	return nil
}

// Load reads a checkpoint from path.
func Load(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %v", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %v", err)
	}
	return &cp, nil
}

// SaveModel extracts the model's parameters and writes them to path.
func SaveModel(path string, model nn.Module, description string) error {
	return FromModel(model, description).Save(path)
}

// Apply copies the checkpoint's weights into the model's parameters,
// matching by name. Every model parameter must be present in the checkpoint
// with the same shape.
func (cp *Checkpoint) Apply(model nn.Module) error {
	byName := make(map[string]*WeightTensor, len(cp.Weights))
	for i := range cp.Weights {
		byName[cp.Weights[i].Name] = &cp.Weights[i]
	}

	for _, p := range model.Parameters() {
		w, ok := byName[p.Name]
		if !ok {
			return fmt.Errorf("checkpoint has no weights for parameter %q", p.Name)
		}
		if len(w.Data) != p.Data.NumElems {
			return fmt.Errorf("parameter %q size mismatch: checkpoint has %d values, model expects %d",
				p.Name, len(w.Data), p.Data.NumElems)
		}
		copy(p.Data.Data, w.Data)
	}
	return nil
}

// LoadModel reads a checkpoint from path and applies it to the model.
func LoadModel(path string, model nn.Module) error {
	cp, err := Load(path)
	if err != nil {
		return err
	}
	return cp.Apply(model)
}
