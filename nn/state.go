package nn

import (
	"fmt"

	"github.com/sonomed/sonoclass/tensor"
)

// Snapshot is an immutable copy of a model's trainable parameters, captured
// once after initialization. It is used to reset the model to its starting
// state between cross-validation folds and before final training.
type Snapshot map[string]*tensor.Tensor

// Capture deep-copies every parameter of the module.
func Capture(m Module) (Snapshot, error) {
	snapshot := make(Snapshot)
	for _, p := range m.Parameters() {
		if _, exists := snapshot[p.Name]; exists {
			return nil, fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		snapshot[p.Name] = p.Data.Clone()
	}
	return snapshot, nil
}

// Restore copies the snapshot back into the module's parameters and zeroes
// their gradients. The module must have exactly the parameters the snapshot
// was captured from.
func (s Snapshot) Restore(m Module) error {
	params := m.Parameters()
	if len(params) != len(s) {
		return fmt.Errorf("parameter count mismatch: snapshot has %d, model has %d", len(s), len(params))
	}

	for _, p := range params {
		saved, ok := s[p.Name]
		if !ok {
			return fmt.Errorf("snapshot has no parameter %q", p.Name)
		}
		if err := p.Data.CopyFrom(saved); err != nil {
			return fmt.Errorf("failed to restore parameter %q: %v", p.Name, err)
		}
		p.ZeroGrad()
	}
	return nil
}

// Equal reports whether the module's current parameters match the snapshot
// exactly.
func (s Snapshot) Equal(m Module) bool {
	params := m.Parameters()
	if len(params) != len(s) {
		return false
	}
	for _, p := range params {
		saved, ok := s[p.Name]
		if !ok || !p.Data.Equal(saved) {
			return false
		}
	}
	return true
}
