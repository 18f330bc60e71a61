// Package model provides state management and export formats for the
// detectors in this module.
package model

import (
	"sync"

	mlerrors "github.com/YuminosukeSato/cssadmkl/pkg/errors"
)

// StateManager manages the trained state of a model in a thread-safe manner.
type StateManager struct {
	mu sync.RWMutex

	Fitted bool

	// Shape seen during training.
	Dims    int
	Samples int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been trained.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as trained.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset clears the trained flag. The recorded shape is kept since it
// describes the training data, not the solution.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
}

// SetDimensions records the feature dimension and sample count.
func (s *StateManager) SetDimensions(dims, samples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dims = dims
	s.Samples = samples
}

// GetDimensions returns the feature dimension and sample count.
func (s *StateManager) GetDimensions() (dims, samples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Dims, s.Samples
}

// RequireFitted returns a NotFittedError naming modelName and method when the
// model has not been trained.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return mlerrors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is a snapshot of the StateManager fields.
type ModelState struct {
	Fitted  bool `json:"fitted"`
	Dims    int  `json:"dims,omitempty"`
	Samples int  `json:"samples,omitempty"`
}

// GetState returns the current state.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModelState{Fitted: s.Fitted, Dims: s.Dims, Samples: s.Samples}
}

// SetState restores a snapshot taken with GetState.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = state.Fitted
	s.Dims = state.Dims
	s.Samples = state.Samples
}
