// Thread-safe fitted-state tracking, composed into every estimator.

package model

import (
	"sync"

	"github.com/combineml/combineml/pkg/errors"
)

// StateManager tracks whether an estimator has been fitted and the data
// dimensions it was fitted on. Estimators compose it rather than embedding a
// base struct, so the fitted flag stays consistent when child fits run on
// separate goroutines.
type StateManager struct {
	mu        sync.RWMutex
	fitted    bool
	nFeatures int
	nSamples  int
}

// NewStateManager creates an unfitted StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the estimator has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the estimator as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
}

// Reset clears the fitted flag and recorded dimensions. Fit calls it first
// so refitting fully replaces earlier state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
}

// SetDimensions records the feature and sample counts seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// GetDimensions returns the feature and sample counts seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError naming the model and method if the
// estimator has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ValidateShape returns a DimensionError if got columns disagree with the
// fitted feature count.
func (s *StateManager) ValidateShape(op string, got int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if got != s.nFeatures {
		return errors.NewDimensionError(op, s.nFeatures, got, 1)
	}
	return nil
}
