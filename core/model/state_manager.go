package model

import "sync"

// StateManager tracks the fitted state of a model in a thread-safe manner.
// Classifiers hold one by composition rather than embedding a base struct.
type StateManager struct {
	Fitted bool // Public for gob encoding
	mu     sync.RWMutex

	// Dimensions seen during fitting - public for gob encoding.
	NFeatures int
	NSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// SetDimensions records the number of samples and features seen during fitting.
func (s *StateManager) SetDimensions(nSamples, nFeatures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NSamples = nSamples
	s.NFeatures = nFeatures
}

// Dimensions returns the recorded (samples, features) pair.
func (s *StateManager) Dimensions() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NSamples, s.NFeatures
}

// Reset clears the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}
