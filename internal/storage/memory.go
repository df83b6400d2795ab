package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

// MemoryStore is a minimal in-memory Store used in tests. It deliberately
// implements only the core contract, exercising the caller-side fallback
// for stores without the Maintainer capability.
type MemoryStore struct {
	mu    sync.Mutex
	state []byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored record, or (nil, nil) when empty
func (s *MemoryStore) Load() (*pipeline.PipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, nil
	}
	var state pipeline.PipelineState
	if err := json.Unmarshal(s.state, &state); err != nil {
		return nil, fmt.Errorf("failed to decode stored state: %w", err)
	}
	return &state, nil
}

// Save stores a deep copy of the record
func (s *MemoryStore) Save(state *pipeline.PipelineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = data
	return nil
}

// Clear drops the stored record; clearing an empty store is a no-op
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}
