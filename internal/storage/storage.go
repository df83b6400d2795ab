// Package storage persists the single pipeline state record that carries
// tracker identity across CLI invocations. Each invocation is a fresh
// process, so this file is the only continuity mechanism the tool has.
package storage

import (
	"errors"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
)

// StateVersion is written into the metadata envelope of every saved record
const StateVersion = "1.0.0"

// ErrInvalidState is wrapped by Save when the record fails validation
var ErrInvalidState = errors.New("invalid pipeline state")

// Store is the core persistence contract. Load returns (nil, nil) when no
// prior record exists; absence is a normal condition, not an error.
type Store interface {
	Load() (*pipeline.PipelineState, error)
	Save(state *pipeline.PipelineState) error
	Clear() error
}

// Maintainer is the optional capability set a durable store may provide on
// top of the core contract. Callers probe for it with a type assertion and
// fall back to built-in validation when the store lacks it.
type Maintainer interface {
	Validate(state *pipeline.PipelineState) error
	Backup() error
	Restore() (*pipeline.PipelineState, error)
}

// ValidateWith runs the store's own validation when it offers one, and the
// built-in structural validation otherwise
func ValidateWith(store Store, state *pipeline.PipelineState) error {
	if m, ok := store.(Maintainer); ok {
		return m.Validate(state)
	}
	return pipeline.Validate(state)
}
