// Package schema implements the structural contracts agents declare for
// their inputs and outputs. Contracts are JSON Schema documents: they can
// be authored by hand or derived from Go types, and are enforced against
// runtime values before and after every agent execution.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ForType derives a JSON Schema document from a Go struct type. The
// resulting document is self-contained (no $ref indirection) so it can be
// compiled and shipped as a descriptor contract.
func ForType[T any]() (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}

	var zero T
	s := reflector.Reflect(&zero)
	s.Version = "" // keep descriptor documents draft-agnostic

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal derived schema: %w", err)
	}
	return raw, nil
}

// MustForType is ForType for static descriptor declarations; it panics on
// reflection failure, which can only happen for unmarshalable types.
func MustForType[T any]() json.RawMessage {
	raw, err := ForType[T]()
	if err != nil {
		panic(err)
	}
	return raw
}
