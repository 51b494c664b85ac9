package schema

import (
	"encoding/json"
	"fmt"

	tekuri "github.com/santhosh-tekuri/jsonschema/v5"
)

// Contract is a compiled structural contract. The zero value (and a nil
// Contract) is permissive: it accepts every value.
type Contract struct {
	name   string
	schema *tekuri.Schema
}

// Compile compiles a raw JSON Schema document into a Contract. An empty
// document yields a permissive contract.
func Compile(name string, raw json.RawMessage) (*Contract, error) {
	if len(raw) == 0 {
		return &Contract{name: name}, nil
	}

	sch, err := tekuri.CompileString(name+".json", string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
	}

	return &Contract{name: name, schema: sch}, nil
}

// Validate checks a runtime value against the contract. Values are
// normalized through a JSON round trip first, since schema validation is
// defined over decoded JSON values, not arbitrary Go types.
func (c *Contract) Validate(value any) error {
	if c == nil || c.schema == nil {
		return nil
	}

	norm, err := normalize(value)
	if err != nil {
		return fmt.Errorf("%s value is not JSON-representable: %w", c.name, err)
	}

	if err := c.schema.Validate(norm); err != nil {
		return fmt.Errorf("%s contract violated: %w", c.name, err)
	}
	return nil
}

func normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var norm any
	if err := json.Unmarshal(data, &norm); err != nil {
		return nil, err
	}
	return norm, nil
}
