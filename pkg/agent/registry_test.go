package agent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterResolve(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Descriptor{
		Type:        "echo",
		Description: "echoes its input",
		Factory:     func() Agent { return noopAgent{} },
	}))

	d, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", d.Type)
	assert.Equal(t, "echoes its input", d.Description)
}

func TestRegistryDuplicateType(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(Descriptor{
		Type:        "echo",
		Description: "original",
		Factory:     func() Agent { return noopAgent{} },
	}))

	err := r.Register(Descriptor{
		Type:        "echo",
		Description: "usurper",
		Factory:     func() Agent { return noopAgent{} },
	})
	require.Error(t, err)

	var dupErr *DuplicateTypeError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "echo", dupErr.Type)

	// The original registration survives the rejected one.
	d, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "original", d.Description)
	assert.Equal(t, Stats{RegisteredTypes: 1}, r.Stats())
}

func TestRegistryRejectsInvalidDescriptor(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name string
		desc Descriptor
	}{
		{
			name: "missing type",
			desc: Descriptor{Factory: func() Agent { return noopAgent{} }},
		},
		{
			name: "missing factory",
			desc: Descriptor{Type: "echo"},
		},
		{
			name: "retries below the sentinel",
			desc: Descriptor{Type: "echo", Factory: func() Agent { return noopAgent{} }, MaxRetries: -2},
		},
		{
			name: "malformed input schema",
			desc: Descriptor{
				Type:        "echo",
				Factory:     func() Agent { return noopAgent{} },
				InputSchema: json.RawMessage(`{"type": 42}`),
			},
		},
		{
			name: "malformed output schema",
			desc: Descriptor{
				Type:         "echo",
				Factory:      func() Agent { return noopAgent{} },
				OutputSchema: json.RawMessage(`{not json`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, r.Register(tt.desc))
			assert.Equal(t, 0, r.Count())
		})
	}
}

func TestRegistryTypesOrder(t *testing.T) {
	r := newTestRegistry(t, "gamma", "alpha", "beta")
	assert.Equal(t, []string{"gamma", "alpha", "beta"}, r.Types())
}
