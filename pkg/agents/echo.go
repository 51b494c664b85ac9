package agents

import (
	"context"

	"github.com/kadirpekel/conductor/pkg/agent"
)

// EchoAgent returns its input unchanged. Useful for wiring checks and as
// a pass-through node carrying parameters into downstream steps.
type EchoAgent struct {
	agent.BaseAgent
}

func (a *EchoAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	if input == nil {
		return map[string]any{}, nil
	}
	return input, nil
}

// EchoDescriptor describes the echo builtin. Both contracts are left
// open: echo accepts and produces arbitrary objects.
func EchoDescriptor() agent.Descriptor {
	return agent.Descriptor{
		Type:        "echo",
		Description: "Returns its input unchanged",
		Factory:     func() agent.Agent { return &EchoAgent{} },
	}
}
