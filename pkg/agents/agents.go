// Package agents ships the builtin agent types: echo, command, webhook
// and template. They cover local process execution, HTTP hand-off and
// text rendering so workflows are useful without any custom agent code.
package agents

import (
	"github.com/kadirpekel/conductor/pkg/agent"
)

// Descriptors returns the builtin agent descriptors
func Descriptors() []agent.Descriptor {
	return []agent.Descriptor{
		EchoDescriptor(),
		CommandDescriptor(),
		WebhookDescriptor(),
		TemplateDescriptor(),
	}
}

// Register installs every builtin into the registry
func Register(r *agent.Registry) error {
	for _, d := range Descriptors() {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}
