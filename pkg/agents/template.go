package agents

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/schema"
)

// TemplateInput is the typed input of the template builtin
type TemplateInput struct {
	Template string         `json:"template" jsonschema:"required" mapstructure:"template"`
	Data     map[string]any `json:"data,omitempty" mapstructure:"data"`
}

// TemplateOutput is the typed output of the template builtin
type TemplateOutput struct {
	Rendered string `json:"rendered" mapstructure:"rendered"`
}

// TemplateAgent renders a Go text template against the provided data.
// Referencing a missing key fails the render rather than producing
// "<no value>" holes.
type TemplateAgent struct {
	agent.BaseAgent
}

func (a *TemplateAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in TemplateInput
	if err := mapstructure.Decode(input, &in); err != nil {
		return nil, fmt.Errorf("decoding template input: %w", err)
	}

	tmpl, err := template.New("step").Option("missingkey=error").Parse(in.Template)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var rendered strings.Builder
	if err := tmpl.Execute(&rendered, in.Data); err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}

	return map[string]any{"rendered": rendered.String()}, nil
}

// TemplateDescriptor describes the template builtin
func TemplateDescriptor() agent.Descriptor {
	return agent.Descriptor{
		Type:         "template",
		Description:  "Renders a Go text template against the step input",
		InputSchema:  schema.MustForType[TemplateInput](),
		OutputSchema: schema.MustForType[TemplateOutput](),
		Factory:      func() agent.Agent { return &TemplateAgent{} },
	}
}
