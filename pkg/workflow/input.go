package workflow

import (
	"fmt"
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/kadirpekel/conductor/pkg/config"
)

// resolveInput assembles the effective input for one step: a deep copy of
// its static parameters, overlaid with values pulled from dependency
// outputs or the run input through the step's `inputs` mapping. Mappings
// are applied in sorted field order so collisions resolve
// deterministically. A declared mapping that cannot be resolved is an
// error; the step fails without executing.
func resolveInput(step *config.WorkflowStep, runInput map[string]any, outputs map[string]map[string]any) (map[string]any, error) {
	input := make(map[string]any, len(step.Parameters)+len(step.Inputs))
	if len(step.Parameters) > 0 {
		if err := mergo.Merge(&input, step.Parameters, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("copying parameters for step %q: %w", step.ID, err)
		}
	}

	fields := make([]string, 0, len(step.Inputs))
	for field := range step.Inputs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		ref := step.Inputs[field]
		value, err := resolveRef(ref, runInput, outputs)
		if err != nil {
			return nil, fmt.Errorf("step %q input %q: %w", step.ID, field, err)
		}
		input[field] = value
	}
	return input, nil
}

// resolveRef resolves a "source[.dotted.path]" reference, where source is
// a dependency step id or the reserved run-input name.
func resolveRef(ref string, runInput map[string]any, outputs map[string]map[string]any) (any, error) {
	source, path, _ := strings.Cut(ref, ".")

	var root map[string]any
	if source == config.InputSource {
		root = runInput
	} else {
		out, ok := outputs[source]
		if !ok {
			return nil, fmt.Errorf("no output available from %q", source)
		}
		root = out
	}

	value, found := lookupPath(root, path)
	if !found {
		return nil, fmt.Errorf("path %q not found in output of %q", path, source)
	}
	return value, nil
}
