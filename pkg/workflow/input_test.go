package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/conductor/pkg/config"
)

func TestResolveInput(t *testing.T) {
	runInput := map[string]any{"topic": "release notes"}
	outputs := map[string]map[string]any{
		"fetch": {"body": "raw text", "meta": map[string]any{"lang": "en"}},
	}

	step := &config.WorkflowStep{
		ID:         "summarize",
		Agent:      "summarizer",
		DependsOn:  []string{"fetch"},
		Parameters: map[string]any{"style": "terse", "text": "placeholder"},
		Inputs: map[string]string{
			"text":  "fetch.body",
			"lang":  "fetch.meta.lang",
			"topic": "input.topic",
		},
	}

	input, err := resolveInput(step, runInput, outputs)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"style": "terse",
		"text":  "raw text", // mapping overrides the static parameter
		"lang":  "en",
		"topic": "release notes",
	}, input)
}

func TestResolveInputWholeOutput(t *testing.T) {
	outputs := map[string]map[string]any{
		"fetch": {"body": "raw text"},
	}

	step := &config.WorkflowStep{
		ID:        "archive",
		Agent:     "archiver",
		DependsOn: []string{"fetch"},
		Inputs:    map[string]string{"document": "fetch"},
	}

	input, err := resolveInput(step, nil, outputs)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"body": "raw text"}, input["document"])
}

func TestResolveInputMissingPath(t *testing.T) {
	outputs := map[string]map[string]any{
		"fetch": {"body": "raw text"},
	}

	step := &config.WorkflowStep{
		ID:        "summarize",
		Agent:     "summarizer",
		DependsOn: []string{"fetch"},
		Inputs:    map[string]string{"text": "fetch.absent"},
	}

	_, err := resolveInput(step, nil, outputs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent")
}

func TestResolveInputMissingSource(t *testing.T) {
	step := &config.WorkflowStep{
		ID:     "summarize",
		Agent:  "summarizer",
		Inputs: map[string]string{"text": "ghost.body"},
	}

	_, err := resolveInput(step, nil, map[string]map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolveInputDoesNotMutateParameters(t *testing.T) {
	params := map[string]any{"nested": map[string]any{"keep": true}}
	step := &config.WorkflowStep{
		ID:         "s",
		Agent:      "a",
		Parameters: params,
		Inputs:     map[string]string{"nested": "input.replacement"},
	}

	input, err := resolveInput(step, map[string]any{"replacement": "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", input["nested"])
	assert.Equal(t, map[string]any{"keep": true}, params["nested"])
}
