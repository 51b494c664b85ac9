package agents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/conductor/pkg/agent"
)

func TestRegisterBuiltins(t *testing.T) {
	r := agent.NewRegistry()
	require.NoError(t, Register(r))
	assert.ElementsMatch(t, []string{"echo", "command", "webhook", "template"}, r.Types())
}

func TestEchoAgent(t *testing.T) {
	a := &EchoAgent{}

	out, err := a.Execute(context.Background(), map[string]any{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, out)

	out, err = a.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out)
}

func TestCommandAgent(t *testing.T) {
	a := &CommandAgent{}

	out, err := a.Execute(context.Background(), map[string]any{
		"command": "sh",
		"args":    []string{"-c", "printf hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out["exit_code"])
	assert.Equal(t, "hello", out["stdout"])
}

func TestCommandAgentStdin(t *testing.T) {
	a := &CommandAgent{}

	out, err := a.Execute(context.Background(), map[string]any{
		"command": "cat",
		"stdin":   "piped",
	})
	require.NoError(t, err)
	assert.Equal(t, "piped", out["stdout"])
}

func TestCommandAgentFailure(t *testing.T) {
	a := &CommandAgent{}

	_, err := a.Execute(context.Background(), map[string]any{
		"command": "sh",
		"args":    []string{"-c", "echo oops >&2; exit 3"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 3")
	assert.Contains(t, err.Error(), "oops")
}

func TestCommandAgentAllowFailure(t *testing.T) {
	a := &CommandAgent{}

	out, err := a.Execute(context.Background(), map[string]any{
		"command":       "sh",
		"args":          []string{"-c", "exit 3"},
		"allow_failure": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out["exit_code"])
}

func TestWebhookAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"received": true}`))
	}))
	defer server.Close()

	a := NewWebhookAgent()
	out, err := a.Execute(context.Background(), map[string]any{
		"url":     server.URL,
		"payload": map[string]any{"job": "deploy"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out["status"])
	assert.Equal(t, map[string]any{"received": true}, out["body"])
}

func TestWebhookAgentUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	a := NewWebhookAgent()
	_, err := a.Execute(context.Background(), map[string]any{"url": server.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestTemplateAgent(t *testing.T) {
	a := &TemplateAgent{}

	out, err := a.Execute(context.Background(), map[string]any{
		"template": "Hello {{.name}}",
		"data":     map[string]any{"name": "world"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out["rendered"])
}

func TestTemplateAgentMissingKey(t *testing.T) {
	a := &TemplateAgent{}

	_, err := a.Execute(context.Background(), map[string]any{
		"template": "Hello {{.missing}}",
		"data":     map[string]any{},
	})
	assert.Error(t, err)
}

func TestDescriptorsValidate(t *testing.T) {
	for _, d := range Descriptors() {
		t.Run(d.Type, func(t *testing.T) {
			assert.NoError(t, d.Validate())
		})
	}
}
