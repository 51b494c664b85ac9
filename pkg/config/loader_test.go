package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseWorkflow(t *testing.T) {
	doc := []byte(`
name: release
description: Build and announce a release
steps:
  - id: build
    agent: command
    parameters:
      command: make
      args: [build]
  - id: announce
    agent: webhook
    depends_on: [build]
    error_policy: continue
    inputs:
      payload: build
    timeout: 30s
`)

	def, err := ParseWorkflow(doc)
	if err != nil {
		t.Fatalf("ParseWorkflow() error = %v", err)
	}

	if def.Name != "release" {
		t.Errorf("Name = %q, want release", def.Name)
	}
	if len(def.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(def.Steps))
	}

	build, ok := def.Step("build")
	if !ok {
		t.Fatal("step build not found")
	}
	if build.ErrorPolicy != ErrorPolicyStop {
		t.Errorf("build error policy = %q, want stop default", build.ErrorPolicy)
	}

	announce, _ := def.Step("announce")
	if announce.ErrorPolicy != ErrorPolicyContinue {
		t.Errorf("announce error policy = %q, want continue", announce.ErrorPolicy)
	}
	if announce.Timeout != 30*time.Second {
		t.Errorf("announce timeout = %v, want 30s", announce.Timeout)
	}
}

func TestParseWorkflowRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "steps: ["},
		{name: "missing name", doc: "steps:\n  - id: a\n    agent: echo\n"},
		{
			name: "undeclared dependency",
			doc:  "name: x\nsteps:\n  - id: a\n    agent: echo\n    depends_on: [ghost]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseWorkflow([]byte(tt.doc)); err == nil {
				t.Error("ParseWorkflow() expected error, got nil")
			}
		})
	}
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`
engine:
  max_concurrent_steps: 8
  default_timeout: 1m
server:
  port: 9000
observability:
  metrics:
    enabled: true
`)

	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Engine.MaxConcurrentSteps != 8 {
		t.Errorf("MaxConcurrentSteps = %d, want 8", cfg.Engine.MaxConcurrentSteps)
	}
	if cfg.Engine.DefaultTimeout != time.Minute {
		t.Errorf("DefaultTimeout = %v, want 1m", cfg.Engine.DefaultTimeout)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want default 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics should be enabled")
	}
}

func TestLoadWorkflowExpandsEnvVars(t *testing.T) {
	t.Setenv("RELEASE_HOOK", "https://hooks.example.com/release")

	doc := `
name: env-test
steps:
  - id: notify
    agent: webhook
    parameters:
      url: ${RELEASE_HOOK}
      channel: ${RELEASE_CHANNEL:-general}
`
	path := filepath.Join(t.TempDir(), "workflow.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	def, err := LoadWorkflow(path)
	if err != nil {
		t.Fatalf("LoadWorkflow() error = %v", err)
	}

	step, _ := def.Step("notify")
	if got := step.Parameters["url"]; got != "https://hooks.example.com/release" {
		t.Errorf("url = %v, want expanded env var", got)
	}
	if got := step.Parameters["channel"]; got != "general" {
		t.Errorf("channel = %v, want fallback default", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CONDUCTOR_TEST_VAR", "value")

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "${CONDUCTOR_TEST_VAR}", want: "value"},
		{in: "$CONDUCTOR_TEST_VAR", want: "value"},
		{in: "${CONDUCTOR_TEST_MISSING:-fallback}", want: "fallback"},
		{in: "${CONDUCTOR_TEST_MISSING}", want: ""},
	}

	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
