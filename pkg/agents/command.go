package agents

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/kadirpekel/conductor/pkg/agent"
	"github.com/kadirpekel/conductor/pkg/schema"
)

// CommandInput is the typed input of the command builtin
type CommandInput struct {
	Command      string            `json:"command" jsonschema:"required" mapstructure:"command"`
	Args         []string          `json:"args,omitempty" mapstructure:"args"`
	Dir          string            `json:"dir,omitempty" mapstructure:"dir"`
	Env          map[string]string `json:"env,omitempty" mapstructure:"env"`
	Stdin        string            `json:"stdin,omitempty" mapstructure:"stdin"`
	AllowFailure bool              `json:"allow_failure,omitempty" mapstructure:"allow_failure"`
}

// CommandOutput is the typed output of the command builtin
type CommandOutput struct {
	ExitCode int    `json:"exit_code" mapstructure:"exit_code"`
	Stdout   string `json:"stdout" mapstructure:"stdout"`
	Stderr   string `json:"stderr" mapstructure:"stderr"`
}

// CommandAgent runs a local process and captures its output. The process
// inherits the step's context, so a timeout or cancellation kills it.
type CommandAgent struct {
	agent.BaseAgent
}

func (a *CommandAgent) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in CommandInput
	if err := mapstructure.Decode(input, &in); err != nil {
		return nil, fmt.Errorf("decoding command input: %w", err)
	}

	cmd := exec.CommandContext(ctx, in.Command, in.Args...)
	cmd.Dir = in.Dir
	if in.Stdin != "" {
		cmd.Stdin = strings.NewReader(in.Stdin)
	}
	if len(in.Env) > 0 {
		cmd.Env = os.Environ()
		for key, value := range in.Env {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("running %q: %w", in.Command, err)
		}
		exitCode = exitErr.ExitCode()
	}

	output := map[string]any{
		"exit_code": exitCode,
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
	}
	if exitCode != 0 && !in.AllowFailure {
		return nil, fmt.Errorf("%q exited with code %d: %s", in.Command, exitCode, firstLine(stderr.String()))
	}
	return output, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// CommandDescriptor describes the command builtin
func CommandDescriptor() agent.Descriptor {
	return agent.Descriptor{
		Type:         "command",
		Description:  "Runs a local process and captures exit code, stdout and stderr",
		InputSchema:  schema.MustForType[CommandInput](),
		OutputSchema: schema.MustForType[CommandOutput](),
		Factory:      func() agent.Agent { return &CommandAgent{} },
	}
}
