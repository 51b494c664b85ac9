// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/kadirpekel/conductor/pkg/component"
	"github.com/kadirpekel/conductor/pkg/config"
	"github.com/kadirpekel/conductor/pkg/workflow"
)

// RunCmd executes a workflow file.
type RunCmd struct {
	Workflow string `arg:"" name:"workflow" help:"Workflow file path." type:"path"`

	Input  string `short:"i" help:"Initial run input as inline JSON, or @path to a JSON file."`
	Events bool   `help:"Print lifecycle events while the run progresses."`
	Output string `short:"o" help:"Output format: json, summary." default:"summary" enum:"json,summary"`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	manager, err := component.NewManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = manager.Shutdown(context.Background())
	}()

	def, err := config.LoadWorkflow(c.Workflow)
	if err != nil {
		return err
	}

	input, err := c.parseInput()
	if err != nil {
		return err
	}

	var sinks []workflow.Sink
	if c.Events {
		sinks = append(sinks, workflow.SinkFunc(printEvent))
	}

	result, err := manager.RunWorkflow(ctx, def, input, sinks...)
	if err != nil {
		return err
	}

	if err := c.printResult(result); err != nil {
		return err
	}
	if !result.Succeeded() {
		return fmt.Errorf("run %s finished with status %s", result.RunID, result.Status)
	}
	return nil
}

func (c *RunCmd) parseInput() (map[string]any, error) {
	if c.Input == "" {
		return nil, nil
	}

	raw := []byte(c.Input)
	if strings.HasPrefix(c.Input, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(c.Input, "@"))
		if err != nil {
			return nil, fmt.Errorf("reading input file: %w", err)
		}
		raw = data
	}

	var input map[string]any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("parsing input JSON: %w", err)
	}
	return input, nil
}

func (c *RunCmd) printResult(result *workflow.ExecutionResult) error {
	if c.Output == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Printf("Run %s (%s): %s in %v\n", result.RunID, result.Workflow, result.Status, result.Duration())
	for _, id := range sortedStepIDs(result) {
		step := result.Steps[id]
		switch step.Status {
		case workflow.StepFailed:
			fmt.Printf("  %-12s %s (%s: %s)\n", step.Status, id, step.Error.Kind, step.Error.Message)
		case workflow.StepSkipped:
			fmt.Printf("  %-12s %s (%s)\n", step.Status, id, step.SkipReason)
		default:
			fmt.Printf("  %-12s %s\n", step.Status, id)
		}
	}
	return nil
}

func printEvent(event workflow.Event) {
	switch event.Kind {
	case workflow.EventRunCompleted:
		fmt.Printf("[%s] run %s\n", event.Kind, event.Status)
	case workflow.EventStepAttemptFailed:
		fmt.Printf("[%s] %s attempt %d: %s\n", event.Kind, event.StepID, event.Attempt, event.Reason)
	case workflow.EventStepSkipped:
		fmt.Printf("[%s] %s: %s\n", event.Kind, event.StepID, event.Reason)
	default:
		fmt.Printf("[%s] %s\n", event.Kind, event.StepID)
	}
}

func sortedStepIDs(result *workflow.ExecutionResult) []string {
	ids := make([]string, 0, len(result.Steps))
	for id := range result.Steps {
		ids = append(ids, id)
	}
	// Stable output for scripting; the map itself has no order.
	sort.Strings(ids)
	return ids
}
