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
	"fmt"
	"strings"

	"github.com/kadirpekel/conductor/pkg/component"
	"github.com/kadirpekel/conductor/pkg/config"
)

// ValidateCmd validates a workflow file against the agent catalog.
type ValidateCmd struct {
	Workflow string `arg:"" name:"workflow" help:"Workflow file path." type:"path"`
}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	manager, err := component.NewManager(context.Background(), cfg)
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

	plan, err := manager.Registry().BuildExecutionOrder(def)
	if err != nil {
		return err
	}

	stats := plan.Stats()
	fmt.Printf("%s: valid (%d steps, %d dependency edges)\n", def.Name, stats.Steps, stats.DependencyEdges)
	fmt.Printf("execution order: %s\n", strings.Join(plan.Order, " -> "))
	return nil
}

// AgentsCmd lists registered agent types.
type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}

	manager, err := component.NewManager(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = manager.Shutdown(context.Background())
	}()

	registry := manager.Registry()
	for _, typ := range registry.Types() {
		d, err := registry.Resolve(typ)
		if err != nil {
			continue
		}
		fmt.Printf("%-12s %s\n", d.Type, d.Description)
	}
	return nil
}
