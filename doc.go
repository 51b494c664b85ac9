// Package conductor provides a declarative multi-agent workflow
// orchestration engine.
//
// Conductor registers independently executable units of work ("agents"),
// resolves the dependencies a workflow declares between them into a DAG,
// and drives that DAG to completion with per-step retry, backoff, timeout
// and failure-policy semantics.
//
// # Quick Start
//
// Install Conductor:
//
//	go install github.com/kadirpekel/conductor/cmd/conductor@latest
//
// Create a workflow definition:
//
//	name: scaffold
//	steps:
//	  - id: plan
//	    agent: echo
//	    parameters:
//	      requirements: "two web apps behind a gateway"
//	  - id: render
//	    agent: template
//	    depends_on: [plan]
//	    inputs:
//	      data: plan
//	    parameters:
//	      template: "planned: {{ .requirements }}"
//
// Run it:
//
//	conductor run scaffold.yaml
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/kadirpekel/conductor/pkg/agent"
//	    "github.com/kadirpekel/conductor/pkg/workflow"
//	    "github.com/kadirpekel/conductor/pkg/config"
//	)
//
// Register descriptors on an agent.Registry, construct a workflow.Engine
// around it, and call Run with a config.WorkflowDefinition.
//
// # Key Features
//
//   - **Declarative YAML**: Define complete workflows without code
//   - **DAG Execution**: Independent branches run concurrently
//   - **Validated Contracts**: JSON Schema checked inputs and outputs
//   - **Retry & Backoff**: Exponential backoff with jitter per agent
//   - **Failure Policies**: stop, continue, or re-queue per step
//   - **Execution Events**: Per-step lifecycle stream for progress reporting
package conductor
