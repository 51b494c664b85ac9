package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the global configuration from a YAML file, expanding
// environment variable references before parsing
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a global configuration document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWorkflow reads a workflow definition from a YAML file, expanding
// environment variable references before parsing
func LoadWorkflow(path string) (*WorkflowDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file %s: %w", path, err)
	}
	return ParseWorkflow(data)
}

// ParseWorkflow parses a workflow definition document
func ParseWorkflow(data []byte) (*WorkflowDefinition, error) {
	var def WorkflowDefinition
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	def.SetDefaults()
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}

	return &def, nil
}
