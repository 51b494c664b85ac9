// Package observability wires metrics and tracing for the workflow engine.
// Metrics are exported through the OpenTelemetry metric SDK with a
// Prometheus reader; tracing uses the OpenTelemetry trace SDK.
package observability

import "fmt"

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

func (c *MetricsConfig) Validate() error {
	return nil
}

func (c *MetricsConfig) SetDefaults() {
	// Disabled unless explicitly enabled
}

type TracerConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	ExporterType string  `yaml:"exporter_type" json:"exporter_type"` // "stdout" is the only built-in exporter
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
	ServiceName  string  `yaml:"service_name" json:"service_name"`
}

func (c *TracerConfig) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1")
	}
	switch c.ExporterType {
	case "", "stdout":
	default:
		return fmt.Errorf("unknown exporter_type %q", c.ExporterType)
	}
	return nil
}

func (c *TracerConfig) SetDefaults() {
	if c.ExporterType == "" {
		c.ExporterType = "stdout"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
	if c.ServiceName == "" {
		c.ServiceName = "conductor"
	}
}

// Config groups the observability surface configuration
type Config struct {
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracerConfig  `yaml:"tracing" json:"tracing"`
}

func (c *Config) Validate() error {
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("tracing validation failed: %w", err)
	}
	return nil
}

func (c *Config) SetDefaults() {
	c.Metrics.SetDefaults()
	c.Tracing.SetDefaults()
}
