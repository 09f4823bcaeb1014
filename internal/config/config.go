package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the main configuration structure
type Config struct {
	// WasmPath is the path to the compiled guest runtime module.
	WasmPath string `json:"wasmPath"`

	// MaxNestingDepth limits how many sandbox layers a single execution may
	// stack via nested runs. Each layer is a separate isolation boundary.
	MaxNestingDepth int `json:"maxNestingDepth,omitempty"`

	// ExecTimeoutSeconds bounds a single guest execution.
	ExecTimeoutSeconds int `json:"execTimeoutSeconds,omitempty"`
}

const (
	defaultMaxNestingDepth    = 4
	defaultExecTimeoutSeconds = 30
)

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.MaxNestingDepth == 0 {
		config.MaxNestingDepth = defaultMaxNestingDepth
	}
	if config.ExecTimeoutSeconds == 0 {
		config.ExecTimeoutSeconds = defaultExecTimeoutSeconds
	}
}

// validate checks if the configuration is valid
func validate(config *Config) error {
	if config.WasmPath == "" {
		return fmt.Errorf("wasmPath is required")
	}
	if config.MaxNestingDepth < 1 {
		return fmt.Errorf("maxNestingDepth must be at least 1, got %d", config.MaxNestingDepth)
	}
	if config.ExecTimeoutSeconds < 1 {
		return fmt.Errorf("execTimeoutSeconds must be at least 1, got %d", config.ExecTimeoutSeconds)
	}
	return nil
}
