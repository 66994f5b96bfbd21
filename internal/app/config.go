package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPaths []string // .hcl / .yaml entity manifests
	EntityName    string   // which entity to parse the input as
	InputPath     string   // JSON document; "" or "-" reads stdin

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ManifestPaths) == 0 {
		return nil, errors.New("at least one manifest path is required")
	}
	if cfg.EntityName == "" {
		return nil, errors.New("an entity name is required")
	}
	return &cfg, nil
}
