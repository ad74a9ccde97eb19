package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	analyzerpkg "github.com/HinaTK/daily-stock-analysis/pkg/analyzer"
)

// loadAnalyzerConfig reads a standalone analyzer tuning file. The analyzer
// package validates and defaults its own thresholds.
func loadAnalyzerConfig(path string) (*analyzerpkg.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analyzer config %s: %w", path, err)
	}
	var cfg analyzerpkg.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal analyzer config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
