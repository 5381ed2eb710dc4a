package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-repository CLI configuration file,
// read from the repository root. It configures the CLI only; the core
// consumes no configuration beyond the in-tree ignore control file.
const ConfigFileName = ".gitrecord.yaml"

// Config is the per-repository CLI configuration.
type Config struct {
	Ref     string `yaml:"ref"`     // default: "HEAD"
	Logging string `yaml:"logging"` // log level: none, info, debug, trace (case insensitive)
}

// ApplyDefaults fills zero-value fields with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Ref == "" {
		cfg.Ref = "HEAD"
	}
	if cfg.Logging == "" {
		cfg.Logging = "none"
	}
}

// LoadConfig reads the repository's CLI config file. A missing file yields
// the defaults.
func LoadConfig(repoDir string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(repoDir, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
