// Package config loads front-end options from lumina.yaml, LUMINA_*
// environment variables, and CLI flags, in that order of precedence
// (lowest to highest, after defaults).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// findConfigFile picks the config file to use.
// Priority: explicit path > lumina.yaml > lumina.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"lumina.yaml", "lumina.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration. Precedence (highest to lowest):
// flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"mode":                   DefaultMode,
		"max_errors":             DefaultMaxErrors,
		"strict":                 false,
		"preserve_trivia":        true,
		"early_type_resolution":  true,
		"defer_expression_types": true,
		"insert_error_nodes":     true,
		"insert_missing_nodes":   true,
		"source_mapping":         true,
		"output":                 DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed := findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// LUMINA_MAX_ERRORS -> max_errors
	if err := k.Load(env.Provider("LUMINA_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LUMINA_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// kebab-case flags map to snake_case config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = configFileUsed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects option values the pipeline cannot honor
func (c *Config) Validate() error {
	switch c.Mode {
	case "direct-ast", "cst", "cst-ast":
	default:
		return fmt.Errorf("invalid mode %q: want direct-ast, cst or cst-ast", c.Mode)
	}
	if c.MaxErrors < 0 {
		return fmt.Errorf("max_errors must not be negative, got %d", c.MaxErrors)
	}
	switch c.Output {
	case "text", "table":
	default:
		return fmt.Errorf("invalid output %q: want text or table", c.Output)
	}
	if c.MinFrontend != "" {
		if _, err := semver.NewConstraint(c.MinFrontend); err != nil {
			return fmt.Errorf("invalid min_frontend constraint %q: %w", c.MinFrontend, err)
		}
	}
	return nil
}

// CheckFrontendVersion enforces the min_frontend gate against the
// running front end's version.
func (c *Config) CheckFrontendVersion(current string) error {
	if c.MinFrontend == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.MinFrontend)
	if err != nil {
		return fmt.Errorf("invalid min_frontend constraint %q: %w", c.MinFrontend, err)
	}
	v, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid frontend version %q: %w", current, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("frontend %s does not satisfy min_frontend %q", current, c.MinFrontend)
	}
	return nil
}
