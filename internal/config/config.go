package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"covlint/internal/ir"
)

// YAMLConfigName is the standalone config file checked in the start
// directory before the pyproject.toml search.
const YAMLConfigName = ".covlint.yml"

// RuleSetting controls a single rule.
type RuleSetting struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Config is the resolved configuration for one run. Loaded once,
// immutable afterwards.
type Config struct {
	TestDirectories []string `toml:"test_directories" yaml:"test_directories" validate:"min=1,dive,required"`
	TestPatterns    []string `toml:"test_patterns" yaml:"test_patterns" validate:"min=1,dive,required"`
	ExcludePatterns []string `toml:"exclude_patterns" yaml:"exclude_patterns"`

	// Rules maps rule id to its setting. Unlisted rules are enabled.
	Rules map[string]RuleSetting `toml:"-" yaml:"-"`

	OutputFormat string `toml:"output_format" yaml:"output_format" validate:"oneof=text json junit"`
	FailOnError  bool   `toml:"fail_on_error" yaml:"fail_on_error"`
	Strict       bool   `toml:"strict" yaml:"strict"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		TestDirectories: []string{"test", "tests"},
		TestPatterns:    []string{"test_*.py", "*_test.py"},
		OutputFormat:    "text",
		Rules:           map[string]RuleSetting{},
	}
}

// RuleEnabled reports whether a rule should run. Rules default to on;
// ids match case-insensitively, like registry lookups.
func (c *Config) RuleEnabled(ruleID string) bool {
	s, ok := c.Rules[strings.ToUpper(ruleID)]
	if !ok {
		return true
	}
	return s.Enabled
}

// Validate checks the resolved configuration. Failures are fatal.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ir.ConfigError{Reason: "validation failed", Err: err}
	}
	return nil
}

// pyproject mirrors the [tool.covlint] table of a pyproject.toml.
type pyproject struct {
	Tool struct {
		Covlint map[string]any `toml:"covlint"`
	} `toml:"tool"`
}

// FindConfigFile walks from start upward looking for a pyproject.toml
// carrying a [tool.covlint] table.
func FindConfigFile(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, "pyproject.toml")
		if data, err := os.ReadFile(candidate); err == nil {
			var pp pyproject
			if toml.Unmarshal(data, &pp) == nil && pp.Tool.Covlint != nil {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load resolves the configuration for a run starting at the given path.
// Precedence: .covlint.yml in the start directory, then the nearest
// pyproject.toml with a [tool.covlint] table, then defaults.
// Environment variables (optionally from a .env file) override last.
func Load(start string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	dir := start
	if fi, err := os.Stat(start); err == nil && !fi.IsDir() {
		dir = filepath.Dir(start)
	}

	yamlPath := filepath.Join(dir, YAMLConfigName)
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := loadYAML(cfg, data); err != nil {
			return nil, &ir.ConfigError{Reason: yamlPath, Err: err}
		}
		slog.Debug("loaded configuration", "file", yamlPath)
	} else if path, ok := FindConfigFile(start); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &ir.ConfigError{Reason: path, Err: err}
		}
		if err := loadTOML(cfg, data); err != nil {
			return nil, &ir.ConfigError{Reason: path, Err: err}
		}
		slog.Debug("loaded configuration", "file", path)
	} else {
		slog.Debug("no configuration file found, using defaults")
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadTOML(cfg *Config, data []byte) error {
	var pp pyproject
	if err := toml.Unmarshal(data, &pp); err != nil {
		return err
	}
	return applyTable(cfg, pp.Tool.Covlint)
}

func loadYAML(cfg *Config, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	return applyTable(cfg, raw)
}

// applyTable merges a decoded config table over cfg. Both file formats
// reduce to the same generic shape, so the merge logic is shared.
func applyTable(cfg *Config, table map[string]any) error {
	if table == nil {
		return nil
	}
	if v, ok := table["test_directories"]; ok {
		dirs, err := stringList(v)
		if err != nil {
			return fmt.Errorf("test_directories: %w", err)
		}
		cfg.TestDirectories = dirs
	}
	if v, ok := table["test_patterns"]; ok {
		pats, err := stringList(v)
		if err != nil {
			return fmt.Errorf("test_patterns: %w", err)
		}
		cfg.TestPatterns = pats
	}
	if v, ok := table["exclude_patterns"]; ok {
		pats, err := stringList(v)
		if err != nil {
			return fmt.Errorf("exclude_patterns: %w", err)
		}
		cfg.ExcludePatterns = pats
	}
	if v, ok := table["output_format"]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("output_format: expected string, got %T", v)
		}
		cfg.OutputFormat = s
	}
	if v, ok := table["fail_on_error"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("fail_on_error: expected bool, got %T", v)
		}
		cfg.FailOnError = b
	}
	if v, ok := table["strict"]; ok {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("strict: expected bool, got %T", v)
		}
		cfg.Strict = b
	}
	if v, ok := table["rules"]; ok {
		rules, err := ruleTable(v)
		if err != nil {
			return err
		}
		cfg.Rules = rules
	}
	return nil
}

// ruleTable accepts both spellings: `PL001 = false` and
// `PL001 = { enabled = false }`.
func ruleTable(v any) (map[string]RuleSetting, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rules: expected table, got %T", v)
	}
	rules := make(map[string]RuleSetting, len(raw))
	for id, val := range raw {
		key := strings.ToUpper(id)
		switch rv := val.(type) {
		case bool:
			rules[key] = RuleSetting{Enabled: rv}
		case map[string]any:
			enabled := true
			if e, ok := rv["enabled"].(bool); ok {
				enabled = e
			}
			rules[key] = RuleSetting{Enabled: enabled}
		default:
			return nil, fmt.Errorf("rules.%s: expected bool or table, got %T", id, val)
		}
	}
	return rules, nil
}

func stringList(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		// go-toml and yaml.v3 decode string arrays as []any; accept a
		// typed slice too in case a caller builds the table directly.
		if ss, ok := v.([]string); ok {
			return ss, nil
		}
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COVLINT_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = v
	}
	if v := os.Getenv("COVLINT_FAIL_ON_ERROR"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.FailOnError = b
		}
	}
	if v := os.Getenv("COVLINT_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Strict = b
		}
	}
}
