package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covlint/internal/ir"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"test", "tests"}, cfg.TestDirectories)
	assert.Equal(t, []string{"test_*.py", "*_test.py"}, cfg.TestPatterns)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.False(t, cfg.FailOnError)
	assert.False(t, cfg.Strict)
	require.NoError(t, cfg.Validate())
}

func TestRuleEnabled(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.RuleEnabled("PL001"), "rules default to enabled")

	cfg.Rules["PL001"] = RuleSetting{Enabled: false}
	assert.False(t, cfg.RuleEnabled("PL001"))
	assert.True(t, cfg.RuleEnabled("PL002"))
}

func TestRuleEnabled_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, `
rules:
  pl001: false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, cfg.RuleEnabled("PL001"), "lowercase ids in the file must still disable the rule")
	assert.False(t, cfg.RuleEnabled("pl001"))
	assert.True(t, cfg.RuleEnabled("PL002"))
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, `
test_directories: [spec]
test_patterns: ["check_*.py"]
exclude_patterns: ["generated/**"]
output_format: json
fail_on_error: true
strict: true
rules:
  PL003: false
  PL004:
    enabled: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"spec"}, cfg.TestDirectories)
	assert.Equal(t, []string{"check_*.py"}, cfg.TestPatterns)
	assert.Equal(t, []string{"generated/**"}, cfg.ExcludePatterns)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.True(t, cfg.FailOnError)
	assert.True(t, cfg.Strict)
	assert.False(t, cfg.RuleEnabled("PL003"))
	assert.True(t, cfg.RuleEnabled("PL004"))
}

func TestLoad_Pyproject(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "pyproject.toml", `
[tool.covlint]
test_directories = ["qa"]
output_format = "junit"

[tool.covlint.rules]
PL002 = false
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"qa"}, cfg.TestDirectories)
	assert.Equal(t, "junit", cfg.OutputFormat)
	assert.False(t, cfg.RuleEnabled("PL002"))
	// Unset keys keep their defaults.
	assert.Equal(t, []string{"test_*.py", "*_test.py"}, cfg.TestPatterns)
}

func TestLoad_YAMLTakesPrecedenceOverPyproject(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "pyproject.toml", `
[tool.covlint]
output_format = "junit"
`)
	write(t, dir, YAMLConfigName, `
output_format: json
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestFindConfigFile_UpwardSearch(t *testing.T) {
	root := t.TempDir()
	write(t, root, "pyproject.toml", `
[tool.covlint]
strict = true
`)
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok := FindConfigFile(nested)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "pyproject.toml"), path)

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
}

func TestFindConfigFile_IgnoresPyprojectWithoutCovlintTable(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "pyproject.toml", `
[tool.black]
line-length = 100
`)

	_, ok := FindConfigFile(dir)
	assert.False(t, ok)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().TestDirectories, cfg.TestDirectories)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, `
output_format: json
`)
	t.Setenv("COVLINT_OUTPUT_FORMAT", "junit")
	t.Setenv("COVLINT_FAIL_ON_ERROR", "true")
	t.Setenv("COVLINT_STRICT", "1")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "junit", cfg.OutputFormat, "environment wins over file config")
	assert.True(t, cfg.FailOnError)
	assert.True(t, cfg.Strict)
}

func TestLoad_InvalidFormatFails(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, `
output_format: xml
`)

	_, err := Load(dir)
	require.Error(t, err)
	var cerr *ir.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, "test_directories: [unterminated")

	_, err := Load(dir)
	require.Error(t, err)
	var cerr *ir.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestLoad_BadRuleValueFails(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, YAMLConfigName, `
rules:
  PL001: "off"
`)

	_, err := Load(dir)
	require.Error(t, err)
}
