package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(dir, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.DataTimeout)
	assert.Equal(t, 120*time.Second, cfg.ModelTimeout)
	assert.Equal(t, filepath.Join(dir, "genomemcp.db"), cfg.DBPath)
	assert.Equal(t, "GRCh38", cfg.GenomeBuild)
	assert.Equal(t, dir, cfg.ConfigDir)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "GENOMEMCP_MODEL=from-dotenv\nGENOMEMCP_BACKEND=llamacpp\nGENOMEMCP_NCBI_EMAIL=dotenv@example.org\n")
	writeFile(t, dir, FileName, "model: from-yaml\nmax_iterations: 4\ndata_timeout: 5s\n")

	cfg, err := load(dir, env(map[string]string{
		"GENOMEMCP_BACKEND":     "openrouter",
		"GENOMEMCP_MODEL":       "from-env",
		"OPENROUTER_API_KEY":    "sk-or",
		"GENOMEMCP_VERBOSE":     "true",
		"GENOMEMCP_TEMPERATURE": "0.2",
	}))
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.Model, "yaml overrides env")
	assert.Equal(t, "openrouter", cfg.Backend, "env overrides .env")
	assert.Equal(t, "dotenv@example.org", cfg.NCBIEmail, ".env overrides default")
	assert.Equal(t, "sk-or", cfg.APIKey)
	assert.True(t, cfg.Verbose)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, 4, cfg.MaxIterations)
	assert.Equal(t, 5*time.Second, cfg.DataTimeout)
}

func TestLoad_ConfigDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "user_id: alice\ngenome_build: grch37\n")
	cfg, err := load("", env(map[string]string{"GENOMEMCP_CONFIG_DIR": dir}))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.UserID)
	assert.Equal(t, "GRCh37", cfg.GenomeBuild)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := load(dir, env(map[string]string{"GENOMEMCP_MAX_ITERATIONS": "ten"}))
	assert.ErrorContains(t, err, "GENOMEMCP_MAX_ITERATIONS")

	_, err = load(dir, env(map[string]string{"GENOMEMCP_MAX_ITERATIONS": "0"}))
	assert.ErrorContains(t, err, "max_iterations")

	_, err = load(dir, env(map[string]string{"GENOMEMCP_GENOME_BUILD": "hg19"}))
	assert.ErrorContains(t, err, "genome_build")

	writeFile(t, dir, FileName, "max_iterations: [1, 2")
	_, err = load(dir, env(nil))
	assert.ErrorContains(t, err, FileName)
}
