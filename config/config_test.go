package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/patternsearch/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patternsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 550, cfg.Index.WindowSize)
	assert.Equal(t, 450, cfg.Index.Stride)
	assert.Equal(t, filter.BackendBleve, cfg.Index.FilterBackend)
	assert.Equal(t, 400, cfg.Search.CandidateDocLimit)
	assert.Equal(t, 200, cfg.Search.CandidateRowLimit)
	assert.Equal(t, 10, cfg.Search.ResultLimit)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Root, cfg.Root)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
root: /srv/patterns
embedding:
  model: nomic-embed-text
  query_timeout: 2s
index:
  filter_backend: sqlite
search:
  result_limit: 25
  tolerance_mm: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/patterns", cfg.Root)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 2*time.Second, cfg.Embedding.QueryTimeout)
	assert.Equal(t, filter.BackendSQLite, cfg.Index.FilterBackend)
	assert.Equal(t, 25, cfg.Search.ResultLimit)
	assert.InDelta(t, 0.5, cfg.Search.ToleranceMM, 1e-9)

	// Untouched fields keep their defaults.
	assert.Equal(t, NewConfig().Embedding.Host, cfg.Embedding.Host)
	assert.Equal(t, 400, cfg.Search.CandidateDocLimit)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Search, cfg.Search)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "serach:\n  result_limit: 3\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "index:\n  filter_backend: postgres\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "root: /from/file\n")
	t.Setenv("PATTERNSEARCH_ROOT", "/from/env")
	t.Setenv("PATTERNSEARCH_RESULT_LIMIT", "7")
	t.Setenv("PATTERNSEARCH_FILTER_TIMEOUT", "750ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Root)
	assert.Equal(t, 7, cfg.Search.ResultLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.Search.FilterTimeout)
}

func TestApplyEnvOverrides_IgnoresUnparsable(t *testing.T) {
	env := map[string]string{
		"PATTERNSEARCH_WORKERS":       "many",
		"PATTERNSEARCH_QUERY_TIMEOUT": "soon",
		"PATTERNSEARCH_LOG_LEVEL":     "",
	}
	cfg := NewConfig()
	cfg.applyEnvOverrides(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, NewConfig().Ingest.Workers, cfg.Ingest.Workers)
	assert.Equal(t, NewConfig().Embedding.QueryTimeout, cfg.Embedding.QueryTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := NewConfig()
	cfg.Root = ""
	cfg.Search.ResultLimit = 0
	cfg.Ingest.Workers = -1

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "root is required")
	assert.Contains(t, err.Error(), "result limit must be positive")
	assert.Contains(t, err.Error(), "workers must be positive")
}

func TestAIConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.Embedding.Host = "http://embed.internal:8080"
	cfg.Embedding.Model = "mxbai-embed-large"

	aiCfg := cfg.AIConfig()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, "http://embed.internal:8080/v1", aiCfg.EmbeddingHost)
	assert.Equal(t, "mxbai-embed-large", aiCfg.EmbeddingModel)
}

func TestRetryPolicy(t *testing.T) {
	cfg := NewConfig()
	cfg.Ingest.MaxAttempts = 5
	cfg.Ingest.RetryDelay = time.Second

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
