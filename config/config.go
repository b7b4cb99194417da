// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/patternsearch/ai"
	"github.com/poiesic/patternsearch/chunk"
	"github.com/poiesic/patternsearch/filter"
	"github.com/poiesic/patternsearch/ingestion"
	"github.com/poiesic/patternsearch/search"
)

// envPrefix starts every environment override.
const envPrefix = "PATTERNSEARCH_"

// Config holds all patternsearch settings.
type Config struct {
	// Root is the snapshot root directory.
	Root string `yaml:"root"`

	// DataDir holds the metadata/ and texts/ directories read by ingest.
	DataDir string `yaml:"data_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// EmbeddingConfig describes the embedding service.
type EmbeddingConfig struct {
	Host         string        `yaml:"host"`
	Model        string        `yaml:"model"`
	APIToken     string        `yaml:"api_token"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	CacheSize    int           `yaml:"cache_size"`
}

// IndexConfig holds the parameters a snapshot is built with.
type IndexConfig struct {
	WindowSize    int    `yaml:"window_size"`
	Stride        int    `yaml:"stride"`
	FilterBackend string `yaml:"filter_backend"`
	// TablePath replaces the built-in vocabulary table when set.
	TablePath string `yaml:"table_path"`
	Keep      int    `yaml:"keep"`
}

// SearchConfig holds per-request defaults.
type SearchConfig struct {
	CandidateDocLimit int           `yaml:"candidate_doc_limit"`
	CandidateRowLimit int           `yaml:"candidate_row_limit"`
	ResultLimit       int           `yaml:"result_limit"`
	FilterTimeout     time.Duration `yaml:"filter_timeout"`
	ToleranceMM       float64       `yaml:"tolerance_mm"`
	// SpellDistance is the largest edit distance a query word is corrected
	// across. Zero disables correction.
	SpellDistance int `yaml:"spell_distance"`
}

// IngestConfig controls snapshot builds.
type IngestConfig struct {
	BatchSize   int           `yaml:"batch_size"`
	Workers     int           `yaml:"workers"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Root:     "./index",
		DataDir:  "./data",
		LogLevel: "info",
		Embedding: EmbeddingConfig{
			Host:         aiDefaults.EmbeddingHost,
			Model:        aiDefaults.EmbeddingModel,
			APIToken:     aiDefaults.APIToken,
			QueryTimeout: aiDefaults.QueryTimeout,
			CacheSize:    aiDefaults.CacheSize,
		},
		Index: IndexConfig{
			WindowSize:    chunk.DefaultWindowSize,
			Stride:        chunk.DefaultStride,
			FilterBackend: filter.BackendBleve,
			Keep:          ingestion.DefaultKeep,
		},
		Search: SearchConfig{
			CandidateDocLimit: search.DefaultCandidateDocLimit,
			CandidateRowLimit: search.DefaultCandidateRowLimit,
			ResultLimit:       search.DefaultResultLimit,
			FilterTimeout:     search.DefaultFilterTimeout,
			SpellDistance:     2,
		},
		Ingest: IngestConfig{
			BatchSize:   ingestion.DefaultBatchSize,
			Workers:     4,
			MaxAttempts: ingestion.DefaultRetryPolicy.MaxAttempts,
			RetryDelay:  ingestion.DefaultRetryPolicy.BaseDelay,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result. An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML from r onto c.
func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides applies PATTERNSEARCH_* variables. Values that do not
// parse are ignored.
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("ROOT", &c.Root)
	str("DATA_DIR", &c.DataDir)
	str("LOG_LEVEL", &c.LogLevel)
	str("EMBEDDING_HOST", &c.Embedding.Host)
	str("EMBEDDING_MODEL", &c.Embedding.Model)
	str("API_TOKEN", &c.Embedding.APIToken)
	dur("QUERY_TIMEOUT", &c.Embedding.QueryTimeout)
	str("FILTER_BACKEND", &c.Index.FilterBackend)
	str("TABLE_PATH", &c.Index.TablePath)
	num("RESULT_LIMIT", &c.Search.ResultLimit)
	dur("FILTER_TIMEOUT", &c.Search.FilterTimeout)
	num("WORKERS", &c.Ingest.Workers)
	num("BATCH_SIZE", &c.Ingest.BatchSize)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Root != "", "root is required")
	_, levelErr := ParseLevel(c.LogLevel)
	check(levelErr == nil, "unknown log level %q", c.LogLevel)

	check(c.Embedding.Host != "", "embedding host is required")
	check(c.Embedding.Model != "", "embedding model is required")
	check(c.Embedding.QueryTimeout >= 0, "embedding query timeout must not be negative")
	check(c.Embedding.CacheSize >= 0, "embedding cache size must not be negative")

	check(c.Index.WindowSize > 0, "window size must be positive, got %d", c.Index.WindowSize)
	check(c.Index.FilterBackend == filter.BackendBleve || c.Index.FilterBackend == filter.BackendSQLite,
		"unknown filter backend %q", c.Index.FilterBackend)
	check(c.Index.Keep >= 0, "keep must not be negative")

	check(c.Search.CandidateDocLimit > 0, "candidate doc limit must be positive")
	check(c.Search.CandidateRowLimit > 0, "candidate row limit must be positive")
	check(c.Search.ResultLimit > 0, "result limit must be positive")
	check(c.Search.FilterTimeout >= 0, "filter timeout must not be negative")
	check(c.Search.ToleranceMM >= 0, "tolerance must not be negative")
	check(c.Search.SpellDistance >= 0, "spell distance must not be negative")

	check(c.Ingest.BatchSize > 0, "batch size must be positive")
	check(c.Ingest.Workers > 0, "workers must be positive")
	check(c.Ingest.MaxAttempts > 0, "max attempts must be positive")

	return errors.Join(errs...)
}

// AIConfig returns the embedding service settings in the form the ai
// package expects.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIToken(c.Embedding.APIToken),
		ai.WithQueryTimeout(c.Embedding.QueryTimeout),
		ai.WithCacheSize(c.Embedding.CacheSize),
	)
}

// RetryPolicy returns the embedding retry policy of ingest runs.
func (c *Config) RetryPolicy() ingestion.RetryPolicy {
	policy := ingestion.DefaultRetryPolicy
	policy.MaxAttempts = c.Ingest.MaxAttempts
	policy.BaseDelay = c.Ingest.RetryDelay
	return policy
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
