package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "none", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 1024, cfg.CacheSize)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://custom:8080/v1"),
			WithEmbeddingModel("nomic-embed-text"),
			WithAPIToken("secret"),
			WithQueryTimeout(time.Second),
			WithCacheSize(0),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		assert.Equal(t, "secret", cfg.APIToken)
		assert.Equal(t, time.Second, cfg.QueryTimeout)
		assert.Equal(t, 0, cfg.CacheSize)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already has /v1", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "missing /v1", host: "http://localhost:11434", expected: "http://localhost:11434/v1"},
		{name: "has trailing slash", host: "http://localhost:11434/", expected: "http://localhost:11434/v1"},
		{name: "empty host", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, "none", cfg.APIToken)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			EmbeddingHost:  "http://localhost:11434",
			EmbeddingModel: "embeddinggemma",
		}

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "embeddinggemma"}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingHost")
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434/v1"}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("negative cache size", func(t *testing.T) {
		cfg := NewConfig(WithCacheSize(-1))

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "CacheSize")
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := NewConfig(WithQueryTimeout(-time.Second))

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "QueryTimeout")
	})
}
