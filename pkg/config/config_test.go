package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1.2, cfg.Search.BM25.K1)
	assert.Equal(t, 0.75, cfg.Search.BM25.B)
	assert.Equal(t, 10000, cfg.Corpus.MaxDocuments)
	assert.Equal(t, 1000, cfg.Corpus.MaxURLLength)
	assert.Equal(t, 1000, cfg.Search.MaxQueryLength)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
corpus:
  path: /srv/corpus.txt
  format: blocks
  maxDocuments: 50
search:
  defaultLimit: 5
  bm25:
    k1: 2.0
    b: 0.5
cache:
  backend: none
  ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/corpus.txt", cfg.Corpus.Path)
	assert.Equal(t, "blocks", cfg.Corpus.Format)
	assert.Equal(t, 50, cfg.Corpus.MaxDocuments)
	assert.Equal(t, 1000, cfg.Corpus.MaxURLLength, "unset keys keep defaults")
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 2.0, cfg.Search.BM25.K1)
	assert.Equal(t, 0.5, cfg.Search.BM25.B)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BM25_K1", "1.5")
	t.Setenv("BM25_MAX_DOCUMENTS", "7")
	t.Setenv("BM25_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1.5, cfg.Search.BM25.K1)
	assert.Equal(t, 7, cfg.Corpus.MaxDocuments)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative k1", func(c *Config) { c.Search.BM25.K1 = -1 }},
		{"b above one", func(c *Config) { c.Search.BM25.B = 1.5 }},
		{"NaN k1", func(c *Config) { c.Search.BM25.K1 = math.NaN() }},
		{"infinite k1", func(c *Config) { c.Search.BM25.K1 = math.Inf(1) }},
		{"NaN b", func(c *Config) { c.Search.BM25.B = math.NaN() }},
		{"unknown source", func(c *Config) { c.Corpus.Source = "s3" }},
		{"unknown format", func(c *Config) { c.Corpus.Format = "csv" }},
		{"default over max", func(c *Config) { c.Search.DefaultLimit = 500 }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"rate limit without window", func(c *Config) { c.Server.RateWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	require.NoError(t, Default().Validate())
}

func TestLoad_RejectsNonFiniteBM25(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("BM25_K1", v)
			_, err := Load("")
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  bm25:\n    b: .nan\n"), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
