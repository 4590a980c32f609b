package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
input: applications.csv
seed: 7
train_fraction: 0.7
impute_neighbors: 3
report_json: out/report.json
search:
  enabled: true
  trials: 10
  folds: 3
  scoring: accuracy
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "applications.csv", cfg.Input)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 0.7, cfg.TrainFraction)
	assert.Equal(t, 3, cfg.ImputeNeighbors)
	assert.Equal(t, "out/report.json", cfg.ReportJSON)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, "accuracy", cfg.Search.Scoring)

	// Unset fields keep their defaults.
	assert.Equal(t, 0.5, cfg.MissingnessThreshold)
	assert.Equal(t, 0.5, cfg.DecisionThreshold)
	assert.Equal(t, 5, cfg.KNN.Neighbors)
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"input": "data.csv", "decision_threshold": 0.6}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", cfg.Input)
	assert.Equal(t, 0.6, cfg.DecisionThreshold)
}

func TestLoadConfigUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("input = 'x'"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := NewConfig()
	valid.Input = "applications.csv"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.Input = "" }},
		{"fraction too high", func(c *Config) { c.TrainFraction = 1.0 }},
		{"fraction too low", func(c *Config) { c.TrainFraction = 0 }},
		{"zero neighbors", func(c *Config) { c.ImputeNeighbors = 0 }},
		{"threshold out of range", func(c *Config) { c.MissingnessThreshold = 1.5 }},
		{"bad decision threshold", func(c *Config) { c.DecisionThreshold = -0.1 }},
		{"bad scoring", func(c *Config) { c.Search.Enabled = true; c.Search.Scoring = "f1" }},
		{"single fold", func(c *Config) { c.Search.Enabled = true; c.Search.Folds = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Input = "applications.csv"
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
