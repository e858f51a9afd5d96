package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.trainmap.jp/v1", cfg.API.BaseURL)
	assert.Equal(t, 4, cfg.API.MaxRetries)
	assert.Equal(t, 300, cfg.Search.DebounceMs)
	assert.Equal(t, 750, cfg.Search.SelectionWindowMs)
	assert.Equal(t, 50, cfg.Cluster.MinPoints)
	assert.Equal(t, 60, cfg.Cluster.PixelRadius)
	assert.Equal(t, 19, cfg.Cluster.MaxZoom)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GYMDEX_API_BASE_URL", "http://localhost:9999")
	t.Setenv("GYMDEX_SEARCH_DEBOUNCE_MS", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", cfg.API.BaseURL)
	assert.Equal(t, 50, cfg.Search.DebounceMs)
}

func TestSearchConfig_Durations(t *testing.T) {
	c := SearchConfig{DebounceMs: 300, SelectionWindowMs: 750}
	assert.Equal(t, "300ms", c.Debounce().String())
	assert.Equal(t, "750ms", c.SelectionWindow().String())
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.Error(t, InitLogger(LogConfig{Level: "nope"}))
}
