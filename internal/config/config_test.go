package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "aa-key")
	t.Setenv("REPLICATE_API_KEY", "rp-key")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://api.assemblyai.com/v2", cfg.AssemblyAI.APIURL)
	assert.Equal(t, "https://api.replicate.com/v1", cfg.Replicate.APIURL)
	assert.NotEmpty(t, cfg.Replicate.ModelVersion)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"US"}, cfg.Trends.Regions)
	assert.Equal(t, 20, cfg.Trends.MaxResults)
	assert.Equal(t, "@every 30m", cfg.Trends.CronExpr)
}

func TestNewFromEnv_RequiresProviderKeys(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "")
	t.Setenv("REPLICATE_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSEMBLYAI_API_KEY")

	t.Setenv("ASSEMBLYAI_API_KEY", "aa-key")
	_, err = NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPLICATE_API_KEY")
}

func TestNewFromEnv_RegionList(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "aa-key")
	t.Setenv("REPLICATE_API_KEY", "rp-key")
	t.Setenv("TRENDS_REGIONS", "US, GB ,JP,")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"US", "GB", "JP"}, cfg.Trends.Regions)
}

func TestNewFromEnv_Options(t *testing.T) {
	t.Setenv("ASSEMBLYAI_API_KEY", "aa-key")
	t.Setenv("REPLICATE_API_KEY", "rp-key")

	cfg, err := NewFromEnv(func(c *Config) {
		c.Server.DataDir = "/tmp/studio"
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/studio/creator-studio.db", cfg.Server.DBPath())
}
