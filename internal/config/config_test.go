package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 180*time.Second, cfg.ImageGen.Timeout)
	assert.Equal(t, 3, cfg.Crawler.MaxDepth)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("CRAWLER_MAX_PAGES", "25")
	t.Setenv("CRAWLER_RATE_LIMIT_MIN", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 25, cfg.Crawler.MaxPages)
	assert.Equal(t, 2*time.Second, cfg.Crawler.RateLimitMin)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "rate limit min above max",
			mutate: func(c *Config) {
				c.Crawler.RateLimitMin = 10 * time.Second
				c.Crawler.RateLimitMax = 1 * time.Second
			},
			wantErr: true,
		},
		{
			name: "negative crawl depth",
			mutate: func(c *Config) {
				c.Crawler.MaxDepth = -1
			},
			wantErr: true,
		},
		{
			name: "zero max pages",
			mutate: func(c *Config) {
				c.Crawler.MaxPages = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
