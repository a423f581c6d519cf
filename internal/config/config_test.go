package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10, cfg.Engine.QuizLength)
	assert.Equal(t, 0.90, cfg.Engine.CosineHard)
	assert.Equal(t, 0.86, cfg.Engine.CosineSoft)
	assert.Equal(t, 0.25, cfg.Engine.ThetaLR)
	assert.Equal(t, 0.6, cfg.Engine.PassMark)
	assert.Equal(t, 200, cfg.Engine.AdaptiveCandidates)
	assert.False(t, cfg.Engine.AdaptiveGenerationFallback)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADAPTIQ_QUIZ_LENGTH", "5")
	t.Setenv("ADAPTIQ_COSINE_HARD", "0.95")
	t.Setenv("ADAPTIQ_ADAPTIVE_GENERATION_FALLBACK", "true")
	t.Setenv("ADAPTIQ_ABANDON_AFTER", "2h")
	t.Setenv("ADAPTIQ_CHECKPOINTER", "memory")
	t.Setenv("ADAPTIQ_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.QuizLength)
	assert.Equal(t, 0.95, cfg.Engine.CosineHard)
	assert.True(t, cfg.Engine.AdaptiveGenerationFallback)
	assert.Equal(t, 2*time.Hour, cfg.Engine.AbandonAfter)
	assert.Equal(t, "memory", cfg.Store.Checkpointer)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestFromEnv_MalformedNumber(t *testing.T) {
	t.Setenv("ADAPTIQ_PASS_MARK", "sixty")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "ADAPTIQ_PASS_MARK")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero quiz length", func(c *Config) { c.Engine.QuizLength = 0 }, "quiz length"},
		{"hard threshold above one", func(c *Config) { c.Engine.CosineHard = 1.2 }, "hard cosine"},
		{"pass mark", func(c *Config) { c.Engine.PassMark = 60 }, "pass mark"},
		{"driver", func(c *Config) { c.Store.Driver = "mysql" }, "database driver"},
		{"redis without url", func(c *Config) { c.Store.Checkpointer = "redis" }, "ADAPTIQ_REDIS_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
