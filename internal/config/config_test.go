package config

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	cfg := Load()
	assert.Equal(t, "5174", cfg.Port)
	assert.Equal(t, 8, cfg.DefaultRounds)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("DEFAULT_ROUNDS", "5")
	t.Setenv("MAX_ROUNDS", "4")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("PUBLIC_BASE_URL", "https://psykos.test/")
	t.Setenv("WS_MESSAGE_BURST", "-3")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 4, cfg.MaxRounds)
	assert.Equal(t, 4, cfg.DefaultRounds, "default rounds is capped by max rounds")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://psykos.test", cfg.PublicBaseURL)
	assert.Equal(t, 20, cfg.WSMessageBurst, "non-positive values are ignored")
}

func TestLoadAPIKeyPrecedence(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("LLM_API_KEY", "fallback")
	assert.Equal(t, "fallback", Load().LLMAPIKey)

	t.Setenv("GROQ_API_KEY", "primary")
	assert.Equal(t, "primary", Load().LLMAPIKey)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(t.TempDir()+"/.env"))
}

func TestLoggerLevelAndFormat(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	var buf bytes.Buffer
	logger := Config{LogLevel: "warn", LogFormat: "json"}.loggerTo(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("code", "BARK").Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"code":"BARK"`)

	buf.Reset()
	logger = Config{LogLevel: "bogus", LogFormat: "console"}.loggerTo(&buf)
	logger.Info().Msg("plain")
	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), `"message"`)
}
