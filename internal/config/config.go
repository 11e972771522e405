package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                     string
	DatabaseURL              string
	DBDriver                 string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	LLMAPIKey                string
	LLMBaseURL               string
	LLMModel                 string
	LLMTimeoutSeconds        int
	DefaultRounds            int
	MaxRounds                int
	AllowedOrigins           []string
	PublicBaseURL            string
	WSMessagesPerSecond      int
	WSMessageBurst           int
	HTTPRequestsPerMinute    int
	LogLevel                 string
	LogFormat                string
}

const MinRounds = 3

func Default() Config {
	return Config{
		Port:                     "5174",
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		LLMBaseURL:               "https://api.groq.com/openai/v1/chat/completions",
		LLMModel:                 "llama-3.1-8b-instant",
		LLMTimeoutSeconds:        20,
		DefaultRounds:            8,
		MaxRounds:                20,
		PublicBaseURL:            "http://localhost:5174",
		WSMessagesPerSecond:      10,
		WSMessageBurst:           20,
		HTTPRequestsPerMinute:    60,
		LogLevel:                 "info",
		LogFormat:                "json",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("DB_DRIVER"); raw != "" {
		cfg.DBDriver = strings.ToLower(strings.TrimSpace(raw))
	}
	positiveInt("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positiveInt("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positiveInt("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positiveInt("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)
	if raw := os.Getenv("GROQ_API_KEY"); raw != "" {
		cfg.LLMAPIKey = raw
	} else if raw := os.Getenv("LLM_API_KEY"); raw != "" {
		cfg.LLMAPIKey = raw
	}
	if raw := os.Getenv("LLM_BASE_URL"); raw != "" {
		cfg.LLMBaseURL = raw
	}
	if raw := os.Getenv("LLM_MODEL"); raw != "" {
		cfg.LLMModel = raw
	}
	positiveInt("LLM_TIMEOUT_SECONDS", &cfg.LLMTimeoutSeconds)
	positiveInt("DEFAULT_ROUNDS", &cfg.DefaultRounds)
	positiveInt("MAX_ROUNDS", &cfg.MaxRounds)
	if cfg.MaxRounds < MinRounds {
		cfg.MaxRounds = MinRounds
	}
	if cfg.DefaultRounds < MinRounds {
		cfg.DefaultRounds = MinRounds
	}
	if cfg.DefaultRounds > cfg.MaxRounds {
		cfg.DefaultRounds = cfg.MaxRounds
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if raw := os.Getenv("PUBLIC_BASE_URL"); raw != "" {
		cfg.PublicBaseURL = strings.TrimRight(raw, "/")
	}
	positiveInt("WS_MESSAGES_PER_SECOND", &cfg.WSMessagesPerSecond)
	positiveInt("WS_MESSAGE_BURST", &cfg.WSMessageBurst)
	positiveInt("HTTP_REQUESTS_PER_MINUTE", &cfg.HTTPRequestsPerMinute)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
	return cfg
}

func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func positiveInt(key string, dest *int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	if value, err := strconv.Atoi(raw); err == nil && value > 0 {
		*dest = value
	}
}
