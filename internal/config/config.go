package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	HTTPAddr      string
	JWTSecret     string
	CronSecret    string
	Timezone      string
	LogMode       string
	CORSOrigins   []string
	TelegramToken string
	RedisAddr     string
	RedisChannel  string
	ResetCron     string
	MonitorCron   string
	MissedGrace   time.Duration
	LinkCodeTTL   time.Duration
	AIAPIKey      string
	AIBaseURL     string
	AIModel       string

	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelSampleRatio float64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	grace, err := getEnvInt("MISSED_GRACE_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	codeTTL, err := getEnvInt("LINK_CODE_TTL_MINUTES", 15)
	if err != nil {
		return nil, err
	}

	ratio, err := getEnvFloat("OTEL_SAMPLER_RATIO", 0.1)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURI:   os.Getenv("DATABASE_URI"),
		HTTPAddr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		CronSecret:    os.Getenv("CRON_SECRET"),
		Timezone:      getEnvOrDefault("TIMEZONE", "America/Sao_Paulo"),
		LogMode:       getEnvOrDefault("LOG_MODE", "dev"),
		CORSOrigins:   splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisChannel:  getEnvOrDefault("REDIS_CHANNEL", "caremind"),
		ResetCron:     getEnvOrDefault("RESET_CRON", "*/15 * * * *"),
		MonitorCron:   getEnvOrDefault("MONITOR_CRON", "*/5 * * * *"),
		MissedGrace:   time.Duration(grace) * time.Minute,
		LinkCodeTTL:   time.Duration(codeTTL) * time.Minute,
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIBaseURL:     getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:       getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),

		OTelEnabled:     getEnvBool("OTEL_ENABLED"),
		OTelEndpoint:    strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTelInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTelSampleRatio: min(max(ratio, 0), 1),
	}, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.LinkCodeTTL <= 0 {
		return fmt.Errorf("LINK_CODE_TTL_MINUTES must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
