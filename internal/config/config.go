package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config carries all environment-driven settings for the bot.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPListenAddr   string
	PublicBaseURL    string
	PublicBasePath   string
	MetricsNamespace string

	WhatsAppStorePath string
	WhatsAppLogLevel  string

	SpreadsheetID   string
	CredentialsJSON string

	// Audit log storage. Postgres when DatabaseURL is set, otherwise a local
	// SQLite file when SQLitePath is set, otherwise disabled.
	DatabaseURL string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8080"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", ""),
		PublicBasePath:    getEnv("PUBLIC_BASE_PATH", ""),
		MetricsNamespace:  getEnv("METRICS_NAMESPACE", "orderbot"),
		WhatsAppStorePath: getEnv("WA_STORE_PATH", "data/wa.db"),
		WhatsAppLogLevel:  getEnv("WA_LOG_LEVEL", "WARN"),
		SpreadsheetID:     getEnv("SPREADSHEET_ID", ""),
		CredentialsJSON:   getEnv("KEY_JSON", ""),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RedisTLS, err = getEnvBool("REDIS_TLS", false); err != nil {
		return nil, err
	}

	if cfg.CredentialsJSON == "" {
		if path := getEnv("KEY_JSON_FILE", ""); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read KEY_JSON_FILE: %w", err)
			}
			cfg.CredentialsJSON = string(data)
		}
	}

	if cfg.SpreadsheetID == "" {
		return nil, errors.New("SPREADSHEET_ID is required")
	}
	if cfg.CredentialsJSON == "" {
		return nil, errors.New("KEY_JSON or KEY_JSON_FILE is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
