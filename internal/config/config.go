// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	LLMBackend   string // "gemini" or "ollama"
	LLMModel     string // empty = backend default
	OllamaHost   string
	AnalyticsURL string // base URL of the loss-triangle engine
	SessionDB    string // empty = in-memory sessions only
	HistoryWin   int    // messages of history shown to planner and agents
	StepTimeout  time.Duration
	PlanTimeout  time.Duration
	Port         string
	LogFile      string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		LLMBackend:   getEnv("LLM_BACKEND", "gemini"),
		LLMModel:     getEnv("LLM_MODEL", ""),
		OllamaHost:   getEnv("OLLAMA_HOST", ""),
		AnalyticsURL: getEnv("ANALYTICS_URL", "http://localhost:8742"),
		SessionDB:    getEnv("SESSION_DB_PATH", ""),
		HistoryWin:   getEnvInt("HISTORY_WINDOW", 20),
		StepTimeout:  time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 120)) * time.Second,
		PlanTimeout:  time.Duration(getEnvInt("PLANNER_TIMEOUT_SECONDS", 20)) * time.Second,
		Port:         getEnv("PORT", "8080"),
		LogFile:      getEnv("LOG_FILE", "assistant.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all configuration fields are usable.
func (c *Config) Validate() error {
	if c.LLMBackend != "gemini" && c.LLMBackend != "ollama" {
		return fmt.Errorf("LLM_BACKEND must be gemini or ollama, got %q", c.LLMBackend)
	}
	if c.AnalyticsURL == "" {
		return fmt.Errorf("ANALYTICS_URL must not be empty")
	}
	if c.HistoryWin <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %d", c.HistoryWin)
	}
	if c.StepTimeout <= 0 || c.PlanTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
