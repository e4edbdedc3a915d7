package config

import (
	"os"
	"strings"
)

// Config holds process-wide configuration read from the environment.
// The Notion credential is intentionally not validated here: the
// connector surfaces a missing credential on first client use, so the
// registry endpoints keep working without one.
type Config struct {
	Port             string
	LogLevel         string
	NotionAPIKey     string
	NotionDatabaseID string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Port:             envOrDefault("PORT", "8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		NotionAPIKey:     strings.TrimSpace(os.Getenv("NOTION_API_KEY")),
		NotionDatabaseID: strings.TrimSpace(os.Getenv("NOTION_DATABASE_ID")),
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
