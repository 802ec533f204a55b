package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port       string
	DataPath   string
	Backend    string
	SQLitePath string
	LogLevel   string
}

func LoadConfig() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DataPath:   getEnv("DATA_PATH", "./data/tasks.csv"),
		Backend:    strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		SQLitePath: getEnv("SQLITE_PATH", "./data/tasks.db"),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// StoragePath returns the location the selected backend writes to.
func (c *Config) StoragePath() string {
	if c.Backend == BackendSQLite {
		return c.SQLitePath
	}
	return c.DataPath
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
