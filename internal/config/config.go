package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port        string
	DatabaseDSN string
	Env         string
	PhotoDir    string
	LogLevel    string
	ShopName    string
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "oficina.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.PhotoDir = getEnv("PHOTO_DIR", "fotos")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.ShopName = getEnv("SHOP_NAME", "Oficina Eletrônica")
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("valor booleano inválido em %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
