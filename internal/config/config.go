package config

import (
	"os"
	"strconv"
)

// Config carries the environment-derived settings. Defaults match the
// original deployment.
type Config struct {
	Host           string
	Port           int
	UploadFolder   string
	UsersFolder    string
	MaxUploadBytes int64
	Development    bool
}

func FromEnv() Config {
	return Config{
		Host:           envStr("HOST", "0.0.0.0"),
		Port:           envInt("PORT", 5000),
		UploadFolder:   envStr("UPLOAD_FOLDER", "uploads"),
		UsersFolder:    envStr("USERS_FOLDER", "users"),
		MaxUploadBytes: int64(envInt("MAX_CONTENT_LENGTH", 16*1024*1024)),
		Development:    os.Getenv("APP_ENV") == "development",
	}
}

func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
