package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBDriver   string // "postgres" or "memory"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string

	PollInterval time.Duration
	PollDeadline time.Duration

	RateRPS   int
	RateBurst int
}

func Load() *Config {
	// Optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "chat"),
		DBPassword: getEnv("DB_PASSWORD", "chat_dev_password"),
		DBName:     getEnv("DB_NAME", "chat"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		PollInterval: getEnvDuration("POLL_INTERVAL", 400*time.Millisecond),
		PollDeadline: getEnvDuration("POLL_DEADLINE", 25*time.Second),

		RateRPS:   getEnvInt("RATE_RPS", 20),
		RateBurst: getEnvInt("RATE_BURST", 40),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
