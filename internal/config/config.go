package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	HTTPAddr      string
	DatabaseURL   string
	KafkaAddress  string
	ESURL         string
	ESUser        string
	ESPassword    string
	PrivateKeyPEM string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	LogLevel      string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		KafkaAddress:  os.Getenv("KAFKA_ADDRESS"),
		ESURL:         os.Getenv("ES_URL"),
		ESUser:        os.Getenv("ES_USER"),
		ESPassword:    os.Getenv("ES_PASSWORD"),
		PrivateKeyPEM: os.Getenv("RSA_PRIVATE_KEY_FILE"),
		AccessTTL:     getDuration("ACCESS_TTL_MINUTES", 120),
		RefreshTTL:    getDuration("REFRESH_TTL_MINUTES", 24*60),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@localhost"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getDuration(name string, fallbackMinutes int) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Minute
		}
		log.Printf("Notice: invalid %s=%q, using default", name, v)
	}
	return time.Duration(fallbackMinutes) * time.Minute
}
