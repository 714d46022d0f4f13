package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	HTTPPort         string
	DatabaseURL      string
	RedisAddr        string
	SecretKey        string
	SessionTTL       time.Duration
	EncodingCacheTTL time.Duration
	RateLimitPerMin  int
	WebDir           string
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is honored when
// present.
func Load() App {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return App{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		SecretKey:        getEnv("SECRET_KEY", "dev-session-secret-change"),
		SessionTTL:       durationEnv("SESSION_TTL", 12*time.Hour),
		EncodingCacheTTL: durationEnv("ENCODING_CACHE_TTL", 5*time.Minute),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 120),
		WebDir:           getEnv("WEB_DIR", "web"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
