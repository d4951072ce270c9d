package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// Server
	Port        string
	Environment string
	CORSOrigins []string
	MaxUploadMB int

	// Storage
	DatabaseURL   string
	MongoDatabase string

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Passwords
	BcryptCost int

	// Feed cache
	RedisURL     string
	FeedCacheTTL time.Duration

	// Events
	AMQPURL      string
	AMQPExchange string

	// Media
	MediaBackend string
	MediaDir     string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "5001"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"*"}),
		MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 30),
		DatabaseURL:        getEnv("DATABASE_URL", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "socialpedia"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 0),
		BcryptCost:         getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		RedisURL:           getEnv("REDIS_URL", ""),
		FeedCacheTTL:       getEnvDuration("FEED_CACHE_TTL", 30*time.Second),
		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "socialpedia.events"),
		MediaBackend:       getEnv("MEDIA_BACKEND", "disk"),
		MediaDir:           getEnv("MEDIA_DIR", "public/assets"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	switch cfg.MediaBackend {
	case "disk":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}

	return cfg, nil
}

// TokenTTL is zero when tokens should not expire.
func (c *Config) TokenTTL() time.Duration {
	if c.JWTExpirationHours <= 0 {
		return 0
	}
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
