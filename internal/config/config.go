package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment   string
	HTTPAddr      string
	Storage       string
	DBDSN         string
	MigrationsDir string
	JWTSecret     string
	AdminSubjects []string
	Location      *time.Location
	CORSOrigins   []string

	TelegramToken       string
	TelegramAdminChatID int64

	RedisURL     string
	RedisChannel string

	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	S3Bucket     string
	UploadDir    string
	BaseURL      string

	StaleSweepInterval time.Duration
}

// Load читает envFile (если он есть), затем переменные окружения
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("No %s file found, using environment variables", envFile)
	}

	cfg := &Config{
		Environment:   envOrDefault("ENV", "development"),
		HTTPAddr:      envOrDefault("HTTP_ADDR", ":8080"),
		Storage:       envOrDefault("STORAGE", StoragePostgres),
		DBDSN:         os.Getenv("DB_DSN"),
		MigrationsDir: envOrDefault("MIGRATIONS_DIR", "internal/repository/migrations"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminSubjects: splitList(os.Getenv("ADMIN_SUBJECTS")),
		CORSOrigins:   parseList(os.Getenv("CORS_ORIGINS")),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		RedisURL:     os.Getenv("REDIS_URL"),
		RedisChannel: envOrDefault("REDIS_CHANNEL", "booking:events"),

		AWSRegion:    os.Getenv("AWS_REGION"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
		UploadDir:    envOrDefault("UPLOAD_DIR", "./uploads"),
		BaseURL:      envOrDefault("BASE_URL", "http://localhost:8080"),
	}

	loc, err := time.LoadLocation(envOrDefault("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if raw := os.Getenv("TELEGRAM_ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		cfg.TelegramAdminChatID = id
	}

	cfg.StaleSweepInterval, err = time.ParseDuration(envOrDefault("STALE_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse STALE_SWEEP_INTERVAL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.StaleSweepInterval <= 0 {
		return fmt.Errorf("STALE_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// IsProduction проверяет, запущен ли сервис в production режиме
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// S3Enabled проверяет, заданы ли все настройки S3
func (c *Config) S3Enabled() bool {
	return c.AWSRegion != "" && c.AWSAccessKey != "" && c.AWSSecretKey != "" && c.S3Bucket != ""
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

// parseList разбивает список через запятую, по умолчанию "*"
func parseList(raw string) []string {
	out := splitList(raw)
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
