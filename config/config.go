package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	GitHub   GitHubConfig
	Mailjet  MailjetConfig
	AWS      AWSConfig
	Cache    CacheConfig
	QR       QRConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	PostLoginURL       string // where /auth/callback redirects after setting the session cookie
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/qrevent?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings for the mail job queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds session-cookie signing settings.
type SessionConfig struct {
	Secret      string
	MaxAgeHours int
}

// GitHubConfig holds GitHub OAuth app credentials.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
}

// MailjetConfig holds Mailjet v3.1 send API credentials.
type MailjetConfig struct {
	APIKey      string
	APISecret   string
	SenderEmail string
	SenderName  string
}

// AWSConfig holds AWS credentials and the event banner bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EventsBucket    string
}

// CacheConfig holds active-event cache settings.
type CacheConfig struct {
	ActiveEventTTLSec int // freshness window for the cached active event
	StoreTimeoutSec   int // per-query timeout for record store calls
}

// QRConfig holds QR rendering settings.
type QRConfig struct {
	Workers int // bounded render pool size
	Size    int // PNG edge length in pixels
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			PostLoginURL:       getEnv("POST_LOGIN_URL", "/admin/dashboard"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "qrevent"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret:      getEnv("APP_SECRET_KEY", "change-me-in-production"),
			MaxAgeHours: getEnvInt("SESSION_MAX_AGE_HOURS", 24),
		},
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		},
		Mailjet: MailjetConfig{
			APIKey:      getEnv("MAILJET_API_KEY", ""),
			APISecret:   getEnv("MAILJET_API_SECRET", ""),
			SenderEmail: getEnv("MAILJET_SENDER_EMAIL", ""),
			SenderName:  getEnv("MAILJET_SENDER_NAME", "QR Event"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			EventsBucket:    getEnv("AWS_S3_EVENTS_BUCKET", "qr-event-banners"),
		},
		Cache: CacheConfig{
			ActiveEventTTLSec: getEnvInt("ACTIVE_EVENT_TTL_SEC", 300),
			StoreTimeoutSec:   getEnvInt("STORE_TIMEOUT_SEC", 5),
		},
		QR: QRConfig{
			Workers: getEnvInt("QR_WORKERS", 4),
			Size:    getEnvInt("QR_SIZE", 256),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
