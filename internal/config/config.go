package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Upload    UploadConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection  string
	LogLevel    string // silent | error | warn | info
	AutoMigrate bool
}

type AuthConfig struct {
	JwtSecret    string
	TokenTTL     time.Duration
	AllowDemo    bool
	DemoUsername string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type WorkerConfig struct {
	ProcessingDelay time.Duration
	PollInterval    time.Duration
	MaxAttempts     int
	StaleAfter      time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CacheConfig struct {
	SettingsTTL time.Duration
}

const devJwtSecret = "dev-only-secret"

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/status-feed.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection:  getEnv("DB_CONNECTION_STRING", ""),
			LogLevel:    strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JwtSecret:    getEnv("JWT_SECRET", ""),
			TokenTTL:     getEnvAsDuration("JWT_TTL", 24*time.Hour),
			AllowDemo:    getEnvAsBool("AUTH_ALLOW_DEMO", true),
			DemoUsername: getEnv("DEMO_USERNAME", "demo-user"),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", 500*1024*1024),
		},
		Worker: WorkerConfig{
			ProcessingDelay: getEnvAsDuration("PROCESSING_DELAY", 3*time.Second),
			PollInterval:    getEnvAsDuration("WORKER_POLL_INTERVAL", 500*time.Millisecond),
			MaxAttempts:     getEnvAsInt("WORKER_MAX_ATTEMPTS", 3),
			StaleAfter:      getEnvAsDuration("WORKER_STALE_AFTER", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Cache: CacheConfig{
			SettingsTTL: getEnvAsDuration("SETTINGS_CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.Auth.JwtSecret == "" {
		if !cfg.Auth.AllowDemo || cfg.IsProduction() {
			log.Fatal("Error: JWT_SECRET is not set")
		}
		log.Println("Warn: JWT_SECRET is not set, using development secret")
		cfg.Auth.JwtSecret = devJwtSecret
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("3s", "500ms").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
