package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Auth             AuthConfig
	Logging          LoggingConfig
	Email            EmailConfig
	RateLimit        RateLimitConfig
	Jobs             JobsConfig
	ManagerBootstrap ManagerBootstrapConfig
	Environment      string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type EmailConfig struct {
	Enabled bool
	APIKey  string
	From    string
}

type RateLimitConfig struct {
	ResidentPerMinute int
	ManagerPerMinute  int
}

type JobsConfig struct {
	Enabled                bool
	PackageReminderAfter   time.Duration
	PackageReminderEvery   time.Duration
	NotifyWorkerCount      int
	RetryAnnouncementNotif int
	RetryPackageReminder   int
}

type ManagerBootstrapConfig struct {
	Email    string
	Password string
	Name     string
	Building string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "courtyard"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Email: EmailConfig{
			Enabled: getEnvBool("EMAIL_ENABLED", false),
			APIKey:  getEnv("RESEND_API_KEY", ""),
			From:    getEnv("EMAIL_FROM", "Courtyard <no-reply@courtyard.local>"),
		},
		RateLimit: RateLimitConfig{
			ResidentPerMinute: getEnvInt("RATE_LIMIT_RESIDENT", 120),
			ManagerPerMinute:  getEnvInt("RATE_LIMIT_MANAGER", 300),
		},
		Jobs: JobsConfig{
			Enabled:                getEnvBool("JOBS_ENABLED", true),
			PackageReminderAfter:   time.Duration(getEnvInt("PACKAGE_REMINDER_AFTER_HOURS", 48)) * time.Hour,
			PackageReminderEvery:   time.Duration(getEnvInt("PACKAGE_REMINDER_EVERY_HOURS", 12)) * time.Hour,
			NotifyWorkerCount:      getEnvInt("JOB_NOTIFY_WORKERS", 4),
			RetryAnnouncementNotif: getEnvInt("JOB_RETRY_ANNOUNCEMENT_NOTIFY", 5),
			RetryPackageReminder:   getEnvInt("JOB_RETRY_PACKAGE_REMINDER", 3),
		},
		ManagerBootstrap: ManagerBootstrapConfig{
			Email:    getEnv("MANAGER_EMAIL", ""),
			Password: getEnv("MANAGER_PASSWORD", ""),
			Name:     getEnv("MANAGER_NAME", ""),
			Building: getEnv("MANAGER_BUILDING_CODE", ""),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.Enabled && cfg.Email.APIKey == "" {
		return Config{}, fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED=true")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
