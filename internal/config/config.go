package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Token lifetimes
// follow the scale of their purpose: access tokens live minutes,
// refresh tokens days, email-verification tokens hours and
// password-reset tokens minutes.
type Config struct {
	Env  string // application environment (dev, test, prod)
	Port string // HTTP port to listen on

	StoreDriver string // "memory" (default) or "mysql"
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string

	JWTSecret       string // secret used to sign all bearer credentials
	AccessTTLMin    int    // access token TTL in minutes
	RefreshTTLDays  int    // refresh token TTL in days
	EmailTTLHours   int    // email-verification token TTL in hours
	ResetTTLMin     int    // password-reset token TTL in minutes

	UploadDir string // directory for uploaded avatars and post images
	BaseURL   string // public base URL used when building emailed links
}

// Load reads configuration from the environment, consulting a local
// .env file first when present. The JWT secret has no safe default
// and aborts startup when unset outside dev.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "8000"),
		StoreDriver:    getenv("STORE_DRIVER", "memory"),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         getenv("DB_NAME", "social_feed"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		EmailTTLHours:  envInt("EMAIL_TOKEN_TTL_HOURS", 24),
		ResetTTLMin:    envInt("RESET_TOKEN_TTL_MIN", 30),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		BaseURL:        getenv("PUBLIC_BASE_URL", "http://localhost:8000"),
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			log.Fatalf("missing required env var: JWT_SECRET")
		}
		cfg.JWTSecret = "supersecret"
	}
	return cfg
}

// AccessTTL, RefreshTTL, EmailTTL and ResetTTL expose the configured
// lifetimes as durations.
func (c Config) AccessTTL() time.Duration  { return time.Duration(c.AccessTTLMin) * time.Minute }
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }
func (c Config) EmailTTL() time.Duration   { return time.Duration(c.EmailTTLHours) * time.Hour }
func (c Config) ResetTTL() time.Duration   { return time.Duration(c.ResetTTLMin) * time.Minute }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
