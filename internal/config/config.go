package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Env             string
	ServerAddr      string
	FrontendOrigins []string
	Timezone        *time.Location
	TrustProxy      bool

	StoreBackend string
	MongoURI     string
	MongoDB      string

	RedisURL        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	AdminAPIKey       string
	AdminUser         string
	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	AccessTTLMinutes  int
	RefreshTTLMinutes int
	CookieSecure      bool

	LoginMaxAttempts int
	LoginWindowSec   int
	LoginLockoutSec  int

	SubmissionThrottle   bool
	SubmissionRatePerMin int
	SubmissionBurst      int

	NotifyEmail      string
	BrevoAPIKey      string
	BrevoSenderEmail string
	BrevoSenderName  string
	BrevoSandbox     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPFrom         string

	LogLevel  string
	LogFormat string
	LogFile   string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first; variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	loc, err := time.LoadLocation(getEnv("TZ", "UTC"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		ServerAddr:           getEnv("SERVER_ADDR", ":8080"),
		FrontendOrigins:      splitList(getEnv("FRONTEND_ORIGINS", "http://localhost:3000")),
		Timezone:             loc,
		TrustProxy:           getEnvBool("TRUST_PROXY", false),
		MongoURI:             getEnv("MONGO_URI", ""),
		MongoDB:              getEnv("MONGO_DB", "portfolio"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds:      getEnvInt("CACHE_TTL_SECONDS", 60),
		AdminAPIKey:          getEnv("ADMIN_API_KEY", ""),
		AdminUser:            getEnv("ADMIN_USER", "admin"),
		AdminPassword:        getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash:    getEnv("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		AccessTTLMinutes:     getEnvInt("ACCESS_TTL_MINUTES", 60),
		RefreshTTLMinutes:    getEnvInt("REFRESH_TTL_MINUTES", 10080),
		CookieSecure:         getEnvBool("COOKIE_SECURE", false),
		LoginMaxAttempts:     getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowSec:       getEnvInt("LOGIN_WINDOW_SEC", 900),
		LoginLockoutSec:      getEnvInt("LOGIN_LOCKOUT_SEC", 1800),
		SubmissionThrottle:   getEnvBool("SUBMISSION_THROTTLE", false),
		SubmissionRatePerMin: getEnvInt("SUBMISSION_RATE_PER_MIN", 6),
		SubmissionBurst:      getEnvInt("SUBMISSION_BURST", 3),
		NotifyEmail:          getEnv("NOTIFY_EMAIL", ""),
		BrevoAPIKey:          getEnv("BREVO_API_KEY", ""),
		BrevoSenderEmail:     getEnv("BREVO_SENDER_EMAIL", ""),
		BrevoSenderName:      getEnv("BREVO_SENDER_NAME", ""),
		BrevoSandbox:         getEnvBool("BREVO_SANDBOX", false),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:             getEnv("SMTP_FROM", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		LogFile:              getEnv("LOG_FILE", ""),
	}
	cfg.StoreBackend, err = resolveBackend(getEnv("STORE_BACKEND", ""), cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

// resolveBackend honours STORE_BACKEND when set and otherwise picks the most
// durable store the connection settings allow.
func resolveBackend(explicit string, cfg *Config) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(explicit)); v {
	case StoreMongo, StoreRedis, StoreMemory:
		return v, nil
	case "":
	default:
		return "", fmt.Errorf("unknown STORE_BACKEND %q (want mongo, redis or memory)", explicit)
	}
	if cfg.MongoURI != "" {
		return StoreMongo, nil
	}
	if cfg.HasRedis() {
		return StoreRedis, nil
	}
	return StoreMemory, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
