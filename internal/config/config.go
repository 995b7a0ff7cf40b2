// Package config loads application configuration from environment
// variables. A .env file in the working directory is read first when
// present; variables already set in the environment win.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by STORE_BACKEND and LOCK_BACKEND.
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Notifier names accepted by NOTIFIER.
const (
	NotifierLog      = "log"
	NotifierRabbitMQ = "rabbitmq"
	NotifierEmail    = "email"
)

// Config holds all runtime configuration values of the API server and the
// notifier worker. Each field corresponds to an environment variable.
type Config struct {
	Env      string // APP_ENV: dev, test or prod
	Port     string // APP_PORT
	LogLevel string // LOG_LEVEL: logrus level name

	StoreBackend string // STORE_BACKEND: memory, mysql or redis
	LockBackend  string // LOCK_BACKEND: memory or redis
	LockTTL      time.Duration
	SeedCatalog  bool // SEED_CATALOG: load the default shows on startup

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string
	// DB_IO_TIMEOUT bounds each MySQL read and write. With the Redis lock
	// it must stay well below LOCK_TTL so a stalled query cannot outlive
	// the lock.
	DBIOTimeout time.Duration

	RabbitMQURL   string
	Notifier      string // NOTIFIER: log, rabbitmq or email
	NotifyTimeout time.Duration
	ResendAPIKey  string
	MailFrom      string
	OrderLogPath  string // ORDER_LOG_PATH: append-only log written by the worker

	CORSOrigins []string
}

// Load reads the configuration. It fails when a value is malformed or
// when a selected backend is missing the variables it needs.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envStr("APP_PORT", "8080"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(envStr("STORE_BACKEND", BackendMemory)),
		LockBackend:  strings.ToLower(envStr("LOCK_BACKEND", BackendMemory)),
		LockTTL:      envDur("LOCK_TTL", 10*time.Second),
		SeedCatalog:  envBool("SEED_CATALOG", true),

		DBUser: os.Getenv("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: envStr("DB_HOST", "127.0.0.1"),
		DBPort: envStr("DB_PORT", "3306"),
		DBName: os.Getenv("DB_NAME"),

		DBIOTimeout: envDur("DB_IO_TIMEOUT", 2*time.Second),

		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		Notifier:      strings.ToLower(envStr("NOTIFIER", NotifierLog)),
		NotifyTimeout: envDur("NOTIFY_TIMEOUT", 10*time.Second),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		MailFrom:      os.Getenv("MAIL_FROM"),
		OrderLogPath:  envStr("ORDER_LOG_PATH", "logs/orders.log"),

		CORSOrigins: splitList(envStr("CORS_ORIGINS", "*")),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendMySQL:
		if c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("STORE_BACKEND=mysql requires DB_USER and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.LockBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.LockBackend)
	}
	switch c.Notifier {
	case NotifierLog:
	case NotifierRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("NOTIFIER=rabbitmq requires RABBITMQ_URL")
		}
	case NotifierEmail:
		if c.ResendAPIKey == "" {
			return fmt.Errorf("NOTIFIER=email requires RESEND_API_KEY")
		}
	default:
		return fmt.Errorf("unknown NOTIFIER %q", c.Notifier)
	}
	if c.LockTTL <= 0 || c.NotifyTimeout <= 0 || c.DBIOTimeout <= 0 {
		return fmt.Errorf("LOCK_TTL, NOTIFY_TIMEOUT and DB_IO_TIMEOUT must be positive")
	}
	if c.StoreBackend == BackendMySQL && c.LockBackend == BackendRedis && 4*c.DBIOTimeout > c.LockTTL {
		return fmt.Errorf("DB_IO_TIMEOUT (%s) must be at most a quarter of LOCK_TTL (%s)", c.DBIOTimeout, c.LockTTL)
	}
	return nil
}

// IsDev reports whether the server runs in local development mode.
func (c Config) IsDev() bool { return c.Env == "dev" }

// NeedsRedis reports whether any selected backend talks to Redis.
func (c Config) NeedsRedis() bool {
	return c.StoreBackend == BackendRedis || c.LockBackend == BackendRedis
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
