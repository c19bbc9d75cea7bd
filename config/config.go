package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Closer     CloserConfig
	Settlement SettlementConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	LogLevel     string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the ledger backend: "memory" or "mysql"
type StoreConfig struct {
	Driver       string
	QueryTimeout time.Duration
	MaxRetries   uint64
	SeedDemo     bool
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	WebhookSecret string
}

type CloserConfig struct {
	Interval  time.Duration
	BatchSize int
	Workers   int
	LockTTL   time.Duration
}

type SettlementConfig struct {
	Provider          string
	Currency          string
	MaxAttempts       int
	PaymentTimeout    time.Duration
	ReconcileInterval time.Duration
}

// KafkaConfig enables the Kafka event publisher when Brokers is non-empty
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig enables the distributed sweep lock when Addr is non-empty
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DefaultJWTSecret is only accepted when APP_ENV is development
const DefaultJWTSecret = "change-me-in-production"

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver:       getEnv("STORE_DRIVER", "memory"),
			QueryTimeout: getDuration("STORE_QUERY_TIMEOUT", 3*time.Second),
			MaxRetries:   uint64(max(getInt("STORE_TX_MAX_RETRIES", 5), 0)),
			SeedDemo:     getBool("STORE_SEED_DEMO", true),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_DSN", "auction:auction@tcp(localhost:3306)/auction?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
			Issuer:        getEnv("JWT_ISSUER", "auction-market"),
			WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		},
		Closer: CloserConfig{
			Interval:  getDuration("CLOSER_INTERVAL", 5*time.Second),
			BatchSize: getInt("CLOSER_BATCH_SIZE", 100),
			Workers:   getInt("CLOSER_WORKERS", 4),
			LockTTL:   getDuration("CLOSER_LOCK_TTL", 30*time.Second),
		},
		Settlement: SettlementConfig{
			Provider:          getEnv("PAYMENT_PROVIDER", "MOCK"),
			Currency:          getEnv("PAYMENT_CURRENCY", "USD"),
			MaxAttempts:       getInt("PAYMENT_MAX_ATTEMPTS", 3),
			PaymentTimeout:    getDuration("PAYMENT_TIMEOUT", 48*time.Hour),
			ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "auction-events"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
	}
}

// Validate rejects settings that are unsafe outside local development:
// the placeholder JWT secret and a missing payment webhook secret.
func (c *Config) Validate() error {
	if c.Server.Env == "development" {
		return nil
	}
	var errs []error
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if c.Auth.WebhookSecret == "" {
		errs = append(errs, errors.New("PAYMENT_WEBHOOK_SECRET must be set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: invalid %s configuration: %w", c.Server.Env, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
