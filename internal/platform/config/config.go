// Package config builds the service configuration from environment
// variables so main stays lean. Every value has a development default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Ledger backends.
const (
	LedgerWallet = "wallet"
	LedgerMemory = "memory"
)

const devSigningKey = "dev-signing-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      Server
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Ledger      LedgerConfig
	Signer      SignerConfig
	Orphans     OrphanConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

type StoreConfig struct {
	Backend          string
	FilePath         string
	OrphanFilePath   string
	CorruptionPolicy string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is empty-broker safe: without brokers audit events stay in memory.
type KafkaConfig struct {
	Brokers    string
	AuditTopic string
	Acks       string
	Retries    int
	Timeout    time.Duration
}

type LedgerConfig struct {
	Backend   string
	WalletURL string
	APIKey    string
	Timeout   time.Duration
}

type SignerConfig struct {
	SigningKey  string
	CertifierID string
}

type OrphanConfig struct {
	ReclaimInterval time.Duration
	MaxAttempts     int
}

// FromEnv reads the configuration and validates backend names.
func FromEnv() (Config, error) {
	cfg := Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: Server{
			Addr:            getEnv("CERTIFIER_ADDR", ":8080"),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedProxies:  getList("TRUSTED_PROXIES"),
		},
		Store: StoreConfig{
			Backend:          getEnv("STORE_BACKEND", BackendFile),
			FilePath:         getEnv("STORE_FILE_PATH", "data/revocation-secrets.json"),
			OrphanFilePath:   getEnv("ORPHAN_FILE_PATH", "data/revocation-orphans.json"),
			CorruptionPolicy: getEnv("STORE_CORRUPTION_POLICY", "degrade"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    os.Getenv("KAFKA_BROKERS"),
			AuditTopic: getEnv("AUDIT_TOPIC", "certifier.audit"),
			Acks:       getEnv("KAFKA_ACKS", "all"),
			Retries:    getInt("KAFKA_RETRIES", 3),
			Timeout:    getDuration("KAFKA_DELIVERY_TIMEOUT", 30*time.Second),
		},
		Ledger: LedgerConfig{
			Backend:   getEnv("LEDGER_BACKEND", LedgerMemory),
			WalletURL: os.Getenv("WALLET_URL"),
			APIKey:    os.Getenv("WALLET_API_KEY"),
			Timeout:   getDuration("WALLET_TIMEOUT", 30*time.Second),
		},
		Signer: SignerConfig{
			// Use a default for development - should be overridden in production
			SigningKey:  getEnv("CERTIFIER_SIGNING_KEY", devSigningKey),
			CertifierID: getEnv("CERTIFIER_ID", "certifier-dev"),
		},
		Orphans: OrphanConfig{
			ReclaimInterval: getDuration("ORPHAN_RECLAIM_INTERVAL", 10*time.Minute),
			MaxAttempts:     getInt("ORPHAN_MAX_ATTEMPTS", 5),
		},
	}
	return cfg, cfg.Validate()
}

// Validate checks the combinations FromEnv cannot default away.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Ledger.Backend {
	case LedgerMemory:
	case LedgerWallet:
		if c.Ledger.WalletURL == "" {
			return fmt.Errorf("LEDGER_BACKEND=wallet requires WALLET_URL")
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}

	if c.IsProduction() && c.Signer.SigningKey == devSigningKey {
		return fmt.Errorf("CERTIFIER_SIGNING_KEY must be set in production")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
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
