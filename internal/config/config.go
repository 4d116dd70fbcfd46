package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/internal/ledger"
	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreBadger   = "badger"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Ledger   LedgerConfig
	Store    StoreConfig
	JWT      JWTConfig
	Temporal TemporalConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string
	Environment  string // development, staging, production
	LogLevel     string // debug, info, warn, error
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LedgerConfig holds the administrator identity and booking policy
type LedgerConfig struct {
	AdminAddress       string
	OverpaymentPolicy  string // retain or refund
	DemoFlightEnabled  bool
	DemoFlightOffset   time.Duration
	DemoFlightCapacity int
}

// StoreConfig selects where ledger snapshots are persisted
type StoreConfig struct {
	Backend            string // memory, postgres, badger
	DatabaseURL        string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	BadgerDir          string
	GCSchedule         string // cron spec with seconds
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret      string
	Expiry      time.Duration
	LoginWindow time.Duration // maximum age of a signed login request
}

// TemporalConfig holds the refund settlement workflow settings
type TemporalConfig struct {
	Enabled                    bool
	Host                       string
	Namespace                  string
	TaskQueue                  string
	RefundAuthorizationTimeout time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env files (if present) and then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("API_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Ledger: LedgerConfig{
			AdminAddress:       getEnv("ADMIN_ADDRESS", ""),
			OverpaymentPolicy:  getEnv("OVERPAYMENT_POLICY", string(ledger.OverpaymentRetain)),
			DemoFlightEnabled:  getEnvAsBool("DEMO_FLIGHT_ENABLED", true),
			DemoFlightOffset:   getEnvAsDuration("DEMO_FLIGHT_OFFSET", 100*24*time.Hour),
			DemoFlightCapacity: getEnvAsInt("DEMO_FLIGHT_CAPACITY", 100),
		},
		Store: StoreConfig{
			Backend:            getEnv("STORE_BACKEND", StoreMemory),
			DatabaseURL:        getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			BadgerDir:          getEnv("BADGER_DIR", "./data/ledger"),
			GCSchedule:         getEnv("BADGER_GC_SCHEDULE", "0 */10 * * * *"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			Expiry:      getEnvAsDuration("JWT_EXPIRY", time.Hour),
			LoginWindow: getEnvAsDuration("LOGIN_WINDOW", 5*time.Minute),
		},
		Temporal: TemporalConfig{
			Enabled:                    getEnvAsBool("TEMPORAL_ENABLED", false),
			Host:                       getEnv("TEMPORAL_HOST", "localhost:7233"),
			Namespace:                  getEnv("TEMPORAL_NAMESPACE", "default"),
			TaskQueue:                  getEnv("TEMPORAL_TASK_QUEUE", "refund-settlement-queue"),
			RefundAuthorizationTimeout: getEnvAsDuration("REFUND_AUTHORIZATION_TIMEOUT", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Ledger.AdminAddress == "" {
		return fmt.Errorf("ADMIN_ADDRESS is required")
	}
	if err := wallet.Address(c.Ledger.AdminAddress).Validate(); err != nil {
		return fmt.Errorf("ADMIN_ADDRESS: %w", err)
	}

	switch ledger.OverpaymentPolicy(c.Ledger.OverpaymentPolicy) {
	case ledger.OverpaymentRetain, ledger.OverpaymentRefund:
	default:
		return fmt.Errorf("invalid OVERPAYMENT_POLICY: %s (must be 'retain' or 'refund')", c.Ledger.OverpaymentPolicy)
	}

	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET is required and must be at least 16 characters")
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreBadger:
		if c.Store.BadgerDir == "" {
			return fmt.Errorf("BADGER_DIR is required for the badger store")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %s (must be 'memory', 'postgres' or 'badger')", c.Store.Backend)
	}

	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		return fmt.Errorf("TEMPORAL_TASK_QUEUE is required when Temporal is enabled")
	}
	return nil
}

// LedgerOptions converts the settings into the ledger's own config
func (c *Config) LedgerOptions() ledger.Config {
	return ledger.Config{
		Admin:             wallet.Address(c.Ledger.AdminAddress),
		OverpaymentPolicy: ledger.OverpaymentPolicy(c.Ledger.OverpaymentPolicy),
		DemoFlight: ledger.DemoFlightConfig{
			Enabled:         c.Ledger.DemoFlightEnabled,
			DepartureOffset: c.Ledger.DemoFlightOffset,
			Capacity:        c.Ledger.DemoFlightCapacity,
		},
	}
}

// NewLogger builds the JSON logger used across the service
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.Server.LogLevel)
	if err != nil {
		logger.WithField("level", c.Server.LogLevel).Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.Warnf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
