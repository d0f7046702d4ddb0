package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the application settings.
type Config struct {
	AppName  string
	Env      string
	Port     string
	LogLevel string

	DBDriver       string
	DatabaseDSN    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	RabbitMQURL   string
	RabbitMQQueue string

	OTLPEndpoint    string
	OTelServiceName string

	DocsFile             string
	ProductIDMaxAttempts int
}

// TelemetryEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TelemetryEnabled() bool { return c.OTLPEndpoint != "" }

// MessagingEnabled reports whether a RabbitMQ URL is configured.
func (c *Config) MessagingEnabled() bool { return c.RabbitMQURL != "" }

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v after applying defaults and binding the
// environment.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppName:              v.GetString("APP_NAME"),
		Env:                  v.GetString("APP_ENV"),
		Port:                 v.GetString("APP_PORT"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		DBDriver:             strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:          v.GetString("DATABASE_DSN"),
		DBMaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
		RabbitMQURL:          v.GetString("RABBITMQ_URL"),
		RabbitMQQueue:        v.GetString("RABBITMQ_QUEUE"),
		OTLPEndpoint:         v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTelServiceName:      v.GetString("OTEL_SERVICE_NAME"),
		DocsFile:             v.GetString("DOCS_FILE"),
		ProductIDMaxAttempts: v.GetInt("PRODUCT_ID_MAX_ATTEMPTS"),
	}
	if cfg.OTelServiceName == "" {
		cfg.OTelServiceName = cfg.AppName
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "product-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "products.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "")
	v.SetDefault("DOCS_FILE", "./docs/swagger.json")
	v.SetDefault("PRODUCT_ID_MAX_ATTEMPTS", 10)
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for driver %q", c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, sqlite or memory)", c.DBDriver)
	}
	if c.ProductIDMaxAttempts <= 0 {
		return fmt.Errorf("PRODUCT_ID_MAX_ATTEMPTS must be positive, got %d", c.ProductIDMaxAttempts)
	}
	return nil
}
