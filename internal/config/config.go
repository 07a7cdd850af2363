package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration. It is built once at startup
// and handed to the components that need it.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    LoggerConfig    `yaml:"logger"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Reviews   ReviewsConfig   `yaml:"reviews"`
	Notify    NotifyConfig    `yaml:"notify"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	S3        S3Config        `yaml:"s3"`
	Seed      SeedConfig      `yaml:"seed"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	Database        string `yaml:"name" env:"DB_NAME" env-default:"storefront"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConnections  int    `yaml:"max_connections" env:"DB_MAX_CONNECTIONS" env-default:"25"`
	MinConnections  int    `yaml:"min_connections" env:"DB_MIN_CONNECTIONS" env-default:"5"`
	MaxConnLifetime int    `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" env-default:"300"` // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"` // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey     string `yaml:"api_key" env:"API_KEY"`
	BcryptCost int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// SessionConfig holds the admin session cookie policy. Admin login is
// disabled when Key is empty.
type SessionConfig struct {
	Key        string        `yaml:"key" env:"SESSION_KEY"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"storefront_admin"`
	Domain     string        `yaml:"domain" env:"SESSION_COOKIE_DOMAIN"`
	Secure     bool          `yaml:"secure" env:"SESSION_COOKIE_SECURE" env-default:"true"`
	SameSite   string        `yaml:"same_site" env:"SESSION_COOKIE_SAMESITE" env-default:"lax"`
	MaxAge     time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"24h"`
	RememberMe time.Duration `yaml:"remember_me" env:"SESSION_REMEMBER_ME" env-default:"720h"`
}

// PricingConfig holds the tax and shipping rules as decimal strings.
type PricingConfig struct {
	TaxRate               string `yaml:"tax_rate" env:"PRICING_TAX_RATE" env-default:"0.10"`
	FreeShippingThreshold string `yaml:"free_shipping_threshold" env:"PRICING_FREE_SHIPPING_THRESHOLD" env-default:"50.00"`
	ShippingCost          string `yaml:"shipping_cost" env:"PRICING_SHIPPING_COST" env-default:"5.99"`
}

// ReviewsConfig holds review moderation and reconciliation settings.
type ReviewsConfig struct {
	AutoApprove       bool          `yaml:"auto_approve" env:"REVIEWS_AUTO_APPROVE" env-default:"true"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval" env:"REVIEWS_RECONCILE_INTERVAL" env-default:"15m"`
}

// NotifyConfig holds notification dispatch settings.
type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"NOTIFY_TIMEOUT" env-default:"5s"`
}

// RedisConfig holds the product cache connection.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"10m"`
}

// KafkaConfig holds the notification event producer settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"storefront.notifications"`
}

// S3Config holds AWS S3 configuration for seed files.
type S3Config struct {
	Enabled bool   `yaml:"enabled" env:"S3_ENABLED" env-default:"false"`
	Bucket  string `yaml:"bucket" env:"S3_BUCKET"`
	Region  string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Prefix  string `yaml:"prefix" env:"S3_PREFIX" env-default:"seed/"` // Path prefix within bucket
}

// SeedConfig holds the local seed data location.
type SeedConfig struct {
	Dir string `yaml:"dir" env:"SEED_DIR" env-default:"data/seed"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_ENDPOINT" env-default:"localhost:4318"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"storefront"`
}

// Load reads configuration from the YAML file named by CONFIG_PATH, if set,
// and from environment variables, which take precedence.
func Load() (*Config, error) {
	var cfg Config

	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if err := c.Database.validate(); err != nil {
		return err
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt cost: %d (must be between 4 and 31)", c.Auth.BcryptCost)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Session.Key != "" && len(c.Session.Key) < 32 {
		return fmt.Errorf("session key must be at least 32 bytes")
	}

	switch c.Session.SameSite {
	case "", "lax", "strict", "none":
	default:
		return fmt.Errorf("invalid session same site mode: %s (must be lax, strict, or none)", c.Session.SameSite)
	}

	if c.Session.SameSite == "none" && !c.Session.Secure {
		return fmt.Errorf("session cookies with same site none must be secure")
	}

	for name, value := range map[string]string{
		"tax rate":                c.Pricing.TaxRate,
		"free shipping threshold": c.Pricing.FreeShippingThreshold,
		"shipping cost":           c.Pricing.ShippingCost,
	} {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("invalid pricing %s: %q", name, value)
		}
		if d.IsNegative() {
			return fmt.Errorf("pricing %s must not be negative", name)
		}
	}

	if c.Reviews.ReconcileInterval < 0 {
		return fmt.Errorf("review reconcile interval must not be negative")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		sslMode,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
