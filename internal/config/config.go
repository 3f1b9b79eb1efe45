// Package config loads storefront settings from defaults, an optional config
// file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Backend         string
	HTTPPort        int
	GRPCPort        int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	Pricing      pricing.Rules
	ItemsPerPage int
	Currency     string

	DataDir        string
	SQLitePath     string
	MigrationsPath string

	DB       DBConfig
	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	KafkaTopic   string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BACKEND", BackendLocal)
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("GRPC_PORT", 50060)
	v.SetDefault("REQUEST_TIMEOUT", "5s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SHIPPING_THRESHOLD", "99")
	v.SetDefault("SHIPPING_FEE", "10")
	v.SetDefault("TAX_RATE", "0.08")
	v.SetDefault("ITEMS_PER_PAGE", 12)
	v.SetDefault("CURRENCY", "CNY")

	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("SQLITE_PATH", "./data/storefront.db")
	v.SetDefault("MIGRATIONS_PATH", "./internal/repository/migrations")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "storefront-orders")
}

// Load reads the configuration. configFile may be empty.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	rules, err := pricingRules(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Backend:         strings.ToLower(v.GetString("BACKEND")),
		HTTPPort:        v.GetInt("HTTP_PORT"),
		GRPCPort:        v.GetInt("GRPC_PORT"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		LogLevel:        v.GetString("LOG_LEVEL"),

		Pricing:      rules,
		ItemsPerPage: v.GetInt("ITEMS_PER_PAGE"),
		Currency:     v.GetString("CURRENCY"),

		DataDir:        v.GetString("DATA_DIR"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
		MongoURI: v.GetString("MONGO_URI"),
		MongoDB:  v.GetString("MONGO_DB_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend != BackendLocal && c.Backend != BackendRemote {
		errs = append(errs, fmt.Errorf("%w: BACKEND must be %q or %q, got %q", ErrInvalidConfig, BackendLocal, BackendRemote, c.Backend))
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("%w: HTTP_PORT out of range: %d", ErrInvalidConfig, c.HTTPPort))
	}
	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		errs = append(errs, fmt.Errorf("%w: GRPC_PORT out of range: %d", ErrInvalidConfig, c.GRPCPort))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", ErrInvalidConfig))
	}
	if c.ItemsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("%w: ITEMS_PER_PAGE must be positive", ErrInvalidConfig))
	}
	if err := c.Pricing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if c.Backend == BackendRemote && len(c.KafkaBrokers) == 0 {
		errs = append(errs, fmt.Errorf("%w: KAFKA_BROKERS required for remote backend", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

func pricingRules(v *viper.Viper) (pricing.Rules, error) {
	var rules pricing.Rules
	var err error
	if rules.ShippingThreshold, err = decimalKey(v, "SHIPPING_THRESHOLD"); err != nil {
		return rules, err
	}
	if rules.ShippingFee, err = decimalKey(v, "SHIPPING_FEE"); err != nil {
		return rules, err
	}
	if rules.TaxRate, err = decimalKey(v, "TAX_RATE"); err != nil {
		return rules, err
	}
	return rules, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.GetString(key))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
