package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Events    EventsConfig    `mapstructure:"events"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

// EventsConfig covers the inbound order-event integration.
type EventsConfig struct {
	// Secret shared with the order subsystem; every event payload must
	// carry a matching HMAC-SHA256 signature.
	Secret string `mapstructure:"secret"`
}

// LedgerConfig holds the accounting rules of the wallet ledger.
type LedgerConfig struct {
	HoldPeriod            time.Duration `mapstructure:"hold_period"`             // delivered -> releasable
	MinWithdrawal         int64         `mapstructure:"min_withdrawal"`          // smallest currency unit
	WithdrawalFee         int64         `mapstructure:"withdrawal_fee"`          // flat fee per request
	DefaultCommissionRate string        `mapstructure:"default_commission_rate"` // decimal in [0,1]
	CommissionCacheTTL    time.Duration `mapstructure:"commission_cache_ttl"`
}

// CommissionRate parses the configured default commission rate.
func (l LedgerConfig) CommissionRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(l.DefaultCommissionRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing commission rate %q: %w", l.DefaultCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("commission rate %s outside [0,1]", rate)
	}
	return rate, nil
}

type SchedulerConfig struct {
	ReleaseInterval  time.Duration `mapstructure:"release_interval"`
	RolloverInterval time.Duration `mapstructure:"rollover_interval"`
	ReleaseBatchSize int           `mapstructure:"release_batch_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SWL_ (Supplier
// Wallet Ledger). Nested keys use underscore: SWL_DATABASE_HOST, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "supplier_wallet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "supplier-wallet-service")
	v.SetDefault("events.secret", "")
	v.SetDefault("ledger.hold_period", "168h") // 7 days
	v.SetDefault("ledger.min_withdrawal", 50000)
	v.SetDefault("ledger.withdrawal_fee", 0)
	v.SetDefault("ledger.default_commission_rate", "0.10")
	v.SetDefault("ledger.commission_cache_ttl", "1h")
	v.SetDefault("scheduler.release_interval", "1h")
	v.SetDefault("scheduler.rollover_interval", "6h")
	v.SetDefault("scheduler.release_batch_size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SWL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
