package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type AppConfig struct {
	Env string `yaml:"env"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerURL string `yaml:"swagger_url"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`

	MinConns             int32 `yaml:"min_conns"`
	MaxConns             int32 `yaml:"max_conns"`
	AcquireTimeoutMs     int   `yaml:"acquire_timeout_ms"`
	StatementTimeoutMs   int   `yaml:"statement_timeout_ms"`
	SlowQueryThresholdMs int   `yaml:"slow_query_threshold_ms"`
	SlowQueryLogSize     int   `yaml:"slow_query_log_size"`
	MigrateOnStart       bool  `yaml:"migrate_on_start"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (d DatabaseConfig) AcquireTimeout() time.Duration {
	return time.Duration(d.AcquireTimeoutMs) * time.Millisecond
}

func (d DatabaseConfig) StatementTimeout() time.Duration {
	return time.Duration(d.StatementTimeoutMs) * time.Millisecond
}

func (d DatabaseConfig) SlowQueryThreshold() time.Duration {
	return time.Duration(d.SlowQueryThresholdMs) * time.Millisecond
}

type RedisConfig struct {
	Addr             string `yaml:"addr"`
	Password         string `yaml:"password"`
	DB               int    `yaml:"db"`
	CommandTimeoutMs int    `yaml:"command_timeout_ms"`
}

func (r RedisConfig) CommandTimeout() time.Duration {
	return time.Duration(r.CommandTimeoutMs) * time.Millisecond
}

type CacheConfig struct {
	Enabled           bool `yaml:"enabled"`
	DefaultTTLSeconds int  `yaml:"default_ttl_seconds"`
	SweepSeconds      int  `yaml:"sweep_seconds"`
}

func (c CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	PaymentsTopic      string   `yaml:"payments_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	// HoldPending makes pending bookings block their dates.
	HoldPending  bool   `yaml:"hold_pending"`
	SystemUserID string `yaml:"system_user_id"`
}

type PricingConfig struct {
	ServiceFeeBps   int64 `yaml:"service_fee_bps"`
	InsuranceFeeBps int64 `yaml:"insurance_fee_bps"`
}

type WorkerConfig struct {
	ActivateSchedule string `yaml:"activate_schedule"`
	ExpireSchedule   string `yaml:"expire_schedule"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// keys absent from the file keep these values; an explicit zero fee stays zero
	cfg := Config{Pricing: PricingConfig{ServiceFeeBps: 500, InsuranceFeeBps: 300}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("APP_ENV"); val != "" {
		c.App.Env = val
	}
	if val := os.Getenv("HTTP_ADDRESS"); val != "" {
		c.HTTP.Address = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Database.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Name = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.AcquireTimeoutMs == 0 {
		c.Database.AcquireTimeoutMs = 2000
	}
	if c.Database.SlowQueryThresholdMs == 0 {
		c.Database.SlowQueryThresholdMs = 200
	}
	if c.Database.SlowQueryLogSize == 0 {
		c.Database.SlowQueryLogSize = 50
	}
	if c.Redis.CommandTimeoutMs == 0 {
		c.Redis.CommandTimeoutMs = 100
	}
	if c.Cache.DefaultTTLSeconds == 0 {
		c.Cache.DefaultTTLSeconds = 60
	}
	if c.Cache.SweepSeconds == 0 {
		c.Cache.SweepSeconds = 30
	}
	if c.Booking.SystemUserID == "" {
		c.Booking.SystemUserID = "00000000-0000-0000-0000-000000000000"
	}
	if c.Worker.ActivateSchedule == "" {
		c.Worker.ActivateSchedule = "0 5 0 * * *"
	}
	if c.Worker.ExpireSchedule == "" {
		c.Worker.ExpireSchedule = "0 15 0 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the settings that have no sensible default.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database host is required")
	}
	if c.Database.Name == "" {
		return errors.New("database name is required")
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns < 1 {
		return fmt.Errorf("invalid pool bounds: min=%d max=%d", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Pricing.ServiceFeeBps < 0 || c.Pricing.InsuranceFeeBps < 0 {
		return errors.New("fee rates must not be negative")
	}
	return nil
}
