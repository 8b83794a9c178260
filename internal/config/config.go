package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	AccrualSpec string `mapstructure:"SCHEDULER_ACCRUAL_SPEC"`
	DueSoonSpec string `mapstructure:"SCHEDULER_DUE_SOON_SPEC"`
	DueSoonDays int    `mapstructure:"SCHEDULER_DUE_SOON_DAYS"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	// MonthlyInterestRate is the cooperative-wide declining balance rate.
	MonthlyInterestRate string `mapstructure:"MONTHLY_INTEREST_RATE"`
	// LateFeeRate is the share of the installment charged per missed month.
	LateFeeRate string `mapstructure:"LATE_FEE_RATE"`
	// SavingsMultiplier caps a loan at multiplier times the member's savings.
	SavingsMultiplier string `mapstructure:"SAVINGS_MULTIPLIER"`
	TxRetries         int    `mapstructure:"TX_RETRIES"`
	StatsCacheTTL     string `mapstructure:"STATS_CACHE_TTL"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("MONTHLY_INTEREST_RATE", "0.015")
	viper.SetDefault("LATE_FEE_RATE", "0.03")
	viper.SetDefault("SAVINGS_MULTIPLIER", "2")
	viper.SetDefault("TX_RETRIES", 3)
	viper.SetDefault("STATS_CACHE_TTL", "30s")
	viper.SetDefault("SCHEDULER_ACCRUAL_SPEC", "0 0 0 * * *")
	viper.SetDefault("SCHEDULER_DUE_SOON_SPEC", "0 0 9 * * *")
	viper.SetDefault("SCHEDULER_DUE_SOON_DAYS", 3)
	viper.SetDefault("SCHEDULER_TIMEZONE", "Africa/Nairobi")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if _, err := decimal.NewFromString(c.Business.MonthlyInterestRate); err != nil {
		return fmt.Errorf("MONTHLY_INTEREST_RATE must be a valid decimal: %w", err)
	}

	if _, err := decimal.NewFromString(c.Business.LateFeeRate); err != nil {
		return fmt.Errorf("LATE_FEE_RATE must be a valid decimal: %w", err)
	}

	multiplier, err := decimal.NewFromString(c.Business.SavingsMultiplier)
	if err != nil {
		return fmt.Errorf("SAVINGS_MULTIPLIER must be a valid decimal: %w", err)
	}
	if !multiplier.GreaterThan(decimal.Zero) {
		return fmt.Errorf("SAVINGS_MULTIPLIER must be greater than 0")
	}

	if c.Business.TxRetries <= 0 {
		return fmt.Errorf("TX_RETRIES must be greater than 0")
	}

	if _, err := time.ParseDuration(c.Business.StatsCacheTTL); err != nil {
		return fmt.Errorf("STATS_CACHE_TTL must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be a valid duration: %w", err)
	}

	if c.Scheduler.DueSoonDays <= 0 {
		return fmt.Errorf("SCHEDULER_DUE_SOON_DAYS must be greater than 0")
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetMonthlyInterestRate returns the per-period interest rate as decimal
func (c *Config) GetMonthlyInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.MonthlyInterestRate)
	return rate
}

// GetLateFeeRate returns the late penalty rate as decimal
func (c *Config) GetLateFeeRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.LateFeeRate)
	return rate
}

// GetSavingsMultiplier returns the eligibility cap multiplier as decimal
func (c *Config) GetSavingsMultiplier() decimal.Decimal {
	m, _ := decimal.NewFromString(c.Business.SavingsMultiplier)
	return m
}

// GetStatsCacheTTL returns the dashboard cache lifetime as duration
func (c *Config) GetStatsCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.StatsCacheTTL)
	return ttl
}

// GetReadTimeout returns the HTTP server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the HTTP server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}
