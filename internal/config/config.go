// Package config provides configuration management for the dashboard service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Simulator     SimulatorConfig
	Notifications NotificationConfig
	Swap          SwapConfig
	Wallet        WalletConfig
	Seed          SeedConfig
	Advisor       AdvisorConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	Logging       LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// SimulatorConfig holds price simulator configuration
type SimulatorConfig struct {
	TickInterval time.Duration
	GasMin       int
	GasMax       int
	GasSeed      int
}

// NotificationConfig holds notification queue configuration
type NotificationConfig struct {
	TTL time.Duration
}

// SwapConfig holds swap simulation configuration
type SwapConfig struct {
	ExecutionDelay time.Duration
}

// WalletConfig holds simulated wallet configuration
type WalletConfig struct {
	ConnectDelay time.Duration
	Address      string
}

// SeedConfig points at an optional seed data file; empty uses the embedded seed
type SeedConfig struct {
	File string
}

// AdvisorConfig holds AI advisory gateway configuration
type AdvisorConfig struct {
	APIKey             string
	Model              string
	Timeout            time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled        bool
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	TickChannel    string
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Simulator: SimulatorConfig{
			TickInterval: getEnvAsDuration("SIMULATOR_TICK_INTERVAL", 2*time.Second),
			GasMin:       getEnvAsInt("GAS_MIN", 10),
			GasMax:       getEnvAsInt("GAS_MAX", 50),
			GasSeed:      getEnvAsInt("GAS_SEED", 15),
		},
		Notifications: NotificationConfig{
			TTL: getEnvAsDuration("NOTIFICATION_TTL", 3*time.Second),
		},
		Swap: SwapConfig{
			ExecutionDelay: getEnvAsDuration("SWAP_EXECUTION_DELAY", 1500*time.Millisecond),
		},
		Wallet: WalletConfig{
			ConnectDelay: getEnvAsDuration("WALLET_CONNECT_DELAY", 1500*time.Millisecond),
			Address:      getEnv("WALLET_ADDRESS", "0x71...9A21"),
		},
		Seed: SeedConfig{
			File: getEnv("SEED_FILE", ""),
		},
		Advisor: AdvisorConfig{
			APIKey:             getEnv("GEMINI_API_KEY", ""),
			Model:              getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout:            getEnvAsDuration("ADVISOR_TIMEOUT", 30*time.Second),
			BreakerMaxFailures: getEnvAsInt("ADVISOR_BREAKER_MAX_FAILURES", 5),
			BreakerTimeout:     getEnvAsDuration("ADVISOR_BREAKER_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:        getEnvAsBool("REDIS_ENABLED", false),
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnv("REDIS_PORT", "6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 10),
			TickChannel:    getEnv("REDIS_TICK_CHANNEL", "market:ticks"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks invariants the simulator and queue depend on
func (c *Config) Validate() error {
	var problems []string

	if c.Simulator.TickInterval <= 0 {
		problems = append(problems, "SIMULATOR_TICK_INTERVAL must be positive")
	}
	if c.Simulator.GasMin > c.Simulator.GasMax {
		problems = append(problems, fmt.Sprintf("GAS_MIN (%d) must not exceed GAS_MAX (%d)", c.Simulator.GasMin, c.Simulator.GasMax))
	} else if c.Simulator.GasSeed < c.Simulator.GasMin || c.Simulator.GasSeed > c.Simulator.GasMax {
		problems = append(problems, fmt.Sprintf("GAS_SEED (%d) must lie in [%d, %d]", c.Simulator.GasSeed, c.Simulator.GasMin, c.Simulator.GasMax))
	}
	if c.Notifications.TTL <= 0 {
		problems = append(problems, "NOTIFICATION_TTL must be positive")
	}
	if c.Swap.ExecutionDelay < 0 || c.Wallet.ConnectDelay < 0 {
		problems = append(problems, "simulated delays must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
