package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Exchange ExchangeConfig
	LogLevel string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// IsSQLite reports whether the local single-file store is selected.
func (c DatabaseConfig) IsSQLite() bool {
	return strings.EqualFold(c.Driver, "sqlite")
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// KafkaConfig holds the lifecycle event stream settings. No brokers means
// events are dropped after logging.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// ExchangeConfig holds the reservation policy and the settings seed used
// when no settings row exists yet.
type ExchangeConfig struct {
	ReservationTTL        time.Duration
	SweepInterval         time.Duration
	SweepBatch            int
	OneOpenPerCurrency    bool
	DefaultCommissionRate decimal.Decimal
	DefaultExchangeRate   decimal.Decimal
	DefaultDepositWallet  string
	DefaultCurrency       string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "p2pramp"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "p2pramp.db"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "p2p.transactions"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-this-in-production"),
			Expiry: getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Exchange: ExchangeConfig{
			ReservationTTL:        getEnvAsDuration("RESERVATION_TTL", 30*time.Minute),
			SweepInterval:         getEnvAsDuration("EXPIRY_SWEEP_INTERVAL", 30*time.Second),
			SweepBatch:            getEnvAsInt("EXPIRY_SWEEP_BATCH", 100),
			OneOpenPerCurrency:    getEnvAsBool("ONE_OPEN_TRANSACTION_PER_CURRENCY", true),
			DefaultCommissionRate: getEnvAsDecimal("DEFAULT_COMMISSION_RATE", decimal.NewFromInt(1)),
			DefaultExchangeRate:   getEnvAsDecimal("DEFAULT_EXCHANGE_RATE", decimal.NewFromInt(40)),
			DefaultDepositWallet:  getEnv("DEFAULT_DEPOSIT_WALLET", "0x0000000000000000000000000000000000000001"),
			DefaultCurrency:       getEnv("DEFAULT_CURRENCY", "UAH"),
		},
		LogLevel: getEnv("LOG_LEVEL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
