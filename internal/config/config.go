package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"GO_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Record store
	StoreDriver      string `mapstructure:"STORE_DRIVER"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	MongoURI         string `mapstructure:"MONGODB_URI"`
	MongoDatabase    string `mapstructure:"MONGODB_DATABASE"`
	RunMigrations    bool   `mapstructure:"RUN_MIGRATIONS"`
	FrontendURL      string `mapstructure:"FRONTEND_URL"`
	JWTSecret        string `mapstructure:"JWT_SECRET"`
	EnforceThreadACL bool   `mapstructure:"ENFORCE_THREAD_PARTICIPANTS"`
	ReadOnly         bool   `mapstructure:"READ_ONLY"`

	// Redis inbox cache
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	InboxCacheTTL time.Duration `mapstructure:"INBOX_CACHE_TTL"`

	// Message events. Kafka wins when both are configured.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`
	NATSURL      string `mapstructure:"NATS_URL"`
}

var AppConfig *Config

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"GO_ENV":                      "development",
	"LOG_LEVEL":                   "info",
	"STORE_DRIVER":                DriverPostgres,
	"DATABASE_URL":                "",
	"MONGODB_URI":                 "",
	"MONGODB_DATABASE":            "rentals",
	"RUN_MIGRATIONS":              true,
	"FRONTEND_URL":                "http://localhost:5173",
	"JWT_SECRET":                  "",
	"ENFORCE_THREAD_PARTICIPANTS": false,
	"READ_ONLY":                   false,
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"INBOX_CACHE_TTL":             "2m",
	"KAFKA_BROKERS":               "",
	"KAFKA_TOPIC":                 "rental.messages",
	"NATS_URL":                    "",
}

// LoadConfig populates AppConfig from .env (if present) and the environment.
func LoadConfig() {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	AppConfig = cfg
}

// Load reads configuration without touching the global. envFile may be empty.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			log.Println("No .env file found, relying on environment variables")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the " + c.StoreDriver + " store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for the mongo store")
		}
		if c.MongoDatabase == "" {
			return errors.New("MONGODB_DATABASE is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use postgres, sqlite or mongo)", c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.InboxCacheTTL < 0 {
		return errors.New("INBOX_CACHE_TTL must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
