package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Database    DatabaseConfig
	Redis       RedisConfig
	Meta        MetaConfig
	Sender      SenderConfig
	Environment string
	LogLevel    string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// ConsumerGroup names the consumer group used on campaign send
	// streams; ConsumerName identifies this worker within the group.
	ConsumerGroup string
	ConsumerName  string
}

type MetaConfig struct {
	// AccessToken is the Cloud API bearer token. Required.
	AccessToken string

	// WabaID is the WhatsApp Business Account id, used for listing
	// phone numbers and templates.
	WabaID     string
	APIVersion string
	BaseURL    string
}

type SenderConfig struct {
	// MessagesPerSecond caps the combined outbound rate across all
	// campaigns on this worker.
	MessagesPerSecond int
	BatchSize         int
	FeederPageSize    int
	FetchTimeout      time.Duration
	SweepInterval     time.Duration
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	// Try to load .env file but don't require it
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "waplane")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CONSUMER_GROUP", "waplane-workers")
	v.SetDefault("REDIS_CONSUMER_NAME", defaultConsumerName())

	v.SetDefault("META_API_VERSION", "v21.0")
	v.SetDefault("META_BASE_URL", "https://graph.facebook.com")

	v.SetDefault("SENDER_MESSAGES_PER_SECOND", 80)
	v.SetDefault("SENDER_BATCH_SIZE", 10)
	v.SetDefault("SENDER_FEEDER_PAGE_SIZE", 100)
	v.SetDefault("SENDER_FETCH_TIMEOUT", "1s")
	v.SetDefault("SENDER_SWEEP_INTERVAL", "1m")

	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	// Load environment file if specified
	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	accessToken := v.GetString("META_ACCESS_TOKEN")
	if accessToken == "" {
		return nil, fmt.Errorf("META_ACCESS_TOKEN is required")
	}

	fetchTimeout, err := time.ParseDuration(v.GetString("SENDER_FETCH_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid SENDER_FETCH_TIMEOUT: %w", err)
	}

	sweepInterval, err := time.ParseDuration(v.GetString("SENDER_SWEEP_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SENDER_SWEEP_INTERVAL: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			ConsumerGroup: v.GetString("REDIS_CONSUMER_GROUP"),
			ConsumerName:  v.GetString("REDIS_CONSUMER_NAME"),
		},
		Meta: MetaConfig{
			AccessToken: accessToken,
			WabaID:      v.GetString("META_WABA_ID"),
			APIVersion:  v.GetString("META_API_VERSION"),
			BaseURL:     v.GetString("META_BASE_URL"),
		},
		Sender: SenderConfig{
			MessagesPerSecond: v.GetInt("SENDER_MESSAGES_PER_SECOND"),
			BatchSize:         v.GetInt("SENDER_BATCH_SIZE"),
			FeederPageSize:    v.GetInt("SENDER_FEEDER_PAGE_SIZE"),
			FetchTimeout:      fetchTimeout,
			SweepInterval:     sweepInterval,
		},
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	if config.Sender.MessagesPerSecond <= 0 {
		return nil, fmt.Errorf("SENDER_MESSAGES_PER_SECOND must be positive")
	}
	if config.Sender.BatchSize <= 0 {
		return nil, fmt.Errorf("SENDER_BATCH_SIZE must be positive")
	}

	return config, nil
}

func defaultConsumerName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "waplane-worker"
	}
	return hostname
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
