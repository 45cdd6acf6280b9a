package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the telegram-files service
type Config struct {
	Telegram     TelegramConfig
	Database     DatabaseConfig
	Kafka        KafkaConfig
	S3           S3Config
	Logging      LoggingConfig
	Service      ServiceConfig
	AutoDownload AutoDownloadConfig
}

// TelegramConfig holds backend client configuration
type TelegramConfig struct {
	APIID       int
	APIHash     string
	DataDir     string
	DeviceModel string
	AppVersion  string
	LangCode    string
	// RequestsPerSecond bounds outgoing API calls per account
	RequestsPerSecond int
	// ProgressInterval throttles file progress pushes
	ProgressInterval time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// SQLitePath is used when Driver is sqlite
	SQLitePath string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled                 bool
	Brokers                 []string
	GroupID                 string
	TopicAutoDownloadUpdate string
	TopicMessageReceived    string
}

// S3Config holds object storage configuration for transferring completed files
type S3Config struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name            string
	Port            string
	ShutdownTimeout time.Duration
}

// AutoDownloadConfig holds auto download worker configuration
type AutoDownloadConfig struct {
	Interval time.Duration
	// HistoryLimit is the size of the per-account dedup window
	HistoryLimit int
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config             *Config
	TelegramConfig     *TelegramConfig
	DatabaseConfig     *DatabaseConfig
	KafkaConfig        *KafkaConfig
	S3Config           *S3Config
	LoggingConfig      *LoggingConfig
	ServiceConfig      *ServiceConfig
	AutoDownloadConfig *AutoDownloadConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:             cfg,
		TelegramConfig:     &cfg.Telegram,
		DatabaseConfig:     &cfg.Database,
		KafkaConfig:        &cfg.Kafka,
		S3Config:           &cfg.S3,
		LoggingConfig:      &cfg.Logging,
		ServiceConfig:      &cfg.Service,
		AutoDownloadConfig: &cfg.AutoDownload,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			APIID:             apiID,
			APIHash:           getEnv("TELEGRAM_API_HASH", ""),
			DataDir:           getEnv("TELEGRAM_DATA_DIR", "./data/accounts"),
			DeviceModel:       getEnv("TELEGRAM_DEVICE_MODEL", "Telegram Files"),
			AppVersion:        getEnv("TELEGRAM_APP_VERSION", "1.0.0"),
			LangCode:          getEnv("TELEGRAM_LANG_CODE", "en"),
			RequestsPerSecond: getEnvInt("TELEGRAM_RPS", 10),
			ProgressInterval:  getEnvDuration("TELEGRAM_PROGRESS_INTERVAL", 500*time.Millisecond),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
			Host:       getEnv("DATABASE_HOST", "localhost"),
			Port:       getEnv("DATABASE_PORT", "5432"),
			User:       getEnv("DATABASE_USER", "files_user"),
			Password:   getEnv("DATABASE_PASSWORD", "files_pass"),
			DBName:     getEnv("DATABASE_NAME", "telegram_files"),
			SSLMode:    getEnv("DATABASE_SSLMODE", "disable"),
			SQLitePath: getEnv("DATABASE_SQLITE_PATH", "./data/telegram-files.db"),
		},
		Kafka: KafkaConfig{
			Enabled:                 getEnvBool("KAFKA_ENABLED", false),
			Brokers:                 strings.Split(getEnv("KAFKA_BROKERS", "localhost:9093"), ","),
			GroupID:                 getEnv("KAFKA_GROUP_ID", "telegram-files-group"),
			TopicAutoDownloadUpdate: getEnv("KAFKA_TOPIC_AUTO_DOWNLOAD_UPDATED", "files.auto-download.updated"),
			TopicMessageReceived:    getEnv("KAFKA_TOPIC_MESSAGE_RECEIVED", "files.message.received"),
		},
		S3: S3Config{
			Enabled:   getEnvBool("S3_ENABLED", false),
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "telegram-files"),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name:            getEnv("SERVICE_NAME", "telegram-files"),
			Port:            getEnv("SERVICE_PORT", "8080"),
			ShutdownTimeout: getEnvDuration("SERVICE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		AutoDownload: AutoDownloadConfig{
			Interval:     getEnvDuration("AUTO_DOWNLOAD_INTERVAL", 10*time.Second),
			HistoryLimit: getEnvInt("AUTO_DOWNLOAD_HISTORY_LIMIT", 1000),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("DATABASE_HOST and DATABASE_NAME are required for postgres")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("DATABASE_SQLITE_PATH is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when kafka is enabled")
	}

	if c.S3.Enabled && (c.S3.AccessKey == "" || c.S3.SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required when s3 is enabled")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetMigrateURL returns the golang-migrate database URL
func (c *DatabaseConfig) GetMigrateURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite3://" + c.SQLitePath
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
