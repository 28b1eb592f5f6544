// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Execution history backends
const (
	HistoryFile  = "file"
	HistoryMongo = "mongo"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string
	Timezone   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Record store
	DBDriver    string
	DatabaseDSN string

	// Execution history
	HistoryBackend string
	MongoURI       string
	MongoDB        string
	MongoUser      string
	MongoPassword  string

	// Artifacts
	BackupDir string
	LogDir    string

	// Scheduler
	SchedulerConfigPath   string
	SchedulerPollInterval time.Duration
	SchedulerAutostart    bool

	// Metrics
	MetricsNamespace string

	// Alerts
	SlackBotToken     string
	SlackChannelID    string
	AlertWebhookURL   string
	AlertWebhookToken string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion: getEnv("APP_VERSION", "1.0.0"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Timezone:   getEnv("TIMEZONE", "America/Costa_Rica"),

		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		// manual runs are synchronous, leave room for a full pipeline
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 300)) * time.Second,

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabaseDSN: getEnv("DATABASE_DSN", "biodiversity.db"),

		HistoryBackend: strings.ToLower(getEnv("HISTORY_BACKEND", HistoryFile)),
		MongoURI:       getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "ecovision"),
		MongoUser:      getEnv("MONGO_USER", ""),
		MongoPassword:  getEnv("MONGO_PASSWORD", ""),

		BackupDir: getEnv("BACKUP_DIR", "backups"),
		LogDir:    getEnv("LOG_DIR", "logs"),

		SchedulerConfigPath:   getEnv("SCHEDULER_CONFIG_PATH", "scheduler_config.json"),
		SchedulerPollInterval: getEnvAsDuration("SCHEDULER_POLL_INTERVAL", time.Minute),
		SchedulerAutostart:    getEnvAsBool("SCHEDULER_AUTOSTART", true),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "ecovision_etl"),

		SlackBotToken:     getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:    getEnv("SLACK_CHANNEL_ID", ""),
		AlertWebhookURL:   getEnv("ALERT_WEBHOOK_URL", ""),
		AlertWebhookToken: getEnv("ALERT_WEBHOOK_TOKEN", ""),
	}

	switch config.DBDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}
	switch config.HistoryBackend {
	case HistoryFile, HistoryMongo:
	default:
		return nil, fmt.Errorf("unsupported HISTORY_BACKEND %q", config.HistoryBackend)
	}
	if _, err := time.LoadLocation(config.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", config.Timezone, err)
	}

	return config, nil
}

// Location returns the configured timezone, falling back to local time
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
