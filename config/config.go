package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	MemberPort string `mapstructure:"MEMBER_PORT"`
	AgentPort  string `mapstructure:"AGENT_PORT"`
	Env        string `mapstructure:"ENV"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB       int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB         int    `mapstructure:"REDIS_QUEUE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Mongo configuration (ended-session archive).
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Gemini API key. Empty key switches the AI service to the local
	// keyword extractor.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Hand-off queue polling interval in milliseconds.
	PollIntervalMS int `mapstructure:"POLL_INTERVAL_MS"`

	// Session TTL in the Redis session store, minutes.
	SessionTTLMin int `mapstructure:"SESSION_TTL_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("MEMBER_PORT", "8080")
	viper.SetDefault("AGENT_PORT", "8081")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 2)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("POLL_INTERVAL_MS", 2000)
	viper.SetDefault("SESSION_TTL_MIN", 720)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// PollInterval returns the hand-off queue polling interval as a duration.
func PollInterval() time.Duration {
	ms := AppConfig.PollIntervalMS
	if ms <= 0 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

// SessionTTL returns the Redis session store TTL.
func SessionTTL() time.Duration {
	min := AppConfig.SessionTTLMin
	if min <= 0 {
		min = 720
	}
	return time.Duration(min) * time.Minute
}
