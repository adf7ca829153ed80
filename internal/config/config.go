/**
 * @description
 * This package handles configuration management for the service. It uses the
 * Viper library to read configuration from environment variables (with an
 * optional .env file for local development), providing a centralized way to
 * manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	Env                       string `mapstructure:"ENV"`
	LogLevel                  string `mapstructure:"LOG_LEVEL"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix      string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	EventsExchange            string `mapstructure:"EVENTS_EXCHANGE"`
	NoticeQueue               string `mapstructure:"NOTICE_QUEUE"`
	NoticeRoutingKey          string `mapstructure:"NOTICE_ROUTING_KEY"`
	IdentityJWKSURL           string `mapstructure:"IDENTITY_JWKS_URL"`
	InternalAPIKey            string `mapstructure:"INTERNAL_API_KEY"`
	CORSAllowedOrigins        string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	FuzzyAmountToleranceCents int64  `mapstructure:"FUZZY_AMOUNT_TOLERANCE_CENTS"`
	FuzzySenderDistanceMax    int    `mapstructure:"FUZZY_SENDER_DISTANCE_MAX"`
	ReminderLeadHours         int    `mapstructure:"REMINDER_LEAD_HOURS"`
	NoticeRateLimitPerMinute  int    `mapstructure:"NOTICE_RATE_LIMIT_PER_MINUTE"`
	CompleteSweepSchedule     string `mapstructure:"COMPLETE_SWEEP_SCHEDULE"`
	CancelSweepSchedule       string `mapstructure:"CANCEL_SWEEP_SCHEDULE"`
	ReminderSweepSchedule     string `mapstructure:"REMINDER_SWEEP_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "pickleball:rate_limit")
	viper.SetDefault("EVENTS_EXCHANGE", "pickleball.events")
	viper.SetDefault("NOTICE_QUEUE", "roster_service.payment_notices")
	viper.SetDefault("NOTICE_ROUTING_KEY", "payments.notice.received")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("FUZZY_AMOUNT_TOLERANCE_CENTS", 0)
	viper.SetDefault("FUZZY_SENDER_DISTANCE_MAX", 2)
	viper.SetDefault("REMINDER_LEAD_HOURS", 48)
	viper.SetDefault("NOTICE_RATE_LIMIT_PER_MINUTE", 60)
	viper.SetDefault("COMPLETE_SWEEP_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("CANCEL_SWEEP_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("REMINDER_SWEEP_SCHEDULE", "0 * * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("ENV")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENTS_EXCHANGE")
	_ = viper.BindEnv("NOTICE_QUEUE")
	_ = viper.BindEnv("NOTICE_ROUTING_KEY")
	_ = viper.BindEnv("IDENTITY_JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "ROSTER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")
	_ = viper.BindEnv("FUZZY_AMOUNT_TOLERANCE_CENTS")
	_ = viper.BindEnv("FUZZY_SENDER_DISTANCE_MAX")
	_ = viper.BindEnv("REMINDER_LEAD_HOURS")
	_ = viper.BindEnv("NOTICE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("COMPLETE_SWEEP_SCHEDULE")
	_ = viper.BindEnv("CANCEL_SWEEP_SCHEDULE")
	_ = viper.BindEnv("REMINDER_SWEEP_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("ROSTER_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "pickleball:rate_limit"
	}

	if config.FuzzyAmountToleranceCents < 0 {
		log.Printf("level=warn component=config msg=\"negative fuzzy amount tolerance; coercing to zero\" cents=%d", config.FuzzyAmountToleranceCents)
		config.FuzzyAmountToleranceCents = 0
	}
	if config.FuzzySenderDistanceMax < 0 {
		log.Printf("level=warn component=config msg=\"negative fuzzy sender distance; coercing to zero\" distance=%d", config.FuzzySenderDistanceMax)
		config.FuzzySenderDistanceMax = 0
	}
	if config.ReminderLeadHours <= 0 {
		config.ReminderLeadHours = 48
	}
	if config.NoticeRateLimitPerMinute <= 0 {
		config.NoticeRateLimitPerMinute = 60
	}

	return
}
