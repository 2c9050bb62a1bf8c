package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sangkips/sales-api/internal/domain/enum"
)

type Config struct {
	App        AppConfig
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Events     EventsConfig
	Pricing    PricingConfig
	Validation ValidationConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level    string
	Encoding string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	MaxIdle  int
	MaxOpen  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TopicConfig names the stream a kind of sale event is written to, the consumer
// group created for it and the error topic reported when publishing fails.
type TopicConfig struct {
	Topic      string
	Group      string
	ErrorTopic string
}

type EventsConfig struct {
	PublishTimeout time.Duration
	Topics         map[enum.EventKind]TopicConfig
}

// Topic returns the configuration for kind, falling back to names derived
// from the kind itself when nothing was configured.
func (c EventsConfig) Topic(kind enum.EventKind) TopicConfig {
	if t, ok := c.Topics[kind]; ok && t.Topic != "" {
		return t
	}
	name := "sales." + kind.Slug()
	return TopicConfig{Topic: name, Group: name + "-group", ErrorTopic: name + "_error"}
}

type PricingConfig struct {
	DiscountMode string
}

type ValidationConfig struct {
	DescriptionMin        int
	DescriptionMax        int
	MaxQuantityPerProduct int
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Env:             viper.GetString("APP_ENV"),
			Port:            viper.GetString("APP_PORT"),
			Debug:           viper.GetBool("APP_DEBUG"),
			ShutdownTimeout: time.Duration(viper.GetInt("APP_SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Log: LogConfig{
			Level:    viper.GetString("LOG_LEVEL"),
			Encoding: viper.GetString("LOG_ENCODING"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
			MaxIdle:  viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpen:  viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Events: EventsConfig{
			PublishTimeout: time.Duration(viper.GetInt("EVENTS_PUBLISH_TIMEOUT_MS")) * time.Millisecond,
			Topics:         loadTopics(),
		},
		Pricing: PricingConfig{
			DiscountMode: strings.ToLower(viper.GetString("PRICING_DISCOUNT_MODE")),
		},
		Validation: ValidationConfig{
			DescriptionMin:        viper.GetInt("VALIDATION_DESCRIPTION_MIN"),
			DescriptionMax:        viper.GetInt("VALIDATION_DESCRIPTION_MAX"),
			MaxQuantityPerProduct: viper.GetInt("VALIDATION_MAX_QUANTITY_PER_PRODUCT"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "sales-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_SHUTDOWN_TIMEOUT_SECONDS", 10)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_ENCODING", "json")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "sales")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("EVENTS_PUBLISH_TIMEOUT_MS", 2000)
	viper.SetDefault("PRICING_DISCOUNT_MODE", "flat")
	viper.SetDefault("VALIDATION_DESCRIPTION_MIN", 10)
	viper.SetDefault("VALIDATION_DESCRIPTION_MAX", 200)
	viper.SetDefault("VALIDATION_MAX_QUANTITY_PER_PRODUCT", 20)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)

	for _, kind := range enum.EventKinds() {
		prefix := "EVENTS_" + kind.EnvKey()
		name := "sales.integration." + kind.Slug()
		viper.SetDefault(prefix+"_TOPIC", name)
		viper.SetDefault(prefix+"_GROUP", name+"-group")
		viper.SetDefault(prefix+"_ERROR_TOPIC", name+"_error")
	}
}

func loadTopics() map[enum.EventKind]TopicConfig {
	topics := make(map[enum.EventKind]TopicConfig, len(enum.EventKinds()))
	for _, kind := range enum.EventKinds() {
		prefix := "EVENTS_" + kind.EnvKey()
		topics[kind] = TopicConfig{
			Topic:      viper.GetString(prefix + "_TOPIC"),
			Group:      viper.GetString(prefix + "_GROUP"),
			ErrorTopic: viper.GetString(prefix + "_ERROR_TOPIC"),
		}
	}
	return topics
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
