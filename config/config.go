package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Env          string
	HTTPAddr     string
	LogLevel     string
	DBURL        string
	RedisAddress string
	BearerToken  string
	SymmetricKey string

	WebhookSecret    string
	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	Currency         string

	Timezone           string
	BookingHorizonDays int
	RegistrationFee    float64
	SystemActorID      int64
	AllowedOrigins     []string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return nil, errors.New("missing DB_URL environment variable")
	}

	redisAddress := os.Getenv("REDIS_URL")
	if redisAddress == "" {
		return nil, errors.New("missing REDIS_URL environment variable")
	}

	bearerToken := os.Getenv("BEARER_TOKEN")
	if bearerToken == "" {
		return nil, errors.New("missing BEARER_TOKEN environment variable")
	}

	webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, errors.New("missing RAZORPAY_WEBHOOK_SECRET environment variable")
	}

	symmetricKey := os.Getenv("SYMMETRIC_KEY")
	if len(symmetricKey) != 32 {
		return nil, errors.New("SYMMETRIC_KEY must be 32 bytes long")
	}

	cfg := &AppConfig{
		Env:          GetEnv("ENV", "production"),
		HTTPAddr:     GetEnv("HTTP_ADDR", ":8930"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		DBURL:        dbURL,
		RedisAddress: redisAddress,
		BearerToken:  bearerToken,
		SymmetricKey: symmetricKey,

		WebhookSecret:    webhookSecret,
		GatewayBaseURL:   GetEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com/v1"),
		GatewayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		GatewayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		Currency:         GetEnv("PAYMENT_CURRENCY", "INR"),

		Timezone:           GetEnv("APP_TIMEZONE", "Asia/Kolkata"),
		BookingHorizonDays: GetEnvAsInt("BOOKING_HORIZON_DAYS", 30),
		RegistrationFee:    GetEnvAsFloat("REGISTRATION_FEE", 100),
		SystemActorID:      GetEnvAsInt64("SYSTEM_ACTOR_ID", 1),
		AllowedOrigins:     splitList(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetBearerToken returns the BearerToken from the config
func (c *AppConfig) GetBearerToken() string {
	return c.BearerToken
}

// Location resolves the configured time zone that shift windows are anchored in.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.New("invalid APP_TIMEZONE: " + c.Timezone)
	}
	return loc, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

func GetEnv(name, defaultValue string) string {
	if value, exists := os.LookupEnv(name); exists && value != "" {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(name string, defaultValue int) int {
	if value, exists := os.LookupEnv(name); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s, using default: %d", name, defaultValue)
	}
	return defaultValue
}

func GetEnvAsInt64(name string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(name); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s, using default: %d", name, defaultValue)
	}
	return defaultValue
}

func GetEnvAsFloat(name string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(name); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Printf("Warning: Invalid number value for %s, using default: %v", name, defaultValue)
	}
	return defaultValue
}

func GetEnvAsDuration(name string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(name); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		log.Printf("Warning: Invalid duration value for %s, using default: %s", name, defaultValue.String())
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
