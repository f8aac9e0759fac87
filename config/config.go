package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"bakery-backend/internal/domain"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
	// Shipping pricing
	EarthRadiusKm         float64
	MinEffectiveKm        float64
	MaxDeliveryKm         float64
	DefaultShippingFee    float64
	ZoneCacheTTL          time.Duration
	CalculationLogTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: .env for local dev, system env vars otherwise
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without loading files.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 20),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 2),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		// 50 req/s, burst 100
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),

		EarthRadiusKm:         getFloatEnv("SHIPPING_EARTH_RADIUS_KM", 6371),
		MinEffectiveKm:        getFloatEnv("SHIPPING_MIN_EFFECTIVE_KM", 0),
		MaxDeliveryKm:         getFloatEnv("SHIPPING_MAX_DELIVERY_KM", 100),
		DefaultShippingFee:    getFloatEnv("SHIPPING_DEFAULT_FEE", 3),
		ZoneCacheTTL:          getDurationEnv("SHIPPING_ZONE_CACHE_TTL", 5*time.Minute),
		CalculationLogTimeout: getDurationEnv("SHIPPING_LOG_TIMEOUT", 5*time.Second),
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.DBUrl == "" {
		errs = append(errs, errors.New("DB_DSN environment variable is required"))
	}
	if c.EarthRadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("SHIPPING_EARTH_RADIUS_KM must be positive, got %v", c.EarthRadiusKm))
	}
	if c.MinEffectiveKm < 0 {
		errs = append(errs, fmt.Errorf("SHIPPING_MIN_EFFECTIVE_KM must not be negative, got %v", c.MinEffectiveKm))
	}
	if c.MaxDeliveryKm <= c.MinEffectiveKm {
		errs = append(errs, fmt.Errorf("SHIPPING_MAX_DELIVERY_KM (%v) must exceed SHIPPING_MIN_EFFECTIVE_KM (%v)", c.MaxDeliveryKm, c.MinEffectiveKm))
	}
	if c.DefaultShippingFee < 0 {
		errs = append(errs, fmt.Errorf("SHIPPING_DEFAULT_FEE must not be negative, got %v", c.DefaultShippingFee))
	}
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Admin endpoints are not protected in production.")
	}
	return errors.Join(errs...)
}

// Shipping returns the immutable pricing configuration.
func (c *Config) Shipping() domain.ShippingConfig {
	return domain.ShippingConfig{
		EarthRadiusKm:  c.EarthRadiusKm,
		MinEffectiveKm: c.MinEffectiveKm,
		MaxDeliveryKm:  c.MaxDeliveryKm,
		DefaultFee:     c.DefaultShippingFee,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}
