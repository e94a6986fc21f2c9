package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	LogLevel       string
	DatabaseURL    string
	MigrationsPath string
	JWTSecret      string
	ServerAddress  string
	CORSOrigins    []string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	MQTTBrokerURL string
	MQTTClientID  string

	// registration
	LicenseLimit            int
	RegistrationThrottle    time.Duration
	RegistrationLockTimeout time.Duration

	// dynamic content refresh
	UpdateIntervalMinutes int
	RefreshConcurrency    int
	RefreshFetchTimeout   time.Duration

	WeatherAPIKey string
	WeatherAPIURL string

	UploadDir       string
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment:    getenv("APP_ENV", "production"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
		MQTTClientID:  getenv("MQTT_CLIENT_ID", "signage-cms"),

		WeatherAPIKey: os.Getenv("WEATHER_API_KEY"),
		WeatherAPIURL: getenv("WEATHER_API_URL", "http://api.weatherapi.com/v1"),

		UploadDir:       getenv("UPLOAD_DIR", "./uploads"),
		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	var err error
	if cfg.LicenseLimit, err = getInt("DEVICE_LICENSE_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.UpdateIntervalMinutes, err = getInt("UPDATE_INTERVAL_MINUTES", 5); err != nil {
		return nil, err
	}
	if cfg.RefreshConcurrency, err = getInt("REFRESH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.RegistrationThrottle, err = getDuration("REGISTRATION_THROTTLE", time.Second); err != nil {
		return nil, err
	}
	if cfg.RegistrationLockTimeout, err = getDuration("REGISTRATION_LOCK_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshFetchTimeout, err = getDuration("REFRESH_FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.LicenseLimit < 0 {
		return nil, fmt.Errorf("DEVICE_LICENSE_LIMIT must not be negative")
	}
	if cfg.UpdateIntervalMinutes < 1 {
		return nil, fmt.Errorf("UPDATE_INTERVAL_MINUTES must be at least 1")
	}
	if cfg.RefreshConcurrency < 1 {
		cfg.RefreshConcurrency = 1
	}
	if cfg.UseSpaces && (cfg.SpacesBucket == "" || cfg.SpacesEndpoint == "") {
		return nil, fmt.Errorf("SPACES_BUCKET and SPACES_ENDPOINT are required when USE_SPACES=true")
	}

	return cfg, nil
}

// IsDevelopment reports whether APP_ENV selects developer-friendly output.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
