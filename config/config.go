package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Log      LogConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Model    ModelConfig
	Data     DataConfig
	Auth     JWTConfig
}

type LogConfig struct {
	Level string
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// GetDSN prefers DATABASE_URL when it is set.
func (d DatabaseConfig) GetDSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig with an empty Host disables caching and model events.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

type CORSConfig struct {
	AllowedOrigins string
}

type ModelConfig struct {
	Path       string
	Version    string
	Features   []string
	Seed       uint64
	MaxSamples int
	Fallback   bool
	Watch      bool
}

type DataConfig struct {
	Dir string
}

func (d DataConfig) AirlinesCSV() string { return d.Dir + "/airlines.csv" }
func (d DataConfig) AirportsCSV() string { return d.Dir + "/airports.csv" }
func (d DataConfig) RoutesCSV() string   { return d.Dir + "/routes.csv" }
func (d DataConfig) FlightsCSV() string  { return d.Dir + "/flights.csv" }

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

// Enabled reports whether protected endpoints require a token.
func (j JWTConfig) Enabled() bool { return j.Secret != "" }

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cacheTTL, err := getIntEnv("REFERENCE_CACHE_TTL_SEC", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_CACHE_TTL_SEC: %w", err)
	}

	seed, err := getIntEnv("MODEL_SEED", 42)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_SEED: %w", err)
	}
	if seed < 0 {
		return nil, fmt.Errorf("invalid MODEL_SEED: must not be negative")
	}

	maxSamples, err := getIntEnv("MODEL_MAX_SAMPLES", 500000)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_MAX_SAMPLES: %w", err)
	}

	fallback, err := getBoolEnv("MODEL_FALLBACK", false)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_FALLBACK: %w", err)
	}

	watch, err := getBoolEnv("MODEL_WATCH", true)
	if err != nil {
		return nil, fmt.Errorf("invalid MODEL_WATCH: %w", err)
	}

	redisEnabled, err := getBoolEnv("REDIS_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}
	// An explicitly empty REDIS_HOST also turns Redis off.
	redisHost, ok := os.LookupEnv("REDIS_HOST")
	if !ok {
		redisHost = "localhost"
	}
	if !redisEnabled {
		redisHost = ""
	}

	expiry, err := getIntEnv("AUTH_JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_JWT_EXPIRY_HOURS: %w", err)
	}

	cfg := &Config{
		Env: getEnv("ENV", "production"),
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "flightdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     strings.TrimSpace(redisHost),
			Port:     redisPort,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			CacheTTL: time.Duration(cacheTTL) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Model: ModelConfig{
			Path:       getEnv("MODEL_PATH", "models/trained_model.json"),
			Version:    getEnv("MODEL_VERSION", "v1.0"),
			Features:   splitList(getEnv("MODEL_FEATURES", "month")),
			Seed:       uint64(seed),
			MaxSamples: maxSamples,
			Fallback:   fallback,
			Watch:      watch,
		},
		Data: DataConfig{
			Dir: strings.TrimSuffix(getEnv("DATA_DIR", "data"), "/"),
		},
		Auth: JWTConfig{
			Secret:      os.Getenv("AUTH_JWT_SECRET"),
			ExpiryHours: expiry,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
