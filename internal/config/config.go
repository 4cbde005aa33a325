package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string         `toml:"env"`
	Port     string         `toml:"port"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Cache    CacheConfig    `toml:"cache"`
	OTel     OTelConfig     `toml:"otel"`

	// SnowflakeNode must be unique per running replica.
	SnowflakeNode int64 `toml:"snowflake_node"`
}

type DatabaseConfig struct {
	Host         string `toml:"host"`
	Port         string `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Name         string `toml:"name"`
	SSLMode      string `toml:"sslmode"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DSN builds a libpq keyword/value connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenTTLHrs int    `toml:"token_ttl_hours"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHrs) * time.Hour
}

type CacheConfig struct {
	// RedisURL selects the redis store; empty means in-process memory.
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type OTelConfig struct {
	Endpoint       string `toml:"endpoint"`
	Headers        string `toml:"headers"`
	ServiceName    string `toml:"service_name"`
	ServiceVersion string `toml:"service_version"`
}

func (o OTelConfig) Enabled() bool {
	return o.Endpoint != ""
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment. In development a .env file
// is loaded first. When CONFIG_FILE names a TOML file, its non-empty values
// take precedence over the environment.
func Load() (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "campusqa"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			TokenTTLHrs: getEnvInt("JWT_TTL_HOURS", 72),
		},
		Cache: CacheConfig{
			RedisURL:   getEnv("REDIS_URL", ""),
			TTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 60),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "campus-qa"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		SnowflakeNode: int64(getEnvInt("SNOWFLAKE_NODE", 1)),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	if c.Auth.TokenTTLHrs <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.Auth.TokenTTLHrs)
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be within 0..1023, got %d", c.SnowflakeNode)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
