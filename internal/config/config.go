package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Aggregation
	AmountParseMode string // strict | lenient

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Exchange rates
	RatesProvider    string // json | ecb
	RatesAPIURL      string
	RatesJSONPath    string
	ECBRatesURL      string
	RatesCacheTTL    time.Duration
	RatesRefreshCron string

	// Cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Storage
	StoreBackend string // memory | postgres | supabase
	DatabaseURL  string

	// Supabase
	SupabaseURL        string
	SupabaseServiceKey string

	// Observability
	OTLPEndpoint string

	// JWT / Auth. Empty secret disables auth on /v1/users routes.
	JWTSecret    string
	JWTIssuer    string
	JWTAccessTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AmountParseMode: strings.ToLower(getEnv("AMOUNT_PARSE_MODE", "strict")),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		RatesProvider:    strings.ToLower(getEnv("RATES_PROVIDER", "json")),
		RatesAPIURL:      getEnv("RATES_API_URL", "https://open.er-api.com/v6/latest/USD"),
		RatesJSONPath:    getEnv("RATES_JSON_PATH", "$.rates"),
		ECBRatesURL:      getEnv("ECB_RATES_URL", "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"),
		RatesCacheTTL:    getEnvDuration("RATES_CACHE_TTL", 24*time.Hour),
		RatesRefreshCron: getEnvAllowEmpty("RATES_REFRESH_CRON", "@every 24h"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		OTLPEndpoint: getEnvAllowEmpty("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", "lifecompass"),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty distinguishes "unset" from "set to empty", so a variable
// can be blanked out to switch a feature off.
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
