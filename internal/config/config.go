package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration for the storefront API.
type Config struct {
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
	Shop      ShopConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	Driver         string
	AutoMigrate    bool
	MigrationsPath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

// ShopConfig holds storefront behaviour knobs.
type ShopConfig struct {
	BrandName            string
	BuyNowTTL            time.Duration
	OperatorStatusPolicy string
	RateLimitRPS         float64
	RateLimitBurst       int
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	OperatorPolicyPermissive = "permissive"
	OperatorPolicyStrict     = "strict"
)

const (
	defaultHTTPPort       = 8080
	defaultMetricsPath    = "/metrics"
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultServiceName    = "shopkart-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
	defaultJWTSecret      = "dev-secret-change-me"
	defaultTokenTTL       = 2 * time.Hour
	defaultExchange       = "shop.orders"
	defaultBrandName      = "ShopKart"
	defaultBuyNowTTL      = 30 * time.Minute
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	authCfg, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	shopCfg, err := loadShopConfig()
	if err != nil {
		return nil, fmt.Errorf("loading shop config: %w", err)
	}

	cfg := &Config{
		HTTP:      httpCfg,
		Database:  loadDatabaseConfig(),
		Auth:      authCfg,
		Events:    loadEventsConfig(),
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
		Shop:      shopCfg,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http port %d out of range", c.HTTP.Port))
	}

	switch c.Database.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Database.Driver))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	if c.Auth.JWTSecret == defaultJWTSecret && c.Service.Environment != defaultEnvironment {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set outside development"))
	}

	switch c.Shop.OperatorStatusPolicy {
	case OperatorPolicyPermissive, OperatorPolicyStrict:
	default:
		errs = append(errs, fmt.Errorf("unknown SHOP_OPERATOR_STATUS_POLICY %q", c.Shop.OperatorStatusPolicy))
	}

	if c.Shop.BuyNowTTL <= 0 {
		errs = append(errs, errors.New("SHOP_BUY_NOW_TTL must be positive"))
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATE must be between 0.0 and 1.0"))
	}

	return errors.Join(errs...)
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		Driver:         strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageDriverPostgres)),
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadAuthConfig() (AuthConfig, error) {
	ttl, err := getDurationEnv("AUTH_TOKEN_TTL", defaultTokenTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		JWTSecret: getEnvOrDefault("AUTH_JWT_SECRET", defaultJWTSecret),
		TokenTTL:  ttl,
	}, nil
}

func loadEventsConfig() EventsConfig {
	return EventsConfig{
		AMQPURL:  os.Getenv("AMQP_URL"),
		Exchange: getEnvOrDefault("AMQP_EXCHANGE", defaultExchange),
	}
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value := os.Getenv("OTEL_SAMPLE_RATE"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func loadShopConfig() (ShopConfig, error) {
	buyNowTTL, err := getDurationEnv("SHOP_BUY_NOW_TTL", defaultBuyNowTTL)
	if err != nil {
		return ShopConfig{}, err
	}

	rps := defaultRateLimitRPS
	if value := os.Getenv("SHOP_RATE_LIMIT_RPS"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ShopConfig{}, fmt.Errorf("invalid SHOP_RATE_LIMIT_RPS: %w", err)
		}
		rps = parsed
	}

	burst, err := getIntEnv("SHOP_RATE_LIMIT_BURST", defaultRateLimitBurst)
	if err != nil {
		return ShopConfig{}, err
	}

	return ShopConfig{
		BrandName:            getEnvOrDefault("SHOP_BRAND_NAME", defaultBrandName),
		BuyNowTTL:            buyNowTTL,
		OperatorStatusPolicy: strings.ToLower(getEnvOrDefault("SHOP_OPERATOR_STATUS_POLICY", OperatorPolicyPermissive)),
		RateLimitRPS:         rps,
		RateLimitBurst:       burst,
	}, nil
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "shopkart")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
