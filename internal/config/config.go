package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Dataset  DatasetConfig
	Logger   LoggerConfig
	Security SecurityConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatasetConfig locates the sales table. URI is a local path, s3://bucket/key
// or sqlite://path?table=name.
type DatasetConfig struct {
	URI            string
	ReloadInterval time.Duration
	LoadTimeout    time.Duration
	CacheEnabled   bool
	CacheDir       string
	S3             S3Config
}

type S3Config struct {
	Region    string
	Endpoint  string
	PathStyle bool
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

type MetricsConfig struct {
	Enabled bool
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Dataset: DatasetConfig{
			URI:            getEnvString("DATASET_URI", "superstore.csv"),
			ReloadInterval: getEnvDuration("DATASET_RELOAD_INTERVAL", 0),
			LoadTimeout:    getEnvDuration("DATASET_LOAD_TIMEOUT", 30*time.Second),
			CacheEnabled:   getEnvBool("CACHE_ENABLED", true),
			CacheDir:       getEnvString("CACHE_DIR", ".cache"),
			S3: S3Config{
				Region:    getEnvString("S3_REGION", "us-east-1"),
				Endpoint:  getEnvString("S3_ENDPOINT", ""),
				PathStyle: getEnvBool("S3_PATH_STYLE", false),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 50),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if strings.TrimSpace(c.Dataset.URI) == "" {
		return fmt.Errorf("dataset URI cannot be empty")
	}

	if u, err := url.Parse(c.Dataset.URI); err == nil {
		switch u.Scheme {
		case "", "file", "s3", "sqlite":
		default:
			if len(u.Scheme) > 1 { // single letters are Windows drive prefixes
				return fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
			}
		}
	}

	if c.Dataset.ReloadInterval < 0 {
		return fmt.Errorf("dataset reload interval cannot be negative")
	}

	if c.Dataset.LoadTimeout <= 0 {
		return fmt.Errorf("dataset load timeout must be positive")
	}

	if c.Dataset.CacheEnabled && c.Dataset.CacheDir == "" {
		return fmt.Errorf("cache directory cannot be empty when the cache is enabled")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
