package app

import (
	"os"
	"slices"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Cart storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `env:"DATABASE_URL" yaml:"database_url" usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL  string `env:"IMAGE_BASE_URL" yaml:"image_base_url" default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	SecureCookies bool   `default:"false" usage:"Mark the cart session cookie Secure" flag:"secure-cookies"`
	Storage       StorageConfig
	Catalog       CatalogConfig
	Checkout      CheckoutConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// StorageConfig selects where carts are persisted.
type StorageConfig struct {
	Backend    string `default:"memory" usage:"Cart storage backend: memory, sqlite, redis or postgres"`
	SQLitePath string `env:"SQLITE_PATH" yaml:"sqlite_path" default:"storefront.db" usage:"SQLite database file" flag:"sqlite-path"`
	OpenCarts  int    `env:"OPEN_CARTS" yaml:"open_carts" default:"10000" usage:"Carts kept in memory; idle ones are reloaded from storage" flag:"open-carts"`
	Redis      RedisConfig
}

// RedisConfig locates the Redis server of the redis backend.
type RedisConfig struct {
	Addr     string        `default:"localhost:6379" usage:"Redis address"`
	Password string        `default:"" usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database number"`
	TTL      time.Duration `default:"720h" usage:"Expiry of idle carts, 0 keeps them forever"`
}

// CatalogConfig selects where the product catalog is loaded from.
type CatalogConfig struct {
	Source string `default:"embedded" usage:"Catalog source: embedded, file or postgres"`
	File   string `default:"" usage:"Catalog JSON document for the file source"`
	Seed   bool   `default:"false" usage:"Seed PostgreSQL with the embedded catalog on start"`
}

// CheckoutConfig tunes order placement.
type CheckoutConfig struct {
	ProcessingDelay time.Duration `default:"2s" usage:"Simulated payment processing time" flag:"processing-delay"`
}

// RateLimitConfig controls the per-client token bucket rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from flags, environment variables and YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return Load(aconfig.Config{})
}

// Load is LoadConfig with loader settings overridden by ac. Empty EnvPrefix,
// Files and FileDecoders fall back to the storefront defaults.
func Load(ac aconfig.Config) (*Config, error) {
	if ac.EnvPrefix == "" {
		ac.EnvPrefix = "STOREFRONT"
	}
	if len(ac.Files) == 0 && !ac.SkipFiles {
		ac.Files = []string{"config.yaml", "/etc/storefront/config.yaml"}
	}
	if ac.FileDecoders == nil {
		ac.FileDecoders = map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		}
	}

	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return &cfg, nil
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	backends := []string{BackendMemory, BackendSQLite, BackendRedis, BackendPostgres}
	if !slices.Contains(backends, c.Storage.Backend) {
		return errors.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	sources := []string{CatalogEmbedded, CatalogFile, CatalogPostgres}
	if !slices.Contains(sources, c.Catalog.Source) {
		return errors.Errorf("unknown catalog source %q", c.Catalog.Source)
	}

	needsDB := c.Storage.Backend == BackendPostgres || c.Catalog.Source == CatalogPostgres || c.Catalog.Seed
	if needsDB && c.DatabaseURL == "" {
		return errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	}
	if c.Storage.Backend == BackendSQLite && c.Storage.SQLitePath == "" {
		return errors.New("sqlite path is required for the sqlite backend")
	}
	if c.Catalog.Source == CatalogFile && c.Catalog.File == "" {
		return errors.New("catalog file is required for the file source")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	if c.Checkout.ProcessingDelay < 0 {
		return errors.New("processing delay must not be negative")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
