package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CART_ prefix), flags, or YAML config files.
type Config struct {
	APIBaseURL string `default:"http://localhost:8080/api" usage:"Storefront API base URL" flag:"api-base-url"`
	DataDir    string `default:"" usage:"Directory for persisted cart state (defaults to the user cache dir)" flag:"data-dir"`
	RedisURL   string `default:"" usage:"Optional Redis URL for shared cart state (CART_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	StateTTL   time.Duration `default:"720h" usage:"Expiry for Redis-persisted cart state" flag:"state-ttl"`
	HTTP       HTTPConfig
}

// HTTPConfig controls the outbound HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration `default:"15s" usage:"Per-request timeout"`
	UserAgent string        `default:"storefront-cart/1.0" usage:"User-Agent header" flag:"user-agent"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CART",
		Files:     []string{"config.yaml", "/etc/storefront-cart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DataDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return nil, errors.Wrap(err, "resolve cache dir")
		}
		cfg.DataDir = filepath.Join(cacheDir, "storefront-cart")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps standard environment variable names like
// REDIS_URL to the application's CART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
}
