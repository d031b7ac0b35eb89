package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Shopify  ShopifyConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Pricing  PricingConfig

	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
}

type ShopifyConfig struct {
	ShopDomain  string `env:"SHOPIFY_SHOP_DOMAIN,required,notEmpty"`
	AccessToken string `env:"SHOPIFY_ACCESS_TOKEN,required,notEmpty"`
	APIKey      string `env:"SHOPIFY_API_KEY"`
	APISecret   string `env:"SHOPIFY_API_SECRET"`
	APIVersion  string `env:"SHOPIFY_API_VERSION" envDefault:"2024-10"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,required,notEmpty"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"10m"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST,required,notEmpty"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER,required,notEmpty"`
	Password        string        `env:"DB_PASSWORD,required,notEmpty"`
	Name            string        `env:"DB_NAME,required,notEmpty"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"2m"`
	ConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"2m"`
}

type PricingConfig struct {
	// Requests per client per window on the quote endpoint; 0 disables.
	RateLimit       int64         `env:"PRICE_RATE_LIMIT" envDefault:"60"`
	RateLimitWindow time.Duration `env:"PRICE_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads .env outside production, then parses the environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load()
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Shopify.ShopDomain = NormalizeShopDomain(cfg.Shopify.ShopDomain)
	if cfg.Shopify.ShopDomain == "" {
		return nil, fmt.Errorf("SHOPIFY_SHOP_DOMAIN is empty")
	}
	if cfg.Pricing.RateLimit < 0 {
		return nil, fmt.Errorf("PRICE_RATE_LIMIT must not be negative")
	}
	if cfg.Pricing.RateLimit > 0 && cfg.Pricing.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("PRICE_RATE_LIMIT_WINDOW must be positive")
	}
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")

	return &cfg, nil
}

// NormalizeShopDomain strips scheme and trailing slashes, leaving
// "shop.myshopify.com".
func NormalizeShopDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}

// ShopName is the domain without ".myshopify.com".
func (s ShopifyConfig) ShopName() string {
	return strings.TrimSuffix(s.ShopDomain, ".myshopify.com")
}
