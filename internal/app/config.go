package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHELF_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string        `usage:"PostgreSQL connection URL (SHELF_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string        `default:"redis://localhost:6379/0" usage:"Redis connection URL for cart sessions" flag:"redis-url"`
	CartTTL      time.Duration `default:"720h" usage:"Idle TTL for cart session blobs" flag:"cart-ttl"`
	APIKeyPepper string        `usage:"HMAC pepper for API key hashing (SHELF_API_KEY_PEPPER)" flag:"api-key-pepper"`
	CEPBaseURL   string        `default:"https://viacep.com.br/ws" usage:"Base URL of the postal code provider" flag:"cep-base-url"`
	ERP          ERPConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// ERPConfig controls the order submission channel.
type ERPConfig struct {
	URL           string        `usage:"ERP proxy endpoint URL (SHELF_ERP_URL)" flag:"erp-url"`
	Timeout       time.Duration `default:"20s" usage:"ERP submission timeout" flag:"erp-timeout"`
	EcommerceID   string        `default:"13850" usage:"Sales channel identifier sent with every order" flag:"erp-ecommerce-id"`
	PixChannel    string        `default:"Santander" usage:"Settlement channel tag for pix installments" flag:"erp-pix-channel"`
	BoletoChannel string        `default:"Santander" usage:"Settlement channel tag for boleto installments" flag:"erp-boleto-channel"`
	DefaultNote   string        `default:"Pedido via proposta" usage:"Order note used when the request carries none" flag:"erp-default-note"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHELF",
		Files:     []string{"config.yaml", "/etc/shelf/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHELF_DATABASE_URL or DATABASE_URL")
	}
	if cfg.ERP.URL == "" {
		return nil, errors.New("ERP URL is required: set SHELF_ERP_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHELF_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "redis://localhost:6379/0" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
