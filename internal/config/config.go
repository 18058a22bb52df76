package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPHost    string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int    `env:"DB_MIN_CONNS" envDefault:"1"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID,required,notEmpty"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET,required,notEmpty"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL,required,notEmpty"`
	GoogleIssuerURL    string        `env:"GOOGLE_ISSUER_URL" envDefault:"https://accounts.google.com"`
	OAuthTimeout       time.Duration `env:"OAUTH_TIMEOUT" envDefault:"10s"`

	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`

	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	// Sin valor no se confia en X-Forwarded-For de ningun peer.
	TrustedProxies     []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

const minSessionSecretLen = 32

var (
	ErrWeakSessionSecret   = errors.New("SESSION_SECRET must be at least 32 bytes")
	ErrInvalidTrustedProxy = errors.New("TRUSTED_PROXIES entry is not an IP or CIDR")
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa reglas que los tags de env no pueden expresar.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < minSessionSecretLen {
		return ErrWeakSessionSecret
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.OAuthTimeout <= 0 {
		return errors.New("OAUTH_TIMEOUT must be positive")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS/DB_MAX_CONNS out of range")
	}
	for _, proxy := range c.TrustedProxies {
		proxy = strings.TrimSpace(proxy)
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTrustedProxy, proxy)
		}
	}
	return nil
}

// Addr devuelve host:port para el servidor HTTP.
func (c *Config) Addr() string {
	return c.HTTPHost + ":" + c.HTTPPort
}
