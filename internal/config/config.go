package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvironmentSandbox = "sandbox"
	EnvironmentLive    = "live"
)

// Default Payza endpoints; overridable so tests can point the exchange
// client at a local server.
const (
	defaultLiveCheckoutURL    = "https://secure.payza.com/checkout"
	defaultSandboxCheckoutURL = "https://sandbox.payza.com/sandbox/payprocess.aspx"
	defaultLiveIPNURL         = "https://secure.payza.com/ipn2.ashx"
	defaultSandboxIPNURL      = "https://sandbox.payza.com/sandbox/ipn2.ashx"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	RedisAddr   string

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to derive the return, cancel and IPN alert URLs.
	PublicBaseURL string

	// Environment selects sandbox vs live: merchant identity and both
	// Payza endpoints follow it.
	Environment   string
	SandboxEmail  string
	LiveEmail     string
	IPNConfigured bool
	Debug         bool

	LiveCheckoutURL    string
	SandboxCheckoutURL string
	LiveIPNURL         string
	SandboxIPNURL      string

	ExchangeTimeout time.Duration

	CheckoutRateLimitPerMin int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPPort:                getEnv("HTTP_PORT", "8080"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		PublicBaseURL:           strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		Environment:             strings.ToLower(getEnv("PAYZA_ENVIRONMENT", EnvironmentSandbox)),
		SandboxEmail:            strings.TrimSpace(os.Getenv("PAYZA_SANDBOX_EMAIL")),
		LiveEmail:               strings.TrimSpace(os.Getenv("PAYZA_LIVE_EMAIL")),
		IPNConfigured:           getEnvBool("PAYZA_IPN_CONFIGURED", false),
		Debug:                   getEnvBool("PAYZA_DEBUG", false),
		LiveCheckoutURL:         getEnv("PAYZA_LIVE_CHECKOUT_URL", defaultLiveCheckoutURL),
		SandboxCheckoutURL:      getEnv("PAYZA_SANDBOX_CHECKOUT_URL", defaultSandboxCheckoutURL),
		LiveIPNURL:              getEnv("PAYZA_LIVE_IPN_URL", defaultLiveIPNURL),
		SandboxIPNURL:           getEnv("PAYZA_SANDBOX_IPN_URL", defaultSandboxIPNURL),
		CheckoutRateLimitPerMin: getEnvInt("CHECKOUT_RATE_LIMIT_PER_MIN", 60),
	}

	exchangeTimeout, err := time.ParseDuration(getEnv("PAYZA_EXCHANGE_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("parse PAYZA_EXCHANGE_TIMEOUT: %w", err)
	}
	cfg.ExchangeTimeout = exchangeTimeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.PublicBaseURL == "" {
		errs = append(errs, "PUBLIC_BASE_URL is required")
	} else if u, err := url.Parse(c.PublicBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, "PUBLIC_BASE_URL must be an absolute http(s) URL")
	}
	switch c.Environment {
	case EnvironmentSandbox:
		if c.SandboxEmail == "" {
			errs = append(errs, "PAYZA_SANDBOX_EMAIL is required in sandbox mode")
		}
	case EnvironmentLive:
		if c.LiveEmail == "" {
			errs = append(errs, "PAYZA_LIVE_EMAIL is required in live mode")
		}
	default:
		errs = append(errs, "PAYZA_ENVIRONMENT must be sandbox or live")
	}
	if c.ExchangeTimeout <= 0 || c.ExchangeTimeout > 5*time.Minute {
		errs = append(errs, "PAYZA_EXCHANGE_TIMEOUT must be between 1s and 5m")
	}
	if c.CheckoutRateLimitPerMin <= 0 {
		errs = append(errs, "CHECKOUT_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// IsSandbox reports whether the gateway runs against the Payza sandbox.
func (c *Config) IsSandbox() bool {
	return c.Environment == EnvironmentSandbox
}

// MerchantEmail returns the merchant account identity matching the
// configured environment.
func (c *Config) MerchantEmail() string {
	if c.IsSandbox() {
		return c.SandboxEmail
	}
	return c.LiveEmail
}

// CheckoutEndpoint is the hosted payment page the checkout form posts to.
func (c *Config) CheckoutEndpoint() string {
	if c.IsSandbox() {
		return c.SandboxCheckoutURL
	}
	return c.LiveCheckoutURL
}

// ExchangeEndpoint is where IPN tokens are posted back for verification.
func (c *Config) ExchangeEndpoint() string {
	if c.IsSandbox() {
		return c.SandboxIPNURL
	}
	return c.LiveIPNURL
}

// IPNListenerURL is the webhook Payza calls with the notification token.
func (c *Config) IPNListenerURL() string {
	return c.PublicBaseURL + "/ipn/payza"
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
