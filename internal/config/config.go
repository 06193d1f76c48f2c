package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultInternalToken = "change-me-internal-token"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"studiomarket.db"`

	JWTSecret     string `envconfig:"JWT_SECRET" default:"change-me-jwt-secret"`
	InternalToken string `envconfig:"INTERNAL_TOKEN" default:"change-me-internal-token"`

	PaymentWindow      time.Duration `envconfig:"PAYMENT_WINDOW" default:"15m"`
	CancellationWindow time.Duration `envconfig:"CANCELLATION_WINDOW" default:"24h"`
	SecurityHold       time.Duration `envconfig:"SECURITY_HOLD" default:"24h"`
	ReviewBlindWindow  time.Duration `envconfig:"REVIEW_BLIND_WINDOW" default:"48h"`

	PlatformFeeRate string `envconfig:"PLATFORM_FEE_RATE" default:"0.20"`
	PlatformFeeMin  string `envconfig:"PLATFORM_FEE_MIN" default:"100"`

	StudioLateCancelLimit  int           `envconfig:"STUDIO_LATE_CANCEL_LIMIT" default:"3"`
	StudioLateCancelPeriod time.Duration `envconfig:"STUDIO_LATE_CANCEL_PERIOD" default:"720h"`

	SchedulerEnabled    bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SweepInterval       time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	SweepOnReadThrottle time.Duration `envconfig:"SWEEP_ON_READ_THROTTLE" default:"10s"`

	NotificationRetention     time.Duration `envconfig:"NOTIFICATION_RETENTION" default:"2160h"`
	NotificationReadRetention time.Duration `envconfig:"NOTIFICATION_READ_RETENTION" default:"720h"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"studiomarket.events"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProd() bool {
	return isProdLike(c.AppEnv)
}

func (c *Config) FeeRate() decimal.Decimal {
	return decimal.RequireFromString(c.PlatformFeeRate)
}

func (c *Config) FeeMin() decimal.Decimal {
	return decimal.RequireFromString(c.PlatformFeeMin)
}

func validateConfig(cfg *Config) error {
	durations := map[string]time.Duration{
		"PAYMENT_WINDOW":              cfg.PaymentWindow,
		"CANCELLATION_WINDOW":         cfg.CancellationWindow,
		"SECURITY_HOLD":               cfg.SecurityHold,
		"REVIEW_BLIND_WINDOW":         cfg.ReviewBlindWindow,
		"SWEEP_INTERVAL":              cfg.SweepInterval,
		"STUDIO_LATE_CANCEL_PERIOD":   cfg.StudioLateCancelPeriod,
		"NOTIFICATION_RETENTION":      cfg.NotificationRetention,
		"NOTIFICATION_READ_RETENTION": cfg.NotificationReadRetention,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	if cfg.SweepOnReadThrottle < 0 {
		return fmt.Errorf("SWEEP_ON_READ_THROTTLE must be >= 0")
	}

	rate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be a decimal in [0,1]")
	}
	minFee, err := decimal.NewFromString(cfg.PlatformFeeMin)
	if err != nil || minFee.IsNegative() {
		return fmt.Errorf("PLATFORM_FEE_MIN must be a non-negative decimal")
	}
	if cfg.StudioLateCancelLimit <= 0 {
		return fmt.Errorf("STUDIO_LATE_CANCEL_LIMIT must be > 0")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.InternalToken, defaultInternalToken) {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set and not default")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production", "release":
		return true
	default:
		return false
	}
}

func isEmptyOrDefault(value, def string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == def
}
