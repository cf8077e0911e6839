package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,   default=24h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	OTP    OTPConfig
	Coupon CouponConfig
	Cookie CookieConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=loyalty_platform"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=50"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// OTPConfig drives password recovery.
type OTPConfig struct {
	CodeTTL       time.Duration `env:"OTP_TTL,          default=10m"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL,  default=15m"`
	MaxAttempts   int           `env:"OTP_MAX_ATTEMPTS, default=5"`
	// Simulate accepts any 6-digit code. Never enable outside development.
	Simulate  bool `env:"OTP_SIMULATE,   default=false"`
	Workers   int  `env:"OTP_WORKERS,    default=4"`
	QueueSize int  `env:"OTP_QUEUE_SIZE, default=256"`
}

type CouponConfig struct {
	// Timezone decides which calendar day "today" is for coupon windows.
	Timezone string `env:"COUPON_TIMEZONE, default=UTC"`
	// PlansFile overrides the built-in plan catalog.
	PlansFile string `env:"PLANS_FILE"`
}

type CookieConfig struct {
	Domain string `env:"COOKIE_DOMAIN"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the coupon timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Coupon.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: COUPON_TIMEZONE: %w", err)
	}
	return loc, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("config: JWT_SECRET is required outside development")
	}
	if c.OTP.Simulate && !c.IsDevelopment() {
		return errors.New("config: OTP_SIMULATE is only allowed in development")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
