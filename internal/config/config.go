package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App          AppConfig
	Auth         AuthConfig
	Supabase     SupabaseConfig
	DB           DBConfig
	Redis        RedisConfig
	Subscription SubscriptionConfig
}

type AppConfig struct {
	Env  string
	Port int

	// CORSAllowOrigin defaults to "*". Cookie-based sessions from a browser
	// need a concrete origin.
	CORSAllowOrigin string
}

type AuthConfig struct {
	// JWTSecret signs session tokens. Falls back to SUPABASE_JWT_SECRET.
	JWTSecret string
	// TokenTTL applies when the provider does not report a session lifetime.
	TokenTTL            time.Duration
	RefreshCookieMaxAge time.Duration
}

type SupabaseConfig struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// DBConfig points at the subscription store. An empty Host is allowed outside
// staging/production; every caller then resolves to the free tier.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional; an empty Host disables the subscription cache.
type RedisConfig struct {
	Host string
	Port int
}

type SubscriptionConfig struct {
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration
}

const (
	defaultTokenTTL         = time.Hour
	defaultRefreshMaxAge    = 7 * 24 * time.Hour
	defaultGoTrueTimeout    = 5 * time.Second
	defaultSubscriptionTTL  = 30 * time.Second
	minProductionSecretSize = 32
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.CORSAllowOrigin = strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGIN"))

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	}
	c.Auth.TokenTTL, parseErrs = durationOr(parseErrs, "JWT_TOKEN_TTL", defaultTokenTTL)
	c.Auth.RefreshCookieMaxAge, parseErrs = durationOr(parseErrs, "REFRESH_COOKIE_MAX_AGE", defaultRefreshMaxAge)

	c.Supabase.URL = strings.TrimSpace(os.Getenv("SUPABASE_URL"))
	c.Supabase.AnonKey = strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY"))
	c.Supabase.Timeout, parseErrs = durationOr(parseErrs, "GOTRUE_TIMEOUT", defaultGoTrueTimeout)

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	if c.DB.Host != "" {
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Subscription.CacheTTL, parseErrs = durationOr(parseErrs, "SUBSCRIPTION_CACHE_TTL", defaultSubscriptionTTL)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.App.CORSAllowOrigin == "" {
		c.App.CORSAllowOrigin = "*"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = defaultTokenTTL
	}
	if c.Auth.RefreshCookieMaxAge <= 0 {
		c.Auth.RefreshCookieMaxAge = defaultRefreshMaxAge
	}
	if c.Supabase.Timeout <= 0 {
		c.Supabase.Timeout = defaultGoTrueTimeout
	}
	// Local-friendly default; production must be explicit.
	if c.DB.Host != "" && c.DB.SSLMode == "" && !c.IsProduction() {
		c.DB.SSLMode = "disable"
	}
}

func (c Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretSize {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretSize))
	}
	if c.Auth.TokenTTL < time.Second {
		errs = append(errs, errors.New("JWT_TOKEN_TTL must be at least 1s"))
	}

	if c.Supabase.URL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	}
	if c.Supabase.AnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
	}

	if c.DB.Host == "" {
		if c.App.Env == "staging" || c.IsProduction() {
			errs = append(errs, errors.New("DB_HOST is required in staging and production"))
		}
	} else {
		if c.DB.Port <= 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required"))
		}
		if c.DB.SSLMode == "" {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else if !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}
	if c.Subscription.CacheTTL < 0 {
		errs = append(errs, errors.New("SUBSCRIPTION_CACHE_TTL must not be negative"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) HasDatabase() bool { return c.DB.Host != "" }

func (c Config) HasRedis() bool { return c.Redis.Host != "" }

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// durationOr parses an optional duration. Bare integers are read as seconds so
// cookie-style values like 604800 work.
func durationOr(errs []error, key string, def time.Duration) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, errs
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
