package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultAppName        = "StakeHarbor"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultBaseCurrency   = "USDT"
	defaultLockedRates    = "30:0.075,90:0.105,180:0.125"
	defaultFlexibleRate   = "0.045"
	defaultExitPenalty    = "0.10"

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Persistence modes. In simulated mode every store is in-memory and the
// process needs neither PostgreSQL nor Redis.
const (
	PersistenceReal      = "real"
	PersistenceSimulated = "simulated"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName         string
	Env             string
	Port            string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	JWTSecret       string
	AdminKeyHash    string
	PersistenceMode string
	BaseCurrency    string

	// Rate configuration. LockedRates maps a term in days to its monthly
	// rate; FlexibleMonthlyRate applies to flexible positions.
	LockedRates         map[int]decimal.Decimal
	FlexibleMonthlyRate decimal.Decimal
	// EarlyExitPenalty is the fraction of principal withheld when an admin
	// force-closes a locked stake with the penalty flag.
	EarlyExitPenalty decimal.Decimal
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		Env:             getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminKeyHash:    os.Getenv("ADMIN_KEY_HASH"),
		PersistenceMode: strings.ToLower(getEnv("PERSISTENCE_MODE", PersistenceReal)),
		BaseCurrency:    getEnv("BASE_CURRENCY", defaultBaseCurrency),
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(idemTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLSecondsEnvVar, err)
		}
		cfg.IdempotencyTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(idemTTLDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLDurEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	var err error
	if cfg.LockedRates, err = parseLockedRates(getEnv("LOCKED_RATES", defaultLockedRates)); err != nil {
		return Config{}, err
	}
	if cfg.FlexibleMonthlyRate, err = decimal.NewFromString(getEnv("FLEXIBLE_MONTHLY_RATE", defaultFlexibleRate)); err != nil {
		return Config{}, fmt.Errorf("invalid FLEXIBLE_MONTHLY_RATE: %w", err)
	}
	if cfg.EarlyExitPenalty, err = decimal.NewFromString(getEnv("EARLY_EXIT_PENALTY", defaultExitPenalty)); err != nil {
		return Config{}, fmt.Errorf("invalid EARLY_EXIT_PENALTY: %w", err)
	}
	if cfg.EarlyExitPenalty.IsNegative() || cfg.EarlyExitPenalty.GreaterThan(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("EARLY_EXIT_PENALTY must be between 0 and 1")
	}

	switch cfg.PersistenceMode {
	case PersistenceReal:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
	case PersistenceSimulated:
	default:
		return Config{}, fmt.Errorf("invalid PERSISTENCE_MODE %q", cfg.PersistenceMode)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// parseLockedRates parses "30:0.075,90:0.105,180:0.125" style rate tables.
func parseLockedRates(raw string) (map[int]decimal.Decimal, error) {
	rates := make(map[int]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid LOCKED_RATES entry %q", pair)
		}
		days, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid LOCKED_RATES term %q", parts[0])
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid LOCKED_RATES rate %q: %w", parts[1], err)
		}
		rates[days] = rate
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("LOCKED_RATES must define at least one term")
	}
	return rates, nil
}

// Simulated reports whether the process runs entirely on in-memory stores.
func (c Config) Simulated() bool {
	return c.PersistenceMode == PersistenceSimulated
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
