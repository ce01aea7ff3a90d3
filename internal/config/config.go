package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MaxCurrencyPlaces bounds CURRENCY_PLACES.
const MaxCurrencyPlaces = 4

// DefaultTenors is the installment menu advertised when TENORS is unset.
var DefaultTenors = []int{2, 3, 4, 5, 6, 9, 12, 18, 24}

// Config holds all runtime configuration for coursedesk.
type Config struct {
	Port            int
	LogLevel        string
	CurrencyPlaces  int32
	Tenors          []int
	CloseInterval   time.Duration
	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
//
// A .env file in the working directory is loaded first when present.
// Variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	places, err := getInt("CURRENCY_PLACES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid CURRENCY_PLACES: %w", err)
	}
	if places < 0 || places > MaxCurrencyPlaces {
		return nil, fmt.Errorf("invalid CURRENCY_PLACES: %d, must be between 0 and %d", places, MaxCurrencyPlaces)
	}

	tenors, err := getIntList("TENORS", DefaultTenors)
	if err != nil {
		return nil, fmt.Errorf("invalid TENORS: %w", err)
	}

	closeInterval, err := getDuration("CLOSE_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid CLOSE_INTERVAL: %w", err)
	}
	if closeInterval <= 0 {
		return nil, fmt.Errorf("invalid CLOSE_INTERVAL: %v, must be positive", closeInterval)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		CurrencyPlaces:  int32(places),
		Tenors:          tenors,
		CloseInterval:   closeInterval,
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

// getIntList parses a comma-separated list of positive integers.
func getIntList(key string, defaultVal []int) ([]int, error) {
	v := os.Getenv(key)
	if v == "" {
		out := make([]int, len(defaultVal))
		copy(out, defaultVal)
		return out, nil
	}

	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("%d is not a positive installment count", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
