// Package config loads gateway configuration from the environment, the
// same GetEnv/GetEnvInt/GetEnvBool idiom as the teacher's
// infrastructure/config/loader.go.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full set of knobs the gateway binary reads at startup.
type Config struct {
	ListenAddr string
	DatabaseDSN string

	LogLevel  string
	LogFormat string

	DispatchTimeout      time.Duration
	DispatchMaxBodyBytes int64
	DispatchRateLimit    float64
	DispatchBurst        int

	MetricsAddr string
}

// Load reads Config from the environment, applying the teacher's defaults
// pattern: every value has a sane fallback so the binary runs unconfigured
// in development.
func Load() (Config, error) {
	burst, err := GetEnvInt("FH_DISPATCH_BURST", 40)
	if err != nil {
		return Config{}, err
	}
	timeoutSeconds, err := GetEnvInt("FH_DISPATCH_TIMEOUT_SECONDS", 15)
	if err != nil {
		return Config{}, err
	}
	maxBody, err := GetEnvInt("FH_DISPATCH_MAX_BODY_BYTES", 4<<20)
	if err != nil {
		return Config{}, err
	}
	rateLimit, err := getEnvFloat("FH_DISPATCH_RATE_LIMIT", 20)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ListenAddr:           GetEnv("FH_LISTEN_ADDR", ":3030"),
		DatabaseDSN:          GetEnv("FH_DATABASE_DSN", "postgres://localhost:5432/flowheater?sslmode=disable"),
		LogLevel:             GetEnv("FH_LOG_LEVEL", "info"),
		LogFormat:            GetEnv("FH_LOG_FORMAT", "text"),
		DispatchTimeout:      time.Duration(timeoutSeconds) * time.Second,
		DispatchMaxBodyBytes: int64(maxBody),
		DispatchRateLimit:    rateLimit,
		DispatchBurst:        burst,
		MetricsAddr:          GetEnv("FH_METRICS_ADDR", ":9090"),
	}, nil
}

// GetEnv returns the named environment variable or def if unset/empty.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvBool parses a boolean environment variable, falling back to def.
func GetEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s as bool: %w", key, err)
	}
	return b, nil
}

// GetEnvInt parses an integer environment variable, falling back to def.
func GetEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s as int: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s as float: %w", key, err)
	}
	return f, nil
}
