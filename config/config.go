// Package config loads service configuration from defaults, optional .env
// files and HOUSEPRICE_* environment variables, in that order of precedence
// (later wins).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HOUSEPRICE_"

// Config holds all application configuration.
type Config struct {
	Addr      string
	ModelPath string

	IDColumn     string // row identifier column split off before prediction
	TargetColumn string // known price column, used only for evaluation

	MaxUploadBytes int64
	MaxRows        int
	MaxDisplayRows int
	HistogramBins  int // 0 selects the bin count automatically

	LogLevel  string
	LogFormat string

	RateLimit float64 // predict requests per second, 0 disables limiting
	RateBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SentryDSN   string
	Environment string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ModelPath:       "models/house_prices.txt",
		IDColumn:        "Id",
		TargetColumn:    "SalePrice",
		MaxUploadBytes:  10 << 20,
		MaxRows:         100000,
		MaxDisplayRows:  200,
		HistogramBins:   0,
		LogLevel:        "info",
		LogFormat:       "json",
		RateLimit:       5,
		RateBurst:       10,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Environment:     "development",
	}
}

// Load builds a Config from defaults, env files and the process environment.
// With no envFiles a ".env" in the working directory is read if it exists;
// files named explicitly must exist. Values already present in the process
// environment are never overwritten by env files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			envFiles = []string{".env"}
		}
	}
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.Wrapf(err, "load env files %s", strings.Join(envFiles, ", "))
		}
	}

	cfg := DefaultConfig()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides fields from HOUSEPRICE_* variables.
func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}
	e.str("ADDR", &c.Addr)
	e.str("MODEL_PATH", &c.ModelPath)
	e.str("ID_COLUMN", &c.IDColumn)
	e.str("TARGET_COLUMN", &c.TargetColumn)
	e.int64("MAX_UPLOAD_BYTES", &c.MaxUploadBytes)
	e.int("MAX_ROWS", &c.MaxRows)
	e.int("MAX_DISPLAY_ROWS", &c.MaxDisplayRows)
	e.int("HISTOGRAM_BINS", &c.HistogramBins)
	e.str("LOG_LEVEL", &c.LogLevel)
	e.str("LOG_FORMAT", &c.LogFormat)
	e.float("RATE_LIMIT", &c.RateLimit)
	e.int("RATE_BURST", &c.RateBurst)
	e.duration("READ_TIMEOUT", &c.ReadTimeout)
	e.duration("WRITE_TIMEOUT", &c.WriteTimeout)
	e.duration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	e.str("SENTRY_DSN", &c.SentryDSN)
	e.str("ENV", &c.Environment)
	return e.err
}

// envReader records the first parse failure and ignores later variables.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(EnvPrefix + key)
	return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
}

func (e *envReader) fail(key, raw string, err error) {
	e.err = errors.NewValidationError(EnvPrefix+key, err.Error(), raw)
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = d
	}
}

// Validate checks the configuration and returns a ValidationError for the
// first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.NewValidationError("Addr", "must not be empty", c.Addr)
	case c.ModelPath == "":
		return errors.NewValidationError("ModelPath", "must not be empty", c.ModelPath)
	case c.MaxUploadBytes <= 0:
		return errors.NewValidationError("MaxUploadBytes", "must be positive", c.MaxUploadBytes)
	case c.MaxRows < 0:
		return errors.NewValidationError("MaxRows", "must be >= 0", c.MaxRows)
	case c.MaxDisplayRows < 0:
		return errors.NewValidationError("MaxDisplayRows", "must be >= 0", c.MaxDisplayRows)
	case c.HistogramBins < 0 || c.HistogramBins > 100:
		return errors.NewValidationError("HistogramBins", "must be between 0 and 100", c.HistogramBins)
	case c.LogFormat != string(log.FormatJSON) && c.LogFormat != string(log.FormatConsole):
		return errors.NewValidationError("LogFormat", "must be json or console", c.LogFormat)
	case c.RateLimit < 0:
		return errors.NewValidationError("RateLimit", "must be >= 0", c.RateLimit)
	case c.RateLimit > 0 && c.RateBurst < 1:
		return errors.NewValidationError("RateBurst", "must be >= 1 when rate limiting is enabled", c.RateBurst)
	case c.ReadTimeout <= 0:
		return errors.NewValidationError("ReadTimeout", "must be positive", c.ReadTimeout)
	case c.WriteTimeout <= 0:
		return errors.NewValidationError("WriteTimeout", "must be positive", c.WriteTimeout)
	case c.ShutdownTimeout <= 0:
		return errors.NewValidationError("ShutdownTimeout", "must be positive", c.ShutdownTimeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("LogLevel", "must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}
