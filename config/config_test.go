package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "models/house_prices.txt", cfg.ModelPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 0, cfg.HistogramBins)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"HOUSEPRICE_ADDR":             "127.0.0.1:9000",
		"HOUSEPRICE_MODEL_PATH":       "/srv/model.json",
		"HOUSEPRICE_MAX_UPLOAD_BYTES": "2048",
		"HOUSEPRICE_HISTOGRAM_BINS":   "30",
		"HOUSEPRICE_RATE_LIMIT":       "0.5",
		"HOUSEPRICE_READ_TIMEOUT":     "5s",
		"HOUSEPRICE_ID_COLUMN":        "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "/srv/model.json", cfg.ModelPath)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, 30, cfg.HistogramBins)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "Id", cfg.IDColumn, "blank values keep the default")
}

func TestApplyEnvInvalidNumber(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "HOUSEPRICE_MAX_DISPLAY_ROWS" {
			return "many", true
		}
		return "", false
	}

	err := DefaultConfig().applyEnv(lookup)
	var validationErr *errors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "HOUSEPRICE_MAX_DISPLAY_ROWS", validationErr.ParamName)
	assert.Equal(t, "many", validationErr.Value)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"empty model path", func(c *Config) { c.ModelPath = "" }, "ModelPath"},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, "MaxUploadBytes"},
		{"too many bins", func(c *Config) { c.HistogramBins = 101 }, "HistogramBins"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "RateBurst"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "RateLimit"},
		{"zero timeout", func(c *Config) { c.WriteTimeout = 0 }, "WriteTimeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var validationErr *errors.ValidationError
			require.True(t, errors.As(err, &validationErr), "got %v", err)
			assert.Equal(t, tt.param, validationErr.ParamName)
		})
	}

	// レート制限が無効ならバーストは問わない
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	cfg.RateBurst = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HOUSEPRICE_MAX_DISPLAY_ROWS=17\nHOUSEPRICE_LOG_FORMAT=console\n"), 0o600))

	t.Setenv("HOUSEPRICE_LOG_FORMAT", "json") // process env wins over the file
	t.Cleanup(func() { os.Unsetenv("HOUSEPRICE_MAX_DISPLAY_ROWS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.MaxDisplayRows)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
