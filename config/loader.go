package config

import (
	"io"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mcuadros/go-defaults"
)

// LookupFunc resolves a configuration key. It has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv looks configuration keys up in the process environment.
var FromEnv LookupFunc = os.LookupEnv

// Load reads, defaults and resolves the configuration, then validates it
// against the remaining invocation time. remaining is sampled twice: once to
// resolve a percentage threshold and once for the startup time check.
//
// Unparsable numeric values keep their default and are reported at debug level.
// Empty values are treated as unset.
func Load(lookup LookupFunc, remaining func() time.Duration, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	initial := remaining()

	cfg := &Config{}
	defaults.SetDefaults(cfg)

	logger.Debug("reading configuration")
	cfg.readEnv(lookup, logger)
	cfg.resolve(initial, logger)
	logger.Debug("read configuration")

	if err := cfg.Validate(remaining()); err != nil {
		logger.Error("configuration validation failed", "error", err)
		return nil, err
	}
	return cfg, nil
}

// DebugEnabled reports whether the debug key is switched on.
// It lets callers pick a log level before the full configuration is loaded.
func DebugEnabled(lookup LookupFunc) bool {
	raw, ok := lookup(EnvDebug)
	return ok && parseBool(raw)
}

// readEnv overlays every env-tagged field with its value from lookup.
func (c *Config) readEnv(lookup LookupFunc, logger *slog.Logger) {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("env")
		if key == "" {
			continue
		}
		fv := v.Field(i)

		raw, ok := lookup(key)
		if !ok || raw == "" {
			logger.Debug("no value found for key, using default", "key", key, "default", printable(field, fv))
			continue
		}

		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Bool:
			fv.SetBool(parseBool(raw))
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, field.Type.Bits())
			if err != nil {
				logger.Debug("error parsing value, using default", "key", key, "error", err)
				continue
			}
			fv.SetInt(n)
		}
		logger.Debug("found value for key", "key", key, "value", printable(field, fv))
	}
}

// resolve derives the absolute stop threshold and applies the part size floor.
func (c *Config) resolve(initial time.Duration, logger *slog.Logger) {
	if c.MaxRemainingTimeMS != 0 {
		c.MaxRemainingTime = time.Duration(c.MaxRemainingTimeMS) * time.Millisecond
	} else {
		c.MaxRemainingTime = initial * time.Duration(c.MaxRemainingTimePercentage) / 100
		logger.Debug("calculated stop threshold from percentage",
			"key", EnvMaxRemainingTimePercentage,
			"percentage", c.MaxRemainingTimePercentage,
			"threshold", c.MaxRemainingTime)
	}

	if c.PartSizeKB < MinPartSizeKB {
		logger.Debug("part size is below the minimum, using the minimum",
			"key", EnvUploadPartSizeKB,
			"configured", humanize.IBytes(uint64(max(c.PartSizeKB, 0))*1024),
			"minimum", humanize.IBytes(MinPartSize))
		c.PartSizeKB = MinPartSizeKB
	}
}

// parseBool accepts "true" in any case and "1"; everything else is false.
func parseBool(raw string) bool {
	return strings.EqualFold(raw, "true") || raw == "1"
}

func printable(field reflect.StructField, fv reflect.Value) any {
	if field.Tag.Get("secret") == "true" && !fv.IsZero() {
		return "********"
	}
	return fv.Interface()
}
