package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. RESERVATION_HTTP_PORT.
const EnvPrefix = "RESERVATION"

// Config captures the settings of the reservation server.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	Timezone           string
	JWTSecret          string
	LogLevel           string
	LogFormat          string
	MetricsEnabled     bool
	SpaceCacheTTL      time.Duration
	SpaceCacheSize     int
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

var defaults = map[string]any{
	"http_port":            8080,
	"sqlite_dsn":           "file:reservation.db",
	"timezone":             "Asia/Seoul",
	"log_level":            "info",
	"log_format":           "json",
	"metrics_enabled":      true,
	"space_cache_ttl":      "30s",
	"space_cache_size":     256,
	"cors_allowed_origins": "",
	"request_timeout":      "15s",
	"shutdown_timeout":     "10s",
}

// Load reads defaults, then the optional config file at path, then
// RESERVATION_* environment variables.
//
// Missing required values and invalid values are collected and reported in a
// single error.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("jwt_secret", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Config{
		SQLiteDSN:          strings.TrimSpace(v.GetString("sqlite_dsn")),
		Timezone:           strings.TrimSpace(v.GetString("timezone")),
		JWTSecret:          strings.TrimSpace(v.GetString("jwt_secret")),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:          strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		CORSAllowedOrigins: stringList(v, "cors_allowed_origins"),
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if cfg.JWTSecret == "" {
		missing = append(missing, "jwt_secret")
	}
	if cfg.SQLiteDSN == "" {
		missing = append(missing, "sqlite_dsn")
	}

	if port, err := parseInt(v.GetString("http_port")); err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "http_port")
	} else {
		cfg.HTTPPort = port
	}

	if enabled, err := parseBool(v.GetString("metrics_enabled")); err != nil {
		invalid = append(invalid, "metrics_enabled")
	} else {
		cfg.MetricsEnabled = enabled
	}

	if size, err := parseInt(v.GetString("space_cache_size")); err != nil || size < 0 {
		invalid = append(invalid, "space_cache_size")
	} else {
		cfg.SpaceCacheSize = size
	}

	durations := []struct {
		key  string
		dest *time.Duration
	}{
		{"space_cache_ttl", &cfg.SpaceCacheTTL},
		{"request_timeout", &cfg.RequestTimeout},
		{"shutdown_timeout", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		value, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil || value < 0 {
			invalid = append(invalid, d.key)
			continue
		}
		*d.dest = value
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil || cfg.Timezone == "" {
		invalid = append(invalid, "timezone")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true, nil
	case "0", "f", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", value)
}

// stringList accepts either a list from the config file or a comma separated
// string, as environment variables carry it.
func stringList(v *viper.Viper, key string) []string {
	var items []string
	switch v.Get(key).(type) {
	case []any, []string:
		items = v.GetStringSlice(key)
	default:
		items = strings.Split(v.GetString(key), ",")
	}

	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
