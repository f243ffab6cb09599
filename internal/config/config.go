// Package config loads and validates application configuration from environment
// variables, optionally layered over a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for the API server and hosctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MapboxToken enables Mapbox routing. When empty every trip is routed
	// with the straight-line estimator.
	MapboxToken   string
	MapboxBaseURL string
	// RouteRPS caps outbound routing calls per second. Defaults to 5.
	RouteRPS float64

	// JWTSecret is the HS256 key used to verify bearer tokens. When empty,
	// bearer tokens are ignored and every request is anonymous.
	JWTSecret string

	// RedisURL enables the daily-log cache (redis://host:port/db).
	RedisURL string
	// LogCacheTTL is how long cached daily logs live. Defaults to 10m.
	LogCacheTTL time.Duration

	// GridResolutionMinutes is the default grid bucket size. Defaults to 60.
	GridResolutionMinutes int

	// Location is the zone day boundaries are computed in. TIMEZONE, defaults to UTC.
	Location *time.Location
}

// Load reads configuration and returns a Config. When CONFIG_FILE names a
// YAML file its keys (lower-case variable names, e.g. "log_level") supply
// values for any variable not set in the environment.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:          src.get("PORT", "8080"),
		LogLevel:      src.get("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(src.get("CORS_ORIGINS", "http://localhost:5173")),
		MapboxToken:   src.get("MAPBOX_TOKEN", ""),
		MapboxBaseURL: src.get("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		JWTSecret:     src.get("JWT_SECRET", ""),
		RedisURL:      src.get("REDIS_URL", ""),
	}

	var missing, invalid []string

	cfg.DatabaseURL = src.get("DATABASE_URL", "")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if v, err := strconv.ParseInt(src.get("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || v <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	} else {
		cfg.MaxBodyBytes = v
	}
	if v, err := strconv.ParseFloat(src.get("ROUTE_RPS", "5"), 64); err != nil || v <= 0 {
		invalid = append(invalid, "ROUTE_RPS")
	} else {
		cfg.RouteRPS = v
	}
	if v, err := time.ParseDuration(src.get("LOG_CACHE_TTL", "10m")); err != nil || v < 0 {
		invalid = append(invalid, "LOG_CACHE_TTL")
	} else {
		cfg.LogCacheTTL = v
	}
	if v, err := strconv.Atoi(src.get("GRID_RESOLUTION_MINUTES", "60")); err != nil || v <= 0 || 1440%v != 0 {
		invalid = append(invalid, "GRID_RESOLUTION_MINUTES")
	} else {
		cfg.GridResolutionMinutes = v
	}
	if loc, err := time.LoadLocation(src.get("TIMEZONE", "UTC")); err != nil {
		invalid = append(invalid, "TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid values for: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return source{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	file := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(tv))
			for i, p := range tv {
				parts[i] = fmt.Sprint(p)
			}
			file[strings.ToLower(k)] = strings.Join(parts, ",")
		default:
			file[strings.ToLower(k)] = fmt.Sprint(tv)
		}
	}
	return source{file: file}, nil
}

// get returns the value for key, or fallback if neither the environment nor
// the file sets a non-empty value.
func (s source) get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := s.file[strings.ToLower(key)]; v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
