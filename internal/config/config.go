// Package config manages the gowsd daemon configuration using koanf/v2.
//
// Supports YAML files and environment variables; there is no CLI-flag layer.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/gowsd/gowsd/internal/dpp"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete gowsd configuration.
type Config struct {
	GRPC    GRPCConfig    `koanf:"grpc"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Station StationConfig `koanf:"station"`
	FT      FTConfig      `koanf:"ft"`
	DPP     DPPConfig     `koanf:"dpp"`
}

// GRPCConfig holds the ConnectRPC server configuration.
type GRPCConfig struct {
	// Addr is the gRPC listen address (e.g., ":50151").
	Addr string `koanf:"addr"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9110").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// StationConfig names the wireless interface this daemon manages and the
// identity it presents to peers during roaming and provisioning.
type StationConfig struct {
	// Interface is the network interface name (e.g., "wlan0").
	Interface string `koanf:"interface"`

	// Ifindex is the kernel interface index for netlink requests. It is
	// loaded as configured; the daemon does not derive it from Interface.
	Ifindex int `koanf:"ifindex"`

	// MAC is the station's own hardware address, hex without separators.
	MAC string `koanf:"mac"`
}

// FTConfig holds the default Fast BSS Transition parameters.
type FTConfig struct {
	// Enabled toggles FT-over-Air/FT-over-DS roaming support.
	Enabled bool `koanf:"enabled"`

	// R0KHID is the default R0 key holder identifier carried in the FTE of
	// an FT attempt whose request names none.
	R0KHID string `koanf:"r0kh_id"`

	// ResponseTimeoutMS is validated at load time but is not applied to the
	// FT runner, which uses its own fixed response timeout.
	ResponseTimeoutMS int `koanf:"response_timeout_ms"`
}

// DPPConfig holds the default Device Provisioning Protocol parameters.
type DPPConfig struct {
	// Enabled toggles DPP bootstrap/authentication/configuration support.
	Enabled bool `koanf:"enabled"`

	// Bootstrap lists the bootstrapping URIs (from QR codes or NFC tags)
	// this station is willing to authenticate against at startup.
	Bootstrap []string `koanf:"bootstrap"`

	// Role is "enrollee" or "configurator".
	Role string `koanf:"role"`

	// ListenChannel is the operating-class/channel pair DPP public action
	// frames are exchanged on before a channel has been negotiated.
	ListenChannel string `koanf:"listen_channel"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GRPC: GRPCConfig{
			Addr: ":50151",
		},
		Metrics: MetricsConfig{
			Addr: ":9110",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Station: StationConfig{
			Interface: "wlan0",
		},
		FT: FTConfig{
			Enabled:           true,
			ResponseTimeoutMS: 2000,
		},
		DPP: DPPConfig{
			Enabled: true,
			Role:    "enrollee",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for gowsd configuration.
// Variables are named GOWSD_<section>_<key>, e.g., GOWSD_GRPC_ADDR.
const envPrefix = "GOWSD_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (GOWSD_ prefix), and merges on top of DefaultConfig().
// Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	GOWSD_GRPC_ADDR       -> grpc.addr
//	GOWSD_METRICS_ADDR    -> metrics.addr
//	GOWSD_METRICS_PATH    -> metrics.path
//	GOWSD_LOG_LEVEL       -> log.level
//	GOWSD_LOG_FORMAT      -> log.format
//	GOWSD_STATION_INTERFACE -> station.interface
//	GOWSD_FT_ENABLED      -> ft.enabled
//	GOWSD_DPP_ENABLED     -> dpp.enabled
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load defaults first.
	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	// Load YAML file on top of defaults.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	// Load environment variable overrides on top of YAML.
	// GOWSD_GRPC_ADDR -> grpc.addr (strip prefix, lowercase, _ -> .).
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms GOWSD_GRPC_ADDR -> grpc.addr.
// Strips the GOWSD_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"grpc.addr":                 defaults.GRPC.Addr,
		"metrics.addr":              defaults.Metrics.Addr,
		"metrics.path":              defaults.Metrics.Path,
		"log.level":                 defaults.Log.Level,
		"log.format":                defaults.Log.Format,
		"station.interface":         defaults.Station.Interface,
		"ft.enabled":                defaults.FT.Enabled,
		"ft.response_timeout_ms":    defaults.FT.ResponseTimeoutMS,
		"dpp.enabled":               defaults.DPP.Enabled,
		"dpp.role":                 defaults.DPP.Role,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyGRPCAddr indicates the gRPC listen address is empty.
	ErrEmptyGRPCAddr = errors.New("grpc.addr must not be empty")

	// ErrEmptyInterface indicates the station interface name is empty.
	ErrEmptyInterface = errors.New("station.interface must not be empty")

	// ErrInvalidResponseTimeout indicates the FT response timeout is non-positive.
	ErrInvalidResponseTimeout = errors.New("ft.response_timeout_ms must be > 0")

	// ErrInvalidDPPRole indicates the configured DPP role is unrecognized.
	ErrInvalidDPPRole = errors.New("dpp.role must be enrollee or configurator")

	// ErrInvalidBootstrapURI indicates a bootstrap URI doesn't parse.
	ErrInvalidBootstrapURI = errors.New("dpp.bootstrap entry is not a valid DPP URI")
)

// ValidDPPRoles lists the recognized dpp.role strings.
var ValidDPPRoles = map[string]bool{
	"enrollee":     true,
	"configurator": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.GRPC.Addr == "" {
		return ErrEmptyGRPCAddr
	}

	if cfg.Station.Interface == "" {
		return ErrEmptyInterface
	}

	if cfg.FT.Enabled && cfg.FT.ResponseTimeoutMS <= 0 {
		return ErrInvalidResponseTimeout
	}

	if cfg.DPP.Enabled && !ValidDPPRoles[cfg.DPP.Role] {
		return fmt.Errorf("dpp.role %q: %w", cfg.DPP.Role, ErrInvalidDPPRole)
	}

	if cfg.DPP.Enabled {
		for _, uri := range cfg.DPP.Bootstrap {
			if _, err := dpp.ParseURI(uri); err != nil {
				return fmt.Errorf("%s: %w", uri, ErrInvalidBootstrapURI)
			}
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
