// Package config loads the server's YAML configuration file and resolves
// it into a validated, typed Config: bind address, long-term key seed,
// batching parameters, and delegation window.
package config

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for config keys a deployment may omit.
const (
	DefaultBatchSize     = 64
	DefaultRadiusMicros  = 1_000_000
	DefaultMaxBatchAge   = 100 * time.Millisecond
	DefaultStatusPeriod  = 6 * time.Second
	SeedSize             = 32
)

// Config is the server's fully-resolved, typed configuration. It is built
// from rawConfig by Load, not unmarshaled directly.
type Config struct {
	// Interface is the IP address or interface name to bind.
	Interface string
	// Port is the UDP port to listen on.
	Port uint16
	// Seed is the 32-byte long-term key seed, decoded from hex. Secret.
	Seed []byte
	// BatchSize is the maximum number of requests signed under one
	// signature.
	BatchSize int
	// SecondsOffset is added to the wall-clock midpoint before signing.
	SecondsOffset int64
	// MaxBatchAge bounds how long a partial batch waits for more requests
	// before it is flushed anyway.
	MaxBatchAge time.Duration
	// RadiusMicros is the RADI value asserted in every SREP.
	RadiusMicros uint32
	// CertMinTimeMicros and CertMaxTimeMicros bound the delegated key's
	// validity window (DELE.MINT/DELE.MAXT). Both default to effectively
	// unbounded.
	CertMinTimeMicros uint64
	CertMaxTimeMicros uint64
	// MinRequestSize, if non-zero, rejects requests shorter than this many
	// bytes before even decoding them (anti-amplification). Off by default;
	// production deployments typically set this to 1024.
	MinRequestSize int
	// StatusInterval is how often the server logs a status line.
	StatusInterval time.Duration
}

// rawConfig mirrors the YAML schema with string/int fields the way YAML
// naturally decodes them, before type conversion and validation.
type rawConfig struct {
	Interface         string `yaml:"interface"`
	Port              int    `yaml:"port"`
	Seed              string `yaml:"seed"`
	BatchSize         int    `yaml:"batch_size"`
	SecondsOffset     int64  `yaml:"secondsoffset"`
	MaxBatchAgeMillis int64  `yaml:"max_batch_age_millis"`
	RadiusMicros      uint32 `yaml:"radius_micros"`
	CertMinTimeMicros uint64 `yaml:"cert_min_time_micros"`
	CertMaxTimeMicros uint64 `yaml:"cert_max_time_micros"`
	MinRequestSize    int    `yaml:"min_request_size"`
	StatusIntervalSec int64  `yaml:"status_interval_seconds"`
}

// Error is a ConfigError: a fatal, startup-time configuration problem.
type Error struct {
	Info string
}

func (e Error) Error() string { return "config: " + e.Info }

// Load reads and validates the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Error{Info: fmt.Sprintf("failed to read %s: %v", path, err)}
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, Error{Info: "could not parse config file: " + err.Error()}
	}

	seed, err := hex.DecodeString(raw.Seed)
	if err != nil {
		return nil, Error{Info: "seed value invalid; 'seed' should be a 32 byte hex value: " + err.Error()}
	}
	if len(seed) != SeedSize {
		return nil, Error{Info: fmt.Sprintf("seed must decode to %d bytes, got %d", SeedSize, len(seed))}
	}

	if raw.Interface == "" {
		return nil, Error{Info: "missing required 'interface'"}
	}
	if raw.Port <= 0 || raw.Port > 65535 {
		return nil, Error{Info: fmt.Sprintf("invalid 'port': %d", raw.Port)}
	}

	cfg := &Config{
		Interface:         raw.Interface,
		Port:              uint16(raw.Port),
		Seed:              seed,
		BatchSize:         raw.BatchSize,
		SecondsOffset:     raw.SecondsOffset,
		MaxBatchAge:       time.Duration(raw.MaxBatchAgeMillis) * time.Millisecond,
		RadiusMicros:      raw.RadiusMicros,
		CertMinTimeMicros: raw.CertMinTimeMicros,
		CertMaxTimeMicros: raw.CertMaxTimeMicros,
		MinRequestSize:    raw.MinRequestSize,
		StatusInterval:    time.Duration(raw.StatusIntervalSec) * time.Second,
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RadiusMicros == 0 {
		cfg.RadiusMicros = DefaultRadiusMicros
	}
	if cfg.MaxBatchAge <= 0 {
		cfg.MaxBatchAge = DefaultMaxBatchAge
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultStatusPeriod
	}
	if cfg.CertMaxTimeMicros == 0 {
		cfg.CertMaxTimeMicros = 1<<63 - 1
	}

	return cfg, nil
}
