// Package config loads the streamer binary's configuration from the
// environment, with optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Profile names accepted by the STREAM_PROFILE variable.
const (
	ProfilePush    = "push"
	ProfileSession = "session"
)

// Config is the complete configuration of the capture binary.
type Config struct {
	// Endpoint is the streaming destination. Empty keeps the session idle.
	Endpoint string
	// Profile selects the streaming variant: "push" or "session".
	Profile string
	// SampleRate of the capture device in Hz.
	SampleRate int
	// BlockSize is the number of samples per capture callback.
	BlockSize int
	// BitRate for the encoder, in bits per second. Zero uses the profile
	// default.
	BitRate int
	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string
	// Debug enables debug-level logging.
	Debug bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in first when present; a missing file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Endpoint:    os.Getenv("STREAM_ENDPOINT"),
		Profile:     envOr("STREAM_PROFILE", ProfilePush),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		Debug:       os.Getenv("DEBUG") != "",
	}

	var err error
	if cfg.SampleRate, err = envInt("SAMPLE_RATE", 48_000); err != nil {
		return nil, err
	}
	if cfg.BlockSize, err = envInt("BLOCK_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.BitRate, err = envInt("BIT_RATE", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	if c.Profile != ProfilePush && c.Profile != ProfileSession {
		return fmt.Errorf("profile must be %q or %q, got %q",
			ProfilePush, ProfileSession, c.Profile)
	}
	if c.SampleRate < 8000 || c.SampleRate > 192_000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000, got %d", c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > 8192 {
		return fmt.Errorf("block_size must be between 1 and 8192, got %d", c.BlockSize)
	}
	if c.BitRate < 0 {
		return fmt.Errorf("bit_rate cannot be negative, got %d", c.BitRate)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}
