package config

import "testing"

// Load reads the process environment, so these tests use t.Setenv and stay
// serial.

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"STREAM_ENDPOINT", "STREAM_PROFILE", "SAMPLE_RATE",
		"BLOCK_SIZE", "BIT_RATE", "METRICS_ADDR", "DEBUG",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != ProfilePush {
		t.Errorf("Profile = %q, want %q", cfg.Profile, ProfilePush)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", cfg.SampleRate)
	}
	if cfg.BlockSize != 64 {
		t.Errorf("BlockSize = %d, want 64", cfg.BlockSize)
	}
	if cfg.BitRate != 0 {
		t.Errorf("BitRate = %d, want 0", cfg.BitRate)
	}
	if cfg.Endpoint != "" || cfg.MetricsAddr != "" || cfg.Debug {
		t.Error("unset variables produced non-zero config values")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STREAM_ENDPOINT", "srt://example:9000")
	t.Setenv("STREAM_PROFILE", "session")
	t.Setenv("SAMPLE_RATE", "24000")
	t.Setenv("BLOCK_SIZE", "128")
	t.Setenv("BIT_RATE", "96000")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("DEBUG", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "srt://example:9000" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Profile != ProfileSession {
		t.Errorf("Profile = %q, want session", cfg.Profile)
	}
	if cfg.SampleRate != 24000 || cfg.BlockSize != 128 || cfg.BitRate != 96000 {
		t.Errorf("numeric fields = %d/%d/%d, want 24000/128/96000",
			cfg.SampleRate, cfg.BlockSize, cfg.BitRate)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q, want :9100", cfg.MetricsAddr)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadRejectsBadInteger(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "forty-eight")

	if _, err := Load(); err == nil {
		t.Fatal("Load with non-integer SAMPLE_RATE succeeded, want error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{Profile: ProfilePush, SampleRate: 48000, BlockSize: 64}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"session profile", func(c *Config) { c.Profile = ProfileSession }, false},
		{"unknown profile", func(c *Config) { c.Profile = "rtmp" }, true},
		{"sample rate too low", func(c *Config) { c.SampleRate = 4000 }, true},
		{"sample rate too high", func(c *Config) { c.SampleRate = 200_000 }, true},
		{"block size zero", func(c *Config) { c.BlockSize = 0 }, true},
		{"block size too large", func(c *Config) { c.BlockSize = 16384 }, true},
		{"negative bit rate", func(c *Config) { c.BitRate = -1 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
