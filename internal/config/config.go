package config

// Configuration loading and validation for the lab tooling.

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Hazy142/Hytale-Lab/internal/errors"
)

// TargetConfig identifies the server under test.
type TargetConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns host:port for dialing.
func (t TargetConfig) Address() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// TransportConfig controls the UDP client.
type TransportConfig struct {
	TimeoutMs  int     `yaml:"timeout_ms"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// Timeout returns the reply timeout as a duration.
func (t TransportConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// FuzzConfig controls mutation runs.
type FuzzConfig struct {
	Kinds     []string `yaml:"kinds,omitempty"`      // empty means all kinds
	PacketIDs []string `yaml:"packet_ids,omitempty"` // hex ids, empty means all known
	DelayMs   int      `yaml:"delay_ms"`
}

// CaptureConfig controls live capture.
type CaptureConfig struct {
	Interface string `yaml:"interface"`
	SnapLen   int    `yaml:"snap_len"`
	Promisc   bool   `yaml:"promisc"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Config is the top-level lab configuration.
type Config struct {
	Target     TargetConfig    `yaml:"target"`
	Transport  TransportConfig `yaml:"transport"`
	Fuzz       FuzzConfig      `yaml:"fuzz"`
	Capture    CaptureConfig   `yaml:"capture"`
	Log        LogConfig       `yaml:"log"`
	SchemaPath string          `yaml:"schema_path,omitempty"`
	OutputDir  string          `yaml:"output_dir"`
}

// Default returns a configuration usable against a local test server.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Host: "127.0.0.1",
			Port: 27015,
		},
		Transport: TransportConfig{
			TimeoutMs:  2000,
			RatePerSec: 20,
			Burst:      5,
		},
		Fuzz: FuzzConfig{
			DelayMs: 50,
		},
		Capture: CaptureConfig{
			Interface: "eth0",
			SnapLen:   65535,
		},
		Log: LogConfig{
			Level: "info",
		},
		OutputDir: "output",
	}
}

// Load reads and validates a configuration file. With autoCreate set, a
// missing file is first written with defaults.
func Load(path string, autoCreate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && autoCreate {
			if err := WriteDefault(path); err != nil {
				return nil, fmt.Errorf("create default config: %w", err)
			}
			data, err = os.ReadFile(path)
			if err != nil {
				return nil, errors.WrapConfigError(fmt.Errorf("read created config file: %w", err), path)
			}
		} else {
			return nil, errors.WrapConfigError(fmt.Errorf("read config file: %w", err), path)
		}
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfigError(fmt.Errorf("parse yaml: %w", err), path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigError(err, path)
	}
	return cfg, nil
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Target.Host == "" {
		return fmt.Errorf("target.host must be set")
	}
	if c.Target.Port < 1 || c.Target.Port > 65535 {
		return fmt.Errorf("target.port %d out of range 1-65535", c.Target.Port)
	}
	if c.Transport.TimeoutMs <= 0 {
		return fmt.Errorf("transport.timeout_ms must be positive, got %d", c.Transport.TimeoutMs)
	}
	if c.Transport.RatePerSec <= 0 {
		return fmt.Errorf("transport.rate_per_sec must be positive, got %g", c.Transport.RatePerSec)
	}
	if c.Transport.Burst < 1 {
		return fmt.Errorf("transport.burst must be at least 1, got %d", c.Transport.Burst)
	}
	if c.Fuzz.DelayMs < 0 {
		return fmt.Errorf("fuzz.delay_ms must not be negative, got %d", c.Fuzz.DelayMs)
	}
	if c.Capture.SnapLen <= 0 {
		return fmt.Errorf("capture.snap_len must be positive, got %d", c.Capture.SnapLen)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must be set")
	}
	return nil
}

// WriteDefault writes the default configuration as YAML.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
