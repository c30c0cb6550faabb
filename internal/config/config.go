// ABOUTME: Configuration file for the discovery tools
// ABOUTME: Loads YAML settings on top of built-in defaults
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/samuelkadolph/ultimaker-go/pkg/discovery"
)

// Config holds all tool settings
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Log       LogConfig       `yaml:"log"`
}

// DiscoveryConfig controls how printers are found
type DiscoveryConfig struct {
	ServiceType string `yaml:"service_type"`
	Domain      string `yaml:"domain"`
	// Timeout bounds each discovery stage, e.g. "2s".
	Timeout time.Duration `yaml:"timeout"`
	// Interface restricts queries to one network interface by name.
	Interface   string `yaml:"interface"`
	DisableIPv6 bool   `yaml:"disable_ipv6"`
}

// LogConfig controls logging
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			ServiceType: discovery.ServiceType,
			Domain:      "local",
			Timeout:     discovery.DefaultTimeout,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file over the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings for values discovery cannot use
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Discovery.ServiceType, "_") || !strings.Contains(c.Discovery.ServiceType, "._") {
		return fmt.Errorf("invalid service_type %q: want _service._proto", c.Discovery.ServiceType)
	}
	if c.Discovery.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Discovery.Timeout)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// NetInterface looks up the configured interface, or nil for all interfaces
func (c *Config) NetInterface() (*net.Interface, error) {
	if c.Discovery.Interface == "" {
		return nil, nil
	}

	iface, err := net.InterfaceByName(c.Discovery.Interface)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", c.Discovery.Interface, err)
	}
	return iface, nil
}
