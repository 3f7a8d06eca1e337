// Package config holds nanorpcgen settings.
//
// Precedence, lowest first: Default, the JSON file given to Load,
// NANORPC_* environment variables, command line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"nano-rpc/logger"
	"nano-rpc/protocol"
)

// Environment variables read by ApplyEnv.
const (
	EnvProtocolSuffix = "NANORPC_PROTOCOL_SUFFIX"
	EnvServiceSuffix  = "NANORPC_SERVICE_SUFFIX"
	EnvClientSuffix   = "NANORPC_CLIENT_SUFFIX"
	EnvLogLevel       = "NANORPC_LOG_LEVEL"
)

type Config struct {
	Naming       protocol.Naming `json:"naming"`
	OutputSuffix string          `json:"output_suffix"` // Appended to the input base name, e.g. "_nanorpc.go"
	LogLevel     string          `json:"log_level"`
	LogFormat    string          `json:"log_format"`
}

func Default() *Config {
	return &Config{
		Naming:       protocol.DefaultNaming(),
		OutputSuffix: "_nanorpc.go",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load reads path over the defaults, then applies the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvProtocolSuffix, &c.Naming.ProtocolSuffix)
	set(EnvServiceSuffix, &c.Naming.ServiceSuffix)
	set(EnvClientSuffix, &c.Naming.ClientSuffix)
	set(EnvLogLevel, &c.LogLevel)
}

func (c *Config) Validate() error {
	switch {
	case c.Naming.ProtocolSuffix == "":
		return fmt.Errorf("config: protocol suffix must not be empty")
	case c.Naming.ServiceSuffix == "":
		return fmt.Errorf("config: service suffix must not be empty")
	case c.Naming.ClientSuffix == "":
		return fmt.Errorf("config: client suffix must not be empty")
	case c.Naming.ServiceSuffix == c.Naming.ClientSuffix:
		return fmt.Errorf("config: service and client suffix are both %q", c.Naming.ServiceSuffix)
	case !strings.HasSuffix(c.OutputSuffix, ".go"):
		return fmt.Errorf("config: output suffix %q must end with .go", c.OutputSuffix)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: invalid log format %q", c.LogFormat)
	}
	return nil
}

// Logger returns the logger settings described by c.
func (c *Config) Logger() (logger.Config, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.Config{}, err
	}
	lc := logger.DefaultConfig()
	lc.Level = level
	lc.Format = c.LogFormat
	return lc, nil
}
