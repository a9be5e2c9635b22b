package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/shootplan/core/factory"
	"github.com/kilianp07/shootplan/core/metrics"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/core/scheduling"
	"github.com/kilianp07/shootplan/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore, e.g. SP_SCHEDULING__SKIP_WEEKENDS=true.
const EnvPrefix = "SP_"

type Config struct {
	LogLevel   string               `json:"log_level"`
	Scheduling scheduling.Config    `json:"scheduling"`
	Weather    factory.ModuleConfig `json:"weather"`
	Metrics    metrics.Config       `json:"metrics"`
	RunLog     runlog.Config        `json:"run_log"`
	MQTT       mqtt.Config          `json:"mqtt"`
	HTTP       HTTPConfig           `json:"http"`
}

// HTTPConfig configures the scheduling API server.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a Bearer token on every request.
	Token string `json:"token"`
	// MaxBodyMB limits request bodies.
	MaxBodyMB int `json:"max_body_mb"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxBodyMB <= 0 {
		c.MaxBodyMB = 10
	}
}

// Load reads the file at path, when given, then applies environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Scheduling.SetDefaults()
	c.RunLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.HTTP.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Scheduling.Validate(); err != nil {
		return fmt.Errorf("scheduling: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return err
	}
	return c.MQTT.Validate()
}
