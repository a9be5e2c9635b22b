package scheduling

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects the optimisation strategy of a scheduling run.
type Mode string

const (
	ModeCost     Mode = "cost"
	ModeSpeed    Mode = "speed"
	ModeBalanced Mode = "balanced"
	ModeQuality  Mode = "quality"
)

// ErrUnknownMode is returned for optimisation modes the engine does not know.
var ErrUnknownMode = errors.New("unknown optimization mode")

// ParseMode validates s. An empty string selects ModeBalanced.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeBalanced, nil
	case ModeCost, ModeSpeed, ModeBalanced, ModeQuality:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// costAware reports whether the mode reorders clusters by actor billing.
func (m Mode) costAware() bool { return m == ModeCost || m == ModeBalanced }

// WeatherFailurePolicy decides how a weather provider error is interpreted.
type WeatherFailurePolicy string

const (
	// AssumeSuitable schedules the scene and flags the verdict as degraded.
	AssumeSuitable WeatherFailurePolicy = "assume_suitable"
	// AssumeUnsuitable treats the day as bad weather.
	AssumeUnsuitable WeatherFailurePolicy = "assume_unsuitable"
)

// Policy constants.
const (
	// DefaultWeatherRetryLimit caps how many days an outdoor scene may be
	// pushed forward looking for suitable weather.
	DefaultWeatherRetryLimit = 30
	// DefaultOverloadThreshold is the number of scenes per day an actor may
	// appear in before an actor_overload conflict is raised.
	DefaultOverloadThreshold = 3

	balancedCapacity = 5
	speedCapacity    = 7
	qualityCapacity  = 3
)

// Config holds the engine parameters. Zero values select defaults.
type Config struct {
	SkipWeekends bool `json:"skip_weekends" yaml:"skip_weekends"`
	// AutoCascade enables dependent-scene cascade on reschedule. Nil means true.
	AutoCascade *bool `json:"auto_cascade,omitempty" yaml:"auto_cascade,omitempty"`
	// ScenesPerDay overrides the mode default capacity when positive.
	ScenesPerDay         int                  `json:"scenes_per_day,omitempty" yaml:"scenes_per_day,omitempty"`
	OverloadThreshold    int                  `json:"overload_threshold,omitempty" yaml:"overload_threshold,omitempty"`
	WeatherRetryLimit    int                  `json:"weather_retry_limit,omitempty" yaml:"weather_retry_limit,omitempty"`
	WeatherFailurePolicy WeatherFailurePolicy `json:"weather_failure_policy,omitempty" yaml:"weather_failure_policy,omitempty"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.OverloadThreshold <= 0 {
		c.OverloadThreshold = DefaultOverloadThreshold
	}
	if c.WeatherRetryLimit <= 0 {
		c.WeatherRetryLimit = DefaultWeatherRetryLimit
	}
	if c.WeatherFailurePolicy == "" {
		c.WeatherFailurePolicy = AssumeSuitable
	}
}

// Validate checks the values that SetDefaults cannot repair.
func (c Config) Validate() error {
	if c.ScenesPerDay < 0 {
		return fmt.Errorf("scenes_per_day must not be negative")
	}
	switch c.WeatherFailurePolicy {
	case AssumeSuitable, AssumeUnsuitable:
	default:
		return fmt.Errorf("unknown weather_failure_policy %q", c.WeatherFailurePolicy)
	}
	return nil
}

// CascadeEnabled reports the effective auto-cascade setting.
func (c Config) CascadeEnabled() bool {
	return c.AutoCascade == nil || *c.AutoCascade
}

// DailyCapacity returns how many scenes fit on one shooting day for mode.
func (c Config) DailyCapacity(mode Mode) int {
	if c.ScenesPerDay > 0 {
		return c.ScenesPerDay
	}
	switch mode {
	case ModeSpeed:
		return speedCapacity
	case ModeQuality:
		return qualityCapacity
	default:
		return balancedCapacity
	}
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeConfig(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
