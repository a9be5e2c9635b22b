package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shootplan/core/model"
)

// Weather verdict reasons.
const (
	ReasonIndoor      = "Indoor scene - weather independent"
	ReasonSuitable    = "Weather suitable"
	ReasonRainySeason = "Rainy season - not ideal for outdoor shoot"
	ReasonRain        = "High chance of rain"
	ReasonWind        = "Strong winds"
)

// Verdict tells whether a day suits a scene and why.
type Verdict struct {
	Suitable bool   `json:"suitable"`
	Reason   string `json:"reason"`
}

// WeatherGate decides whether a date suits a scene. Implementations backed
// by remote services must honour ctx.
type WeatherGate interface {
	Suitability(ctx context.Context, date time.Time, scene model.Scene) (Verdict, error)
}

// WeatherGateFunc adapts a function to WeatherGate.
type WeatherGateFunc func(ctx context.Context, date time.Time, scene model.Scene) (Verdict, error)

func (f WeatherGateFunc) Suitability(ctx context.Context, date time.Time, scene model.Scene) (Verdict, error) {
	return f(ctx, date, scene)
}

// SeasonalGate rejects outdoor shoots during a fixed day-of-year window.
// Zero bounds select days 150 to 250.
type SeasonalGate struct {
	RainyStart int `json:"rainy_start" yaml:"rainy_start"`
	RainyEnd   int `json:"rainy_end" yaml:"rainy_end"`
}

func (g SeasonalGate) Suitability(_ context.Context, date time.Time, scene model.Scene) (Verdict, error) {
	if !scene.IsOutdoor() {
		return Verdict{Suitable: true, Reason: ReasonIndoor}, nil
	}
	start, end := g.RainyStart, g.RainyEnd
	if start == 0 && end == 0 {
		start, end = 150, 250
	}
	if doy := date.YearDay(); doy >= start && doy <= end {
		return Verdict{Suitable: false, Reason: ReasonRainySeason}, nil
	}
	return Verdict{Suitable: true, Reason: ReasonSuitable}, nil
}

// Forecast is the predicted weather for one day.
type Forecast struct {
	Date                string  `json:"date" yaml:"date"`
	PrecipitationChance float64 `json:"precipitation_chance" yaml:"precipitation_chance"`
	WindSpeed           float64 `json:"wind_speed" yaml:"wind_speed"`
	Conditions          string  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Forecast thresholds above which outdoor shooting is refused.
const (
	MaxPrecipitationChance = 60.0
	MaxWindSpeed           = 30.0
)

// ForecastGate judges outdoor scenes against a table of daily forecasts.
// Days missing from the table are delegated to Fallback.
type ForecastGate struct {
	days     map[time.Time]Forecast
	fallback WeatherGate
}

// NewForecastGate indexes forecasts by calendar day. A nil fallback selects
// SeasonalGate.
func NewForecastGate(forecasts []Forecast, fallback WeatherGate) (*ForecastGate, error) {
	if fallback == nil {
		fallback = SeasonalGate{}
	}
	g := &ForecastGate{days: make(map[time.Time]Forecast, len(forecasts)), fallback: fallback}
	for _, f := range forecasts {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(f.Date))
		if err != nil {
			return nil, fmt.Errorf("forecast date %q: %w", f.Date, err)
		}
		g.days[model.Day(d)] = f
	}
	return g, nil
}

func (g *ForecastGate) Suitability(ctx context.Context, date time.Time, scene model.Scene) (Verdict, error) {
	if !scene.IsOutdoor() {
		return Verdict{Suitable: true, Reason: ReasonIndoor}, nil
	}
	f, ok := g.days[model.Day(date)]
	if !ok {
		return g.fallback.Suitability(ctx, date, scene)
	}
	switch {
	case f.PrecipitationChance > MaxPrecipitationChance:
		return Verdict{Suitable: false, Reason: ReasonRain}, nil
	case f.WindSpeed > MaxWindSpeed:
		return Verdict{Suitable: false, Reason: ReasonWind}, nil
	}
	return Verdict{Suitable: true, Reason: ReasonSuitable}, nil
}

// LoadForecasts reads a list of forecasts from a YAML or JSON file.
func LoadForecasts(path string) ([]Forecast, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Forecast
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &out)
	case ".json":
		err = json.Unmarshal(b, &out)
	default:
		return nil, fmt.Errorf("unsupported forecast format: %s", filepath.Ext(path))
	}
	return out, err
}
