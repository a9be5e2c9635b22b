package scheduling

import (
	"github.com/kilianp07/shootplan/core/factory"
)

var weatherRegistry = factory.NewRegistry[WeatherGate]()

func init() {
	weatherRegistry.MustRegister("seasonal", func(conf map[string]any) (WeatherGate, error) {
		var g SeasonalGate
		if err := factory.Decode(conf, &g); err != nil {
			return nil, err
		}
		return g, nil
	})
	weatherRegistry.MustRegister("forecast", func(conf map[string]any) (WeatherGate, error) {
		var c struct {
			File       string     `json:"file"`
			Forecasts  []Forecast `json:"forecasts"`
			RainyStart int        `json:"rainy_start"`
			RainyEnd   int        `json:"rainy_end"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		forecasts := c.Forecasts
		if c.File != "" {
			loaded, err := LoadForecasts(c.File)
			if err != nil {
				return nil, err
			}
			forecasts = append(forecasts, loaded...)
		}
		return NewForecastGate(forecasts, SeasonalGate{RainyStart: c.RainyStart, RainyEnd: c.RainyEnd})
	})
}

// RegisterWeatherGate adds a weather gate factory identified by name.
func RegisterWeatherGate(name string, f factory.Factory[WeatherGate]) error {
	return weatherRegistry.Register(name, f)
}

// NewWeatherGate builds the gate described by cfg. An empty type selects
// the seasonal gate.
func NewWeatherGate(cfg factory.ModuleConfig) (WeatherGate, error) {
	if cfg.Type == "" {
		cfg.Type = "seasonal"
	}
	return weatherRegistry.Create(cfg)
}
