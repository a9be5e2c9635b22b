// Package factory provides a small generic registry used to build pluggable
// modules, such as metrics sinks or weather gates, from configuration. A
// module is selected by a type string and configured with a map of raw
// settings that factories decode into typed structs.
//
//	reg := factory.NewRegistry[scheduling.WeatherGate]()
//	reg.MustRegister("seasonal", func(conf map[string]any) (scheduling.WeatherGate, error) {
//	    var g scheduling.SeasonalGate
//	    return g, factory.Decode(conf, &g)
//	})
//	gate, err := reg.Create(factory.ModuleConfig{Type: "seasonal"})
package factory
