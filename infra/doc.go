// Package infra holds the adapters to external systems: MQTT publishing of
// scheduling events, metrics sinks and the zerolog logger. Subpackages
// depend only on interfaces and types from core.
package infra
