// Package events defines the scheduling events emitted on the event bus.
//
// Available event types:
//   - ScheduleEvent: a scheduling run finished
//   - RescheduleEvent: a scene was moved, possibly cascading dependents
//   - ConflictEvent: one conflict raised by a run
package events

// Event is implemented by every scheduling event.
type Event interface {
	// Kind names the event for routing, e.g. as an MQTT topic suffix.
	Kind() string
	// Project returns the project the event belongs to.
	Project() int
}
