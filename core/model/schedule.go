package model

import "time"

// Assignment places one scene on a shooting day.
type Assignment struct {
	SceneID           int       `json:"scene_id" yaml:"scene_id"`
	SceneNumber       string    `json:"scene_number" yaml:"scene_number"`
	Location          string    `json:"location" yaml:"location"`
	ScheduledDate     time.Time `json:"scheduled_date" yaml:"scheduled_date"`
	WeatherNote       string    `json:"weather_note,omitempty" yaml:"weather_note,omitempty"`
	EstimatedDuration string    `json:"estimated_duration,omitempty" yaml:"estimated_duration,omitempty"`
}

// ConflictType classifies a scheduling problem.
type ConflictType string

const (
	ConflictLocationOverlap  ConflictType = "location_overlap"
	ConflictActorOverload    ConflictType = "actor_overload"
	ConflictTimelineExceeded ConflictType = "timeline_exceeded"
	ConflictReschedule       ConflictType = "reschedule_conflict"
)

// Severity ranks a conflict.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Conflict is a non-fatal scheduling problem surfaced to callers.
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
	SceneIDs []int        `json:"scene_ids"`
	Date     *time.Time   `json:"date,omitempty"`
	Actor    string       `json:"actor,omitempty"`
	Location string       `json:"location,omitempty"`
}

// Day truncates t to UTC midnight. All scheduling dates are calendar days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
