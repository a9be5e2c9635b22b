package model

import (
	"strconv"
	"strings"
	"time"
)

// LocationType tells whether a scene is shot inside or outside.
type LocationType string

const (
	Indoor  LocationType = "indoor"
	Outdoor LocationType = "outdoor"
)

// SceneStatus tracks the production state of a scene.
type SceneStatus string

const (
	StatusUnplanned  SceneStatus = "unplanned"
	StatusPlanned    SceneStatus = "planned"
	StatusShooting   SceneStatus = "shooting"
	StatusInProgress SceneStatus = "in-progress"
	StatusCompleted  SceneStatus = "completed"
	StatusCancelled  SceneStatus = "cancelled"
)

// DefaultLocation is the cluster name used for scenes without a location.
const DefaultLocation = "Unknown"

// DefaultDuration is reported when a scene carries no estimated duration.
const DefaultDuration = "4 hours"

// SceneActor is one cast member required by a scene.
type SceneActor struct {
	Name string `json:"name" yaml:"name"`
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Scene is a single filmable unit of a script.
type Scene struct {
	ID                int          `json:"id" yaml:"id"`
	SceneNumber       string       `json:"scene_number" yaml:"scene_number"`
	LocationName      string       `json:"location_name" yaml:"location_name"`
	LocationType      LocationType `json:"location_type" yaml:"location_type"`
	TimeOfDay         string       `json:"time_of_day,omitempty" yaml:"time_of_day,omitempty"`
	Actors            []SceneActor `json:"actors_data,omitempty" yaml:"actors_data,omitempty"`
	TechnicalNotes    string       `json:"technical_notes,omitempty" yaml:"technical_notes,omitempty"`
	EstimatedDuration string       `json:"estimated_duration,omitempty" yaml:"estimated_duration,omitempty"`
	ScheduledDate     *time.Time   `json:"scheduled_date,omitempty" yaml:"scheduled_date,omitempty"`
	Status            SceneStatus  `json:"status,omitempty" yaml:"status,omitempty"`
	Notes             string       `json:"notes,omitempty" yaml:"notes,omitempty"`

	// DependsOn lists scene ids that must be shot before this one. When no
	// scene in a set declares dependencies, dependents are inferred from
	// location and scene number.
	DependsOn []int `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Location returns the cluster key of the scene.
func (s Scene) Location() string {
	if s.LocationName == "" {
		return DefaultLocation
	}
	return s.LocationName
}

// IsOutdoor reports whether the scene is exposed to weather.
func (s Scene) IsOutdoor() bool {
	return LocationType(strings.ToLower(string(s.LocationType))) == Outdoor
}

// Number parses the scene number as an integer. Non-numeric values yield 0.
func (s Scene) Number() int {
	n, err := strconv.Atoi(strings.TrimSpace(s.SceneNumber))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Duration returns the estimated duration or DefaultDuration.
func (s Scene) Duration() string {
	if s.EstimatedDuration == "" {
		return DefaultDuration
	}
	return s.EstimatedDuration
}

// ActorNames returns the distinct non-empty actor names in declaration order.
func (s Scene) ActorNames() []string {
	seen := make(map[string]bool, len(s.Actors))
	var names []string
	for _, a := range s.Actors {
		if a.Name == "" || seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		names = append(names, a.Name)
	}
	return names
}

// AppendNote adds a line to the scene notes without discarding prior content.
func (s *Scene) AppendNote(line string) {
	s.Notes = strings.TrimSpace(s.Notes + "\n" + line)
}

// IndexScenes maps scene ids to scenes.
func IndexScenes(scenes []Scene) map[int]Scene {
	idx := make(map[int]Scene, len(scenes))
	for _, s := range scenes {
		idx[s.ID] = s
	}
	return idx
}
