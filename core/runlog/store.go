package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// Kind identifies the operation that produced a record.
type Kind string

const (
	KindSchedule   Kind = "schedule"
	KindReschedule Kind = "reschedule"
	KindPreview    Kind = "preview"
)

// Record captures one scheduling run and its outcome.
type Record struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	Kind           Kind               `json:"kind"`
	ProjectID      int                `json:"project_id"`
	Mode           string             `json:"mode,omitempty"`
	SceneCount     int                `json:"scene_count,omitempty"`
	Scheduled      int                `json:"scheduled,omitempty"`
	TotalDays      int                `json:"total_days,omitempty"`
	CompletionDate *time.Time         `json:"completion_date,omitempty"`
	Conflicts      []model.Conflict   `json:"conflicts,omitempty"`
	Assignments    []model.Assignment `json:"assignments,omitempty"`

	SceneID        int    `json:"scene_id,omitempty"`
	Success        bool   `json:"success,omitempty"`
	Message        string `json:"message,omitempty"`
	AffectedScenes []int  `json:"affected_scenes,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start     time.Time
	End       time.Time
	ProjectID int
	Kind      Kind
	SceneID   int
}

// Match reports whether r satisfies every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ProjectID != 0 && r.ProjectID != q.ProjectID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.SceneID != 0 && !touchesScene(r, q.SceneID) {
		return false
	}
	return true
}

func touchesScene(r Record, id int) bool {
	if r.SceneID == id {
		return true
	}
	for _, a := range r.AffectedScenes {
		if a == id {
			return true
		}
	}
	for _, a := range r.Assignments {
		if a.SceneID == id {
			return true
		}
	}
	return false
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
