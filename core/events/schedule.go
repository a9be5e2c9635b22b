package events

import (
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// ScheduleEvent is published when a scheduling run completes.
type ScheduleEvent struct {
	RunID          string             `json:"run_id"`
	ProjectID      int                `json:"project_id"`
	Mode           string             `json:"mode"`
	Schedule       []model.Assignment `json:"schedule"`
	TotalDays      int                `json:"total_days"`
	CompletionDate time.Time          `json:"completion_date"`
	Conflicts      int                `json:"conflicts"`
	Time           time.Time          `json:"time"`
}

func (ScheduleEvent) Kind() string    { return "schedule" }
func (e ScheduleEvent) Project() int { return e.ProjectID }

// ConflictEvent is published for each conflict a run raises.
type ConflictEvent struct {
	RunID     string         `json:"run_id"`
	ProjectID int            `json:"project_id"`
	Conflict  model.Conflict `json:"conflict"`
}

func (ConflictEvent) Kind() string    { return "conflict" }
func (e ConflictEvent) Project() int { return e.ProjectID }
