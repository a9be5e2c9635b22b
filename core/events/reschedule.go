package events

import (
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// RescheduleEvent is published after a scene is moved.
type RescheduleEvent struct {
	RunID     string `json:"run_id"`
	ProjectID int    `json:"project_id"`
	SceneID   int    `json:"scene_id"`
	// OldDate is nil when the scene was not found.
	OldDate *time.Time `json:"old_date,omitempty"`
	NewDate time.Time  `json:"new_date"`
	Success bool       `json:"success"`
	// Moved lists the assignments whose date changed, the scene itself first.
	Moved     []model.Assignment `json:"moved"`
	Conflicts int                `json:"conflicts"`
	Reason    string             `json:"reason,omitempty"`
	Time      time.Time          `json:"time"`
}

func (RescheduleEvent) Kind() string    { return "reschedule" }
func (e RescheduleEvent) Project() int { return e.ProjectID }
