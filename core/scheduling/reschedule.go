package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// MsgSceneNotFound is returned when the scene to move is not scheduled.
const MsgSceneNotFound = "Scene not found in schedule"

// RescheduleRequest moves one scene within an existing schedule.
type RescheduleRequest struct {
	ProjectID int
	SceneID   int
	NewDate   time.Time
	Current   []model.Assignment
	// Scenes supply actors and dependency data. When empty, dependents
	// are inferred from the assignments alone.
	Scenes []model.Scene
	Reason string
	// AutoCascade overrides the engine setting when non-nil.
	AutoCascade *bool
}

// CascadeMove records a dependent pushed after the moved scene.
type CascadeMove struct {
	SceneID int       `json:"scene_id"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

// RescheduleResult is the outcome of a reschedule.
type RescheduleResult struct {
	RunID           string             `json:"run_id,omitempty"`
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	OldDate         *time.Time         `json:"old_date,omitempty"`
	NewDate         time.Time          `json:"new_date"`
	UpdatedSchedule []model.Assignment `json:"updated_schedule"`
	NewConflicts    []model.Conflict   `json:"new_conflicts"`
	AffectedScenes  []int              `json:"affected_scenes"`
	Cascade         []CascadeMove      `json:"cascade"`
	CascadeEnabled  bool               `json:"cascade_enabled"`
}

// Reschedule moves req.SceneID to req.NewDate. With cascade enabled every
// dependent dated before the new date is moved to the day after it. The
// current schedule is copied, never modified.
func (e *Engine) Reschedule(ctx context.Context, req RescheduleRequest) RescheduleResult {
	newDate := model.Day(req.NewDate)
	cascade := e.cfg.CascadeEnabled()
	if req.AutoCascade != nil {
		cascade = *req.AutoCascade
	}
	res := RescheduleResult{
		NewDate:        newDate,
		CascadeEnabled: cascade,
		AffectedScenes: []int{},
		Cascade:        []CascadeMove{},
		NewConflicts:   []model.Conflict{},
	}

	pos := make(map[int]int, len(req.Current))
	for i, a := range req.Current {
		if _, ok := pos[a.SceneID]; !ok {
			pos[a.SceneID] = i
		}
	}
	i, ok := pos[req.SceneID]
	if !ok {
		res.Message = MsgSceneNotFound
		res.UpdatedSchedule = append([]model.Assignment{}, req.Current...)
		return res
	}

	updated := append([]model.Assignment(nil), req.Current...)
	old := updated[i].ScheduledDate
	res.OldDate = &old
	updated[i].ScheduledDate = newDate

	scenes := req.Scenes
	if len(scenes) == 0 {
		scenes = scenesFromSchedule(req.Current)
	}
	if cascade {
		res.AffectedScenes = append(res.AffectedScenes, Dependents(req.SceneID, scenes)...)
		pushTo := newDate.AddDate(0, 0, 1)
		for _, id := range res.AffectedScenes {
			j, ok := pos[id]
			if !ok || !model.Day(updated[j].ScheduledDate).Before(newDate) {
				continue
			}
			res.Cascade = append(res.Cascade, CascadeMove{SceneID: id, From: updated[j].ScheduledDate, To: pushTo})
			updated[j].ScheduledDate = pushTo
		}
	}

	res.Success = true
	res.UpdatedSchedule = updated
	res.Message = fmt.Sprintf("Scene %d rescheduled from %s to %s", req.SceneID, old.Format(time.DateOnly), newDate.Format(time.DateOnly))
	res.NewConflicts = append(res.NewConflicts, e.moveConflicts(ctx, req.SceneID, newDate, scenes)...)
	res.NewConflicts = append(res.NewConflicts, e.DetectConflicts(updated, scenes)...)
	return res
}

// moveConflicts flags a moved scene landing on a weekend the production
// does not shoot, or on a day with unsuitable weather.
func (e *Engine) moveConflicts(ctx context.Context, sceneID int, date time.Time, scenes []model.Scene) []model.Conflict {
	var out []model.Conflict
	d := date
	if e.cfg.SkipWeekends && model.IsWeekend(date) {
		out = append(out, model.Conflict{
			Type:     model.ConflictReschedule,
			Severity: model.SeverityLow,
			Message:  fmt.Sprintf("Scene %d moved to a non-shooting weekend day %s", sceneID, date.Format(time.DateOnly)),
			SceneIDs: []int{sceneID},
			Date:     &d,
		})
	}
	s, ok := model.IndexScenes(scenes)[sceneID]
	if !ok || !s.IsOutdoor() {
		return out
	}
	var tally Result
	if v := e.checkWeather(ctx, date, s, &tally); !v.Suitable {
		out = append(out, model.Conflict{
			Type:     model.ConflictReschedule,
			Severity: model.SeverityMedium,
			Message:  fmt.Sprintf("Scene %d moved to %s: %s", sceneID, date.Format(time.DateOnly), v.Reason),
			SceneIDs: []int{sceneID},
			Date:     &d,
			Location: s.Location(),
		})
	}
	return out
}
