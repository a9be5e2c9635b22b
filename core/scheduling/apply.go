package scheduling

import (
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// Note prefixes appended to scene notes.
const (
	WeatherNotePrefix    = "[Weather]: "
	RescheduleNotePrefix = "[Rescheduled]: "
)

// ApplySchedule returns copies of scenes with the assignments written back:
// date set, status planned and the weather note appended. Scenes without an
// assignment are returned unchanged.
func ApplySchedule(scenes []model.Scene, schedule []model.Assignment) []model.Scene {
	byID := make(map[int]model.Assignment, len(schedule))
	for _, a := range schedule {
		byID[a.SceneID] = a
	}
	out := make([]model.Scene, len(scenes))
	for i, s := range scenes {
		a, ok := byID[s.ID]
		if ok {
			d := a.ScheduledDate
			s.ScheduledDate = &d
			s.Status = model.StatusPlanned
			if a.WeatherNote != "" {
				s.AppendNote(WeatherNotePrefix + a.WeatherNote)
			}
		}
		out[i] = s
	}
	return out
}

// ApplyReschedule writes the dates of a successful reschedule back onto
// copies of scenes. A non-empty reason is noted on the moved scene only.
func ApplyReschedule(scenes []model.Scene, sceneID int, res RescheduleResult, reason string) []model.Scene {
	out := append([]model.Scene(nil), scenes...)
	if !res.Success {
		return out
	}
	dates := make(map[int]time.Time, len(res.UpdatedSchedule))
	for _, a := range res.UpdatedSchedule {
		dates[a.SceneID] = a.ScheduledDate
	}
	for i := range out {
		d, ok := dates[out[i].ID]
		if !ok {
			continue
		}
		out[i].ScheduledDate = &d
		if reason != "" && out[i].ID == sceneID {
			out[i].AppendNote(RescheduleNotePrefix + reason)
		}
	}
	return out
}

// SetDate places a scene on day d and marks it planned.
func SetDate(s model.Scene, d time.Time) model.Scene {
	day := model.Day(d)
	s.ScheduledDate = &day
	s.Status = model.StatusPlanned
	return s
}

// Unschedule clears the date of a scene and marks it unplanned.
func Unschedule(s model.Scene) model.Scene {
	s.ScheduledDate = nil
	s.Status = model.StatusUnplanned
	return s
}

// Unplanned filters scenes that still need a shooting day.
func Unplanned(scenes []model.Scene) []model.Scene {
	var out []model.Scene
	for _, s := range scenes {
		if s.Status == "" || s.Status == model.StatusUnplanned {
			out = append(out, s)
		}
	}
	return out
}
