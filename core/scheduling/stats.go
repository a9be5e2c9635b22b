package scheduling

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/shootplan/core/model"
)

// estimatedScenesPerDay is used to guess shoot days when nothing is dated yet.
const estimatedScenesPerDay = 5

// Stats summarises the progress of a project's schedule.
type Stats struct {
	TotalScenes          int     `json:"total_scenes"`
	Scheduled            int     `json:"scheduled"`
	Completed            int     `json:"completed"`
	InProgress           int     `json:"in_progress"`
	Unscheduled          int     `json:"unscheduled"`
	TotalShootDays       int     `json:"total_shoot_days"`
	DaysCompleted        int     `json:"days_completed"`
	CompletionPercentage float64 `json:"completion_percentage"`
	// MeanScenesPerDay and StdDevScenesPerDay describe the daily load
	// over dated shoot days.
	MeanScenesPerDay   float64 `json:"mean_scenes_per_day"`
	StdDevScenesPerDay float64 `json:"stddev_scenes_per_day"`
}

// ComputeStats counts scenes by status and measures the daily load.
func ComputeStats(scenes []model.Scene) Stats {
	st := Stats{TotalScenes: len(scenes)}
	perDay := make(map[time.Time]float64)
	doneDays := make(map[time.Time]bool)
	for _, s := range scenes {
		switch s.Status {
		case model.StatusPlanned, model.StatusInProgress, model.StatusShooting, model.StatusCompleted:
			st.Scheduled++
		case "", model.StatusUnplanned:
			st.Unscheduled++
		}
		switch s.Status {
		case model.StatusCompleted:
			st.Completed++
		case model.StatusInProgress, model.StatusShooting:
			st.InProgress++
		}
		if s.ScheduledDate == nil {
			continue
		}
		d := model.Day(*s.ScheduledDate)
		perDay[d]++
		if s.Status == model.StatusCompleted {
			doneDays[d] = true
		}
	}
	st.DaysCompleted = len(doneDays)
	if len(perDay) > 0 {
		st.TotalShootDays = len(perDay)
		days := make([]time.Time, 0, len(perDay))
		for d := range perDay {
			days = append(days, d)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		load := make([]float64, len(days))
		for i, d := range days {
			load[i] = perDay[d]
		}
		st.MeanScenesPerDay, st.StdDevScenesPerDay = stat.MeanStdDev(load, nil)
		if math.IsNaN(st.StdDevScenesPerDay) {
			st.StdDevScenesPerDay = 0
		}
	} else {
		st.TotalShootDays = max(1, st.TotalScenes/estimatedScenesPerDay)
	}
	if st.TotalScenes > 0 {
		st.CompletionPercentage = math.Round(float64(st.Completed)/float64(st.TotalScenes)*10000) / 100
	}
	return st
}
