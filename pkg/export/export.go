package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// callSheetHeader is the column order of WriteCSV.
var callSheetHeader = []string{"date", "scene_id", "scene_number", "location", "estimated_duration", "weather_note"}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes the schedule to w as a call sheet, one row per scene.
func WriteCSV(w io.Writer, schedule []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(callSheetHeader); err != nil {
		return err
	}
	for _, a := range schedule {
		rec := []string{
			a.ScheduledDate.Format(time.DateOnly),
			strconv.Itoa(a.SceneID),
			a.SceneNumber,
			a.Location,
			a.EstimatedDuration,
			a.WeatherNote,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteConflictsCSV writes conflicts to w, one row per conflict.
func WriteConflictsCSV(w io.Writer, conflicts []model.Conflict) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"type", "severity", "date", "scene_ids", "message"}); err != nil {
		return err
	}
	for _, c := range conflicts {
		date := ""
		if c.Date != nil {
			date = c.Date.Format(time.DateOnly)
		}
		ids := ""
		for i, id := range c.SceneIDs {
			if i > 0 {
				ids += " "
			}
			ids += strconv.Itoa(id)
		}
		if err := cw.Write([]string{string(c.Type), string(c.Severity), date, ids, c.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
