package scheduling

import (
	"strconv"
	"testing"
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func indoor(id int, loc string, actors ...string) model.Scene {
	return scene(id, loc, model.Indoor, actors...)
}

func outdoor(id int, loc string, actors ...string) model.Scene {
	return scene(id, loc, model.Outdoor, actors...)
}

func scene(id int, loc string, lt model.LocationType, actors ...string) model.Scene {
	s := model.Scene{ID: id, SceneNumber: strconv.Itoa(id), LocationName: loc, LocationType: lt}
	for _, a := range actors {
		s.Actors = append(s.Actors, model.SceneActor{Name: a})
	}
	return s
}

func dates(schedule []model.Assignment) []string {
	out := make([]string, len(schedule))
	for i, a := range schedule {
		out[i] = a.ScheduledDate.Format(time.DateOnly)
	}
	return out
}

func sceneIDs(schedule []model.Assignment) []int {
	out := make([]int, len(schedule))
	for i, a := range schedule {
		out[i] = a.SceneID
	}
	return out
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}
