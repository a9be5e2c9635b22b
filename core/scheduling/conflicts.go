package scheduling

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/shootplan/core/model"
)

// dayGroup collects the assignments of one calendar day in input order.
type dayGroup struct {
	day   time.Time
	items []model.Assignment
}

func groupByDay(schedule []model.Assignment) []dayGroup {
	pos := make(map[time.Time]int)
	var groups []dayGroup
	for _, a := range schedule {
		d := model.Day(a.ScheduledDate)
		i, ok := pos[d]
		if !ok {
			i = len(groups)
			pos[d] = i
			groups = append(groups, dayGroup{day: d})
		}
		groups[i].items = append(groups[i].items, a)
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].day.Before(groups[b].day) })
	return groups
}

// DetectConflicts reports every actor called for more than threshold
// distinct scenes on the same day. Scenes absent from scenes are ignored.
// Results are ordered by day, then by the actor's first appearance.
func DetectConflicts(schedule []model.Assignment, scenes []model.Scene, threshold int) []model.Conflict {
	if threshold <= 0 {
		threshold = DefaultOverloadThreshold
	}
	idx := model.IndexScenes(scenes)
	out := []model.Conflict{}
	for _, g := range groupByDay(schedule) {
		var order []string
		calls := make(map[string][]int)
		seen := make(map[string]map[int]bool)
		for _, a := range g.items {
			s, ok := idx[a.SceneID]
			if !ok {
				continue
			}
			for _, name := range s.ActorNames() {
				if seen[name] == nil {
					seen[name] = make(map[int]bool)
					order = append(order, name)
				}
				if seen[name][a.SceneID] {
					continue
				}
				seen[name][a.SceneID] = true
				calls[name] = append(calls[name], a.SceneID)
			}
		}
		for _, name := range order {
			ids := calls[name]
			if len(ids) <= threshold {
				continue
			}
			day := g.day
			out = append(out, model.Conflict{
				Type:     model.ConflictActorOverload,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("%s scheduled for %d scenes on %s", name, len(ids), day.Format(time.DateOnly)),
				SceneIDs: ids,
				Date:     &day,
				Actor:    name,
			})
		}
	}
	return out
}

// DetectLocationOverlaps reports every location booked for more than one
// scene on the same day.
func DetectLocationOverlaps(schedule []model.Assignment) []model.Conflict {
	out := []model.Conflict{}
	for _, g := range groupByDay(schedule) {
		var order []string
		byLoc := make(map[string][]int)
		for _, a := range g.items {
			loc := a.Location
			if loc == "" {
				loc = model.DefaultLocation
			}
			if _, ok := byLoc[loc]; !ok {
				order = append(order, loc)
			}
			byLoc[loc] = append(byLoc[loc], a.SceneID)
		}
		for _, loc := range order {
			ids := byLoc[loc]
			if len(ids) <= 1 {
				continue
			}
			day := g.day
			out = append(out, model.Conflict{
				Type:     model.ConflictLocationOverlap,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("%d scenes at %s on %s", len(ids), loc, day.Format(time.DateOnly)),
				SceneIDs: ids,
				Date:     &day,
				Location: loc,
			})
		}
	}
	return out
}
