package scheduling

import "github.com/kilianp07/shootplan/core/model"

// maxInferredDependents caps the dependents inferred without an explicit graph.
const maxInferredDependents = 3

// Dependents returns the scenes that must follow sceneID.
//
// When any scene declares DependsOn, the declared graph is used and every
// direct dependent is returned. Otherwise dependents are inferred: scenes at
// the same location with a strictly greater numeric scene number, limited to
// the first three in input order. The inference is a heuristic and may
// under- or over-cascade.
func Dependents(sceneID int, scenes []model.Scene) []int {
	if hasDeclaredDependencies(scenes) {
		var out []int
		for _, s := range scenes {
			if s.ID == sceneID {
				continue
			}
			for _, dep := range s.DependsOn {
				if dep == sceneID {
					out = append(out, s.ID)
					break
				}
			}
		}
		return out
	}

	var target *model.Scene
	for i := range scenes {
		if scenes[i].ID == sceneID {
			target = &scenes[i]
			break
		}
	}
	if target == nil {
		return nil
	}
	num := target.Number()
	var out []int
	for _, s := range scenes {
		if s.ID == sceneID || s.LocationName != target.LocationName || s.Number() <= num {
			continue
		}
		out = append(out, s.ID)
		if len(out) == maxInferredDependents {
			break
		}
	}
	return out
}

func hasDeclaredDependencies(scenes []model.Scene) bool {
	for _, s := range scenes {
		if len(s.DependsOn) > 0 {
			return true
		}
	}
	return false
}

// scenesFromSchedule builds minimal scenes from assignments so dependents
// can be inferred when the caller supplies no scene records.
func scenesFromSchedule(schedule []model.Assignment) []model.Scene {
	out := make([]model.Scene, 0, len(schedule))
	for _, a := range schedule {
		out = append(out, model.Scene{ID: a.SceneID, SceneNumber: a.SceneNumber, LocationName: a.Location})
	}
	return out
}
