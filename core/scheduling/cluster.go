package scheduling

import (
	"sort"

	"github.com/kilianp07/shootplan/core/model"
)

// blockBillingBoost is added to a scene for every weekly or monthly paid
// actor in it so those actors' scenes are shot back to back.
const blockBillingBoost = 2.0

// Cluster is the set of scenes sharing one location.
type Cluster struct {
	Location string
	Scenes   []model.Scene
}

// ClusterByLocation groups scenes by location name. Clusters and the scenes
// inside them keep their encounter order.
func ClusterByLocation(scenes []model.Scene) []Cluster {
	pos := make(map[string]int)
	var clusters []Cluster
	for _, s := range scenes {
		loc := s.Location()
		i, ok := pos[loc]
		if !ok {
			i = len(clusters)
			pos[loc] = i
			clusters = append(clusters, Cluster{Location: loc})
		}
		clusters[i].Scenes = append(clusters[i].Scenes, s)
	}
	return clusters
}

// Boosts holds per-run priority adjustments keyed by scene id.
type Boosts map[int]float64

// OptimizeForActorCosts boosts scenes featuring block-billed actors and
// re-sorts every cluster by descending boosted priority. The input clusters
// are left untouched.
func OptimizeForActorCosts(clusters []Cluster, book *CostBook, scorer PriorityScorer) ([]Cluster, Boosts) {
	if scorer == nil {
		scorer = DefaultScorer{}
	}
	boosts := make(Boosts)
	cycles := make(map[string]model.BillingCycle)
	out := make([]Cluster, len(clusters))
	for i, c := range clusters {
		for _, s := range c.Scenes {
			for _, name := range s.ActorNames() {
				cycle, ok := cycles[name]
				if !ok {
					cycle = book.BillingCycle(name)
					cycles[name] = cycle
				}
				if cycle == model.BillingWeekly || cycle == model.BillingMonthly {
					boosts[s.ID] += blockBillingBoost
				}
			}
		}
		ranked := make([]rankedScene, len(c.Scenes))
		for j, s := range c.Scenes {
			ranked[j] = rankedScene{scene: s, score: scorer.Score(s) + boosts[s.ID]}
		}
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
		sorted := make([]model.Scene, len(ranked))
		for j, r := range ranked {
			sorted[j] = r.scene
		}
		out[i] = Cluster{Location: c.Location, Scenes: sorted}
	}
	return out, boosts
}

type rankedScene struct {
	scene model.Scene
	score float64
}

// sortBySize orders clusters largest first; ties keep encounter order.
func sortBySize(clusters []Cluster) {
	sort.SliceStable(clusters, func(a, b int) bool {
		return len(clusters[a].Scenes) > len(clusters[b].Scenes)
	})
}
