package scheduling

import (
	"strings"

	"github.com/kilianp07/shootplan/core/model"
)

const (
	indoorBase        = 2.0
	outdoorBase       = 5.0
	perActorWeight    = 1.5
	complexityDivisor = 100.0
	specialTimeBonus  = 3.0
)

var specialTimes = map[string]bool{
	"dawn":        true,
	"dusk":        true,
	"golden_hour": true,
}

// PriorityScorer ranks scenes; higher scores are shot earlier within a location.
type PriorityScorer interface {
	Score(scene model.Scene) float64
}

// PriorityScorerFunc adapts a function to PriorityScorer.
type PriorityScorerFunc func(model.Scene) float64

func (f PriorityScorerFunc) Score(s model.Scene) float64 { return f(s) }

// DefaultScorer combines location exposure, cast size, technical complexity
// and time-of-day constraints.
type DefaultScorer struct{}

func (DefaultScorer) Score(s model.Scene) float64 {
	var score float64
	switch {
	case s.IsOutdoor():
		score += outdoorBase
	case strings.EqualFold(string(s.LocationType), string(model.Indoor)):
		score += indoorBase
	}
	score += perActorWeight * float64(len(s.Actors))
	score += float64(len(s.TechnicalNotes)) / complexityDivisor
	if specialTimes[strings.ToLower(strings.TrimSpace(s.TimeOfDay))] {
		score += specialTimeBonus
	}
	return score
}
