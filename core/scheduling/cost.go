package scheduling

import (
	"sort"
	"strings"

	"github.com/kilianp07/shootplan/core/model"
)

const (
	weeklyDiscount  = 0.85
	monthlyDiscount = 0.7
	daysPerWeek     = 7
	daysPerMonth    = 30
)

// CostBook resolves actor names to their billing terms.
type CostBook struct {
	records map[string]model.CostRecord
}

// NewCostBook indexes actor cost records by lower-cased name. Records of
// other categories are ignored; the first record for a name wins.
func NewCostBook(records []model.CostRecord) *CostBook {
	b := &CostBook{records: make(map[string]model.CostRecord, len(records))}
	for _, r := range records {
		if r.Category != "" && !strings.EqualFold(r.Category, model.CategoryActor) {
			continue
		}
		key := strings.ToLower(r.Name)
		if _, ok := b.records[key]; ok {
			continue
		}
		b.records[key] = r
	}
	return b
}

func (b *CostBook) lookup(name string) (model.CostRecord, bool) {
	if b == nil {
		return model.CostRecord{}, false
	}
	r, ok := b.records[strings.ToLower(name)]
	return r, ok
}

// BillingCycle returns the actor's billing cycle, daily when unknown.
func (b *CostBook) BillingCycle(name string) model.BillingCycle {
	r, ok := b.lookup(name)
	if !ok || r.BillingCycle == "" {
		return model.BillingDaily
	}
	return model.BillingCycle(strings.ToLower(string(r.BillingCycle)))
}

// ActorCost returns what the actor costs for the given number of shooting
// days. Unknown actors and cycles cost nothing.
func (b *CostBook) ActorCost(name string, days int) float64 {
	r, ok := b.lookup(name)
	if !ok || days <= 0 {
		return 0
	}
	switch model.BillingCycle(strings.ToLower(string(r.BillingCycle))) {
	case model.BillingDaily:
		return r.Cost * float64(days)
	case model.BillingWeekly:
		return r.Cost * float64(ceilDiv(days, daysPerWeek)) * weeklyDiscount
	case model.BillingMonthly:
		return r.Cost * float64(ceilDiv(days, daysPerMonth)) * monthlyDiscount
	}
	return 0
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// ActorEstimate is the projected cost of one cast member.
type ActorEstimate struct {
	Name      string             `json:"name"`
	Cycle     model.BillingCycle `json:"billing_cycle"`
	ShootDays int                `json:"shoot_days"`
	Cost      float64            `json:"cost"`
}

// CastEstimate sums actor costs over a schedule.
type CastEstimate struct {
	Actors []ActorEstimate `json:"actors"`
	Total  float64         `json:"total"`
}

// EstimateCast counts, for each actor, the distinct days they are called in
// schedule and prices them. Actors are listed by name.
func (b *CostBook) EstimateCast(schedule []model.Assignment, scenes []model.Scene) CastEstimate {
	idx := model.IndexScenes(scenes)
	days := make(map[string]map[int64]bool)
	for _, a := range schedule {
		s, ok := idx[a.SceneID]
		if !ok {
			continue
		}
		day := model.Day(a.ScheduledDate).Unix()
		for _, name := range s.ActorNames() {
			if days[name] == nil {
				days[name] = make(map[int64]bool)
			}
			days[name][day] = true
		}
	}
	names := make([]string, 0, len(days))
	for n := range days {
		names = append(names, n)
	}
	sort.Strings(names)
	var est CastEstimate
	for _, n := range names {
		d := len(days[n])
		c := b.ActorCost(n, d)
		est.Actors = append(est.Actors, ActorEstimate{Name: n, Cycle: b.BillingCycle(n), ShootDays: d, Cost: c})
		est.Total += c
	}
	return est
}
