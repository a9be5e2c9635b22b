package model

import "time"

// BillingCycle describes how an actor is paid.
type BillingCycle string

const (
	BillingDaily   BillingCycle = "daily"
	BillingWeekly  BillingCycle = "weekly"
	BillingMonthly BillingCycle = "monthly"
)

// CategoryActor is the cost category holding cast rates.
const CategoryActor = "actor"

// CostRecord is a named resource rate.
type CostRecord struct {
	Name         string       `json:"name" yaml:"name"`
	Category     string       `json:"category" yaml:"category"`
	BillingCycle BillingCycle `json:"billing_cycle" yaml:"billing_cycle"`
	Cost         float64      `json:"cost" yaml:"cost"`
}

// ActorAvailability is a per-project date range for a cast member.
type ActorAvailability struct {
	ActorName string    `json:"actor_name" yaml:"actor_name"`
	ProjectID int       `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
}
