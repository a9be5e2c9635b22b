package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/shootplan/core/logger"
	"github.com/kilianp07/shootplan/core/model"
)

// ErrInvalidWindow is returned when a run ends before it starts.
var ErrInvalidWindow = errors.New("end date before start date")

// previewHorizon is the window used to estimate a schedule without applying it.
const previewHorizon = 365

// previewConflictLimit caps the conflicts returned with a preview.
const previewConflictLimit = 5

// Engine assigns shooting days to scenes. It holds no per-run state and is
// safe for concurrent use.
type Engine struct {
	cfg     Config
	weather WeatherGate
	scorer  PriorityScorer
	log     logger.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithWeatherGate replaces the default SeasonalGate.
func WithWeatherGate(g WeatherGate) Option {
	return func(e *Engine) {
		if g != nil {
			e.weather = g
		}
	}
}

// WithScorer replaces the default priority scorer.
func WithScorer(s PriorityScorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduling config: %w", err)
	}
	e := &Engine{
		cfg:     cfg,
		weather: SeasonalGate{},
		scorer:  DefaultScorer{},
		log:     logger.NopLogger{},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Request describes one scheduling run.
type Request struct {
	ProjectID int
	Scenes    []model.Scene
	// Actors is accepted for completeness; availability windows do not
	// block scheduling.
	Actors []model.ActorAvailability
	Costs  []model.CostRecord
	Start  time.Time
	End    time.Time
	Mode   Mode
}

// Result is the outcome of a scheduling run.
type Result struct {
	RunID          string             `json:"run_id,omitempty"`
	Mode           Mode               `json:"mode"`
	Capacity       int                `json:"scenes_per_day"`
	Schedule       []model.Assignment `json:"schedule"`
	TotalDays      int                `json:"total_days"`
	Conflicts      []model.Conflict   `json:"conflicts"`
	CompletionDate time.Time          `json:"completion_date"`
	// WeatherRetries counts the days skipped looking for suitable weather.
	WeatherRetries int `json:"weather_retries"`
	// DegradedWeather counts weather checks answered by the failure policy.
	DegradedWeather int `json:"degraded_weather_checks"`
}

// Schedule walks location clusters, largest first, and places scenes on
// consecutive shooting days. Constraint violations are reported as
// conflicts; only invalid requests and cancellation return an error.
func (e *Engine) Schedule(ctx context.Context, req Request) (Result, error) {
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return Result{}, err
	}
	start, end := model.Day(req.Start), model.Day(req.End)
	if end.Before(start) {
		return Result{}, fmt.Errorf("%w: %s < %s", ErrInvalidWindow, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	res := Result{
		Mode:           mode,
		Capacity:       e.cfg.DailyCapacity(mode),
		Schedule:       []model.Assignment{},
		Conflicts:      []model.Conflict{},
		CompletionDate: start,
	}
	scenes := e.uniqueScenes(req.Scenes)
	if len(scenes) == 0 {
		return res, nil
	}

	clusters := ClusterByLocation(scenes)
	if mode.costAware() {
		clusters, _ = OptimizeForActorCosts(clusters, NewCostBook(req.Costs), e.scorer)
	}
	sortBySize(clusters)

	cursor := start
	placed := 0
	dayFull := false
	for _, c := range clusters {
		for _, s := range c.Scenes {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			if dayFull {
				cursor = e.nextShootDay(cursor)
				dayFull = false
			}
			if cursor.After(end) {
				res.Conflicts = append(res.Conflicts, timelineExceeded(s, cursor))
				continue
			}
			verdict := e.checkWeather(ctx, cursor, s, &res)
			if !verdict.Suitable && s.IsOutdoor() {
				for attempt := 0; attempt < e.cfg.WeatherRetryLimit; attempt++ {
					cursor = cursor.AddDate(0, 0, 1)
					res.WeatherRetries++
					verdict = e.checkWeather(ctx, cursor, s, &res)
					if verdict.Suitable {
						break
					}
				}
				if !verdict.Suitable {
					e.log.Warnf("scene %d: no suitable weather within %d days, keeping %s", s.ID, e.cfg.WeatherRetryLimit, cursor.Format(time.DateOnly))
				}
			}
			res.Schedule = append(res.Schedule, model.Assignment{
				SceneID:           s.ID,
				SceneNumber:       s.SceneNumber,
				Location:          c.Location,
				ScheduledDate:     cursor,
				WeatherNote:       verdict.Reason,
				EstimatedDuration: s.Duration(),
			})
			placed++
			if placed%res.Capacity == 0 {
				dayFull = true
			}
		}
	}

	res.CompletionDate = cursor
	res.TotalDays = model.DaysBetween(start, cursor)
	res.Conflicts = append(res.Conflicts, DetectConflicts(res.Schedule, scenes, e.cfg.OverloadThreshold)...)
	e.log.Debugw("schedule computed", map[string]any{
		"mode":      string(mode),
		"scenes":    len(scenes),
		"scheduled": len(res.Schedule),
		"conflicts": len(res.Conflicts),
		"days":      res.TotalDays,
	})
	return res, nil
}

// nextShootDay moves to the following day, skipping weekends when configured.
func (e *Engine) nextShootDay(d time.Time) time.Time {
	d = d.AddDate(0, 0, 1)
	for e.cfg.SkipWeekends && model.IsWeekend(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// checkWeather asks the gate and applies the failure policy on error.
func (e *Engine) checkWeather(ctx context.Context, date time.Time, s model.Scene, res *Result) Verdict {
	v, err := e.weather.Suitability(ctx, date, s)
	if err == nil {
		return v
	}
	res.DegradedWeather++
	e.log.Warnf("weather check for scene %d on %s failed: %v", s.ID, date.Format(time.DateOnly), err)
	if e.cfg.WeatherFailurePolicy == AssumeUnsuitable {
		return Verdict{Suitable: false, Reason: fmt.Sprintf("Weather unavailable: %v (assumed unsuitable)", err)}
	}
	return Verdict{Suitable: true, Reason: fmt.Sprintf("Weather unavailable: %v (degraded confidence)", err)}
}

// uniqueScenes drops repeated scene ids, keeping the first occurrence.
func (e *Engine) uniqueScenes(scenes []model.Scene) []model.Scene {
	seen := make(map[int]bool, len(scenes))
	out := make([]model.Scene, 0, len(scenes))
	for _, s := range scenes {
		if seen[s.ID] {
			e.log.Warnf("scene %d listed twice, ignoring duplicate", s.ID)
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

func timelineExceeded(s model.Scene, at time.Time) model.Conflict {
	return model.Conflict{
		Type:     model.ConflictTimelineExceeded,
		Severity: model.SeverityHigh,
		Message:  fmt.Sprintf("Cannot fit scene %d within project timeline", s.ID),
		SceneIDs: []int{s.ID},
		Date:     &at,
		Location: s.Location(),
	}
}

// DetectConflicts reports actor overloads in schedule using the engine threshold.
func (e *Engine) DetectConflicts(schedule []model.Assignment, scenes []model.Scene) []model.Conflict {
	return DetectConflicts(schedule, scenes, e.cfg.OverloadThreshold)
}

// ListConflicts reports location overlaps followed by actor overloads, the
// view served to clients for an existing schedule.
func (e *Engine) ListConflicts(schedule []model.Assignment, scenes []model.Scene) []model.Conflict {
	out := DetectLocationOverlaps(schedule)
	return append(out, e.DetectConflicts(schedule, scenes)...)
}

// Preview estimates a schedule over the next year without weekend shoots.
type Preview struct {
	Mode               Mode             `json:"mode"`
	TotalScenes        int              `json:"total_scenes"`
	EstimatedDays      int              `json:"estimated_days"`
	CompletionDate     time.Time        `json:"completion_date"`
	PotentialConflicts int              `json:"potential_conflicts"`
	ConflictsPreview   []model.Conflict `json:"conflicts_preview"`
}

// Preview runs Schedule from now over a one-year window with weekends
// skipped and summarises the outcome.
func (e *Engine) Preview(ctx context.Context, req Request, now time.Time) (Preview, error) {
	pe := *e
	pe.cfg.SkipWeekends = true
	req.Start = model.Day(now)
	req.End = req.Start.AddDate(0, 0, previewHorizon)
	res, err := pe.Schedule(ctx, req)
	if err != nil {
		return Preview{}, err
	}
	p := Preview{
		Mode:               res.Mode,
		TotalScenes:        len(pe.uniqueScenes(req.Scenes)),
		EstimatedDays:      res.TotalDays,
		CompletionDate:     res.CompletionDate,
		PotentialConflicts: len(res.Conflicts),
		ConflictsPreview:   res.Conflicts,
	}
	if len(p.ConflictsPreview) > previewConflictLimit {
		p.ConflictsPreview = p.ConflictsPreview[:previewConflictLimit]
	}
	return p, nil
}
