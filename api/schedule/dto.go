package schedule

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/scheduling"
)

// Date is a calendar day accepting either YYYY-MM-DD or RFC 3339 input.
type Date struct {
	time.Time
}

// ParseDate parses s as a calendar day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{model.Day(t)}, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	v, err := ParseDate(n.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// NewValidator returns a validator that understands Date fields.
func NewValidator() *validator.Validate {
	v := validator.New()
	registerDate(v)
	return v
}

// registerDate lets tags such as required see the wrapped time.
func registerDate(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(Date); ok {
			return d.Time
		}
		return nil
	}, Date{})
}

// ScheduleRequest is the body of a schedule or preview call. It doubles as
// the input file format of the CLI.
type ScheduleRequest struct {
	Scenes           []model.Scene             `json:"scenes" yaml:"scenes" validate:"dive"`
	Actors           []model.ActorAvailability `json:"actors,omitempty" yaml:"actors,omitempty"`
	CostRecords      []model.CostRecord        `json:"cost_records,omitempty" yaml:"cost_records,omitempty" validate:"dive"`
	StartDate        Date                      `json:"start_date" yaml:"start_date" validate:"required"`
	EndDate          Date                      `json:"end_date" yaml:"end_date" validate:"required"`
	OptimizationMode string                    `json:"optimization_mode,omitempty" yaml:"optimization_mode,omitempty"`
}

// Engine converts the body into an engine request. Only scenes still
// unplanned are handed to the engine.
func (r ScheduleRequest) Engine(projectID int) scheduling.Request {
	return scheduling.Request{
		ProjectID: projectID,
		Scenes:    scheduling.Unplanned(r.Scenes),
		Actors:    r.Actors,
		Costs:     r.CostRecords,
		Start:     r.StartDate.Time,
		End:       r.EndDate.Time,
		Mode:      scheduling.Mode(r.OptimizationMode),
	}
}

// PreviewRequest is the body of a preview call. The window is fixed.
type PreviewRequest struct {
	Scenes           []model.Scene      `json:"scenes" yaml:"scenes" validate:"dive"`
	CostRecords      []model.CostRecord `json:"cost_records,omitempty" yaml:"cost_records,omitempty" validate:"dive"`
	OptimizationMode string             `json:"optimization_mode,omitempty" yaml:"optimization_mode,omitempty"`
}

// RescheduleRequest moves one scene of an existing schedule.
type RescheduleRequest struct {
	SceneID     int                `json:"scene_id" yaml:"scene_id" validate:"required,gt=0"`
	NewDate     Date               `json:"new_date" yaml:"new_date" validate:"required"`
	Schedule    []model.Assignment `json:"schedule" yaml:"schedule" validate:"required"`
	Scenes      []model.Scene      `json:"scenes,omitempty" yaml:"scenes,omitempty"`
	Reason      string             `json:"reason,omitempty" yaml:"reason,omitempty" validate:"max=500"`
	AutoCascade *bool              `json:"auto_cascade,omitempty" yaml:"auto_cascade,omitempty"`
}

// Engine converts the body into an engine request.
func (r RescheduleRequest) Engine(projectID int) scheduling.RescheduleRequest {
	return scheduling.RescheduleRequest{
		ProjectID:   projectID,
		SceneID:     r.SceneID,
		NewDate:     r.NewDate.Time,
		Current:     r.Schedule,
		Scenes:      r.Scenes,
		Reason:      r.Reason,
		AutoCascade: r.AutoCascade,
	}
}

// SceneDateRequest sets the shooting day of one scene by hand.
type SceneDateRequest struct {
	ScheduledDate Date          `json:"scheduled_date" validate:"required"`
	Scenes        []model.Scene `json:"scenes" validate:"required"`
}

// UnscheduleRequest removes one scene from the schedule.
type UnscheduleRequest struct {
	Scenes []model.Scene `json:"scenes" validate:"required"`
}

// SceneUpdateResponse carries the updated scene and the full scene list.
type SceneUpdateResponse struct {
	Success bool          `json:"success"`
	SceneID int           `json:"scene_id"`
	Scene   model.Scene   `json:"scene"`
	Scenes  []model.Scene `json:"scenes"`
}

// ConflictsRequest lists the conflicts of a schedule.
type ConflictsRequest struct {
	Schedule []model.Assignment `json:"schedule" validate:"required"`
	Scenes   []model.Scene      `json:"scenes,omitempty"`
}

// StatsRequest summarises the progress of a project's scenes.
type StatsRequest struct {
	Scenes []model.Scene `json:"scenes" validate:"required"`
}

// ScheduleResponse carries the run result, the cast estimate and the
// scenes with their new dates.
type ScheduleResponse struct {
	scheduling.Result
	CostEstimate scheduling.CastEstimate `json:"cost_estimate"`
	Scenes       []model.Scene           `json:"scenes"`
}

// RescheduleResponse carries the reschedule result and the updated scenes.
type RescheduleResponse struct {
	scheduling.RescheduleResult
	Scenes []model.Scene `json:"scenes,omitempty"`
}

// ConflictsResponse lists every detected conflict.
type ConflictsResponse struct {
	Conflicts []model.Conflict `json:"conflicts"`
	Total     int              `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}
