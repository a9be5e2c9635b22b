package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/shootplan/core/logger"
	"github.com/kilianp07/shootplan/core/model"
	"github.com/kilianp07/shootplan/core/runlog"
	"github.com/kilianp07/shootplan/core/scheduling"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes = 10 << 20

// Handler serves the scheduling API on top of a Manager.
type Handler struct {
	mgr      *scheduling.Manager
	token    string
	maxBody  int64
	validate *validator.Validate
	log      logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithToken requires "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(h *Handler) { h.token = token }
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithValidator replaces the request validator. Date support is
// registered on v.
func WithValidator(v *validator.Validate) Option {
	return func(h *Handler) {
		if v != nil {
			registerDate(v)
			h.validate = v
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.log = logger.OrNop(l) }
}

// NewHandler builds a Handler for mgr.
func NewHandler(mgr *scheduling.Manager, opts ...Option) (*Handler, error) {
	if mgr == nil {
		return nil, errors.New("schedule api: nil manager")
	}
	h := &Handler{
		mgr:      mgr,
		maxBody:  DefaultMaxBodyBytes,
		validate: NewValidator(),
		log:      logger.NopLogger{},
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Routes returns the API mux:
//
//	POST   /api/projects/{project}/schedule
//	POST   /api/projects/{project}/preview
//	POST   /api/projects/{project}/reschedule
//	POST   /api/projects/{project}/conflicts
//	POST   /api/projects/{project}/stats
//	PUT    /api/projects/{project}/scenes/{scene}/schedule
//	DELETE /api/projects/{project}/scenes/{scene}/schedule
//	GET    /api/schedule/runs
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/projects/{project}/schedule", h.schedule)
	mux.HandleFunc("POST /api/projects/{project}/preview", h.preview)
	mux.HandleFunc("POST /api/projects/{project}/reschedule", h.reschedule)
	mux.HandleFunc("POST /api/projects/{project}/conflicts", h.conflicts)
	mux.HandleFunc("POST /api/projects/{project}/stats", h.stats)
	mux.HandleFunc("PUT /api/projects/{project}/scenes/{scene}/schedule", h.setSceneDate)
	mux.HandleFunc("DELETE /api/projects/{project}/scenes/{scene}/schedule", h.unscheduleScene)
	mux.HandleFunc("GET /api/schedule/runs", h.runs)
	return h.auth(mux)
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" && r.Header.Get("Authorization") != "Bearer "+h.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.mgr.Schedule(r.Context(), req.Engine(project))
	if err != nil {
		h.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScheduleResponse{
		Result:       res,
		CostEstimate: scheduling.NewCostBook(req.CostRecords).EstimateCast(res.Schedule, req.Scenes),
		Scenes:       scheduling.ApplySchedule(req.Scenes, res.Schedule),
	})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}
	var req PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.mgr.Preview(r.Context(), scheduling.Request{
		ProjectID: project,
		Scenes:    scheduling.Unplanned(req.Scenes),
		Costs:     req.CostRecords,
		Mode:      scheduling.Mode(req.OptimizationMode),
	})
	if err != nil {
		h.engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) reschedule(w http.ResponseWriter, r *http.Request) {
	project, ok := projectID(w, r)
	if !ok {
		return
	}
	var req RescheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	res := h.mgr.Reschedule(r.Context(), req.Engine(project))
	if !res.Success {
		status := http.StatusUnprocessableEntity
		if res.Message == scheduling.MsgSceneNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, RescheduleResponse{RescheduleResult: res})
		return
	}
	writeJSON(w, http.StatusOK, RescheduleResponse{
		RescheduleResult: res,
		Scenes:           scheduling.ApplyReschedule(req.Scenes, req.SceneID, res, req.Reason),
	})
}

func (h *Handler) conflicts(w http.ResponseWriter, r *http.Request) {
	if _, ok := projectID(w, r); !ok {
		return
	}
	var req ConflictsRequest
	if !h.decode(w, r, &req) {
		return
	}
	cs := h.mgr.Engine().ListConflicts(req.Schedule, req.Scenes)
	if cs == nil {
		cs = []model.Conflict{}
	}
	writeJSON(w, http.StatusOK, ConflictsResponse{Conflicts: cs, Total: len(cs)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if _, ok := projectID(w, r); !ok {
		return
	}
	var req StatsRequest
	if !h.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, scheduling.ComputeStats(req.Scenes))
}

func (h *Handler) setSceneDate(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req SceneDateRequest
	if !h.decode(w, r, &req) {
		return
	}
	updateScene(w, req.Scenes, sceneID, func(s model.Scene) model.Scene {
		return scheduling.SetDate(s, req.ScheduledDate.Time)
	})
}

func (h *Handler) unscheduleScene(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req UnscheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	updateScene(w, req.Scenes, sceneID, scheduling.Unschedule)
}

func updateScene(w http.ResponseWriter, scenes []model.Scene, sceneID int, fn func(model.Scene) model.Scene) {
	out := append([]model.Scene(nil), scenes...)
	for i := range out {
		if out[i].ID != sceneID {
			continue
		}
		out[i] = fn(out[i])
		writeJSON(w, http.StatusOK, SceneUpdateResponse{Success: true, SceneID: sceneID, Scene: out[i], Scenes: out})
		return
	}
	writeError(w, http.StatusNotFound, "scene not found")
}

func (h *Handler) runs(w http.ResponseWriter, r *http.Request) {
	q, err := parseRunQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := h.mgr.Runs(r.Context(), q)
	if err != nil {
		h.log.Errorf("query runs: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []runlog.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func parseRunQuery(r *http.Request) (runlog.Query, error) {
	v := r.URL.Query()
	var q runlog.Query
	// A date-only end covers the whole day.
	for _, p := range []struct {
		key      string
		dst      *time.Time
		endOfDay bool
	}{{"start", &q.Start, false}, {"end", &q.End, true}} {
		s := v.Get(p.key)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			d, derr := ParseDate(s)
			if derr != nil {
				return q, fmt.Errorf("invalid %s: %q", p.key, s)
			}
			t = d.Time
			if p.endOfDay {
				t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
		}
		*p.dst = t
	}
	for _, p := range []struct {
		key string
		dst *int
	}{{"project_id", &q.ProjectID}, {"scene_id", &q.SceneID}} {
		s := v.Get(p.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %q", p.key, s)
		}
		*p.dst = n
	}
	q.Kind = runlog.Kind(v.Get("kind"))
	return q, nil
}

func projectID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("project"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid project id")
		return 0, false
	}
	return id, true
}

// pathIDs validates the project id and returns the scene id of the path.
func pathIDs(w http.ResponseWriter, r *http.Request) (int, bool) {
	if _, ok := projectID(w, r); !ok {
		return 0, false
	}
	id, err := strconv.Atoi(r.PathValue("scene"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrUnknownMode), errors.Is(err, scheduling.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Errorf("schedule: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
