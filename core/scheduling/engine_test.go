package scheduling

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shootplan/core/model"
)

func TestSchedule_FillsDaysUpToCapacity(t *testing.T) {
	e := newTestEngine(t, Config{})
	var scenes []model.Scene
	for i := 1; i <= 6; i++ {
		scenes = append(scenes, indoor(i, "Studio A"))
	}
	res, err := e.Schedule(context.Background(), Request{
		Scenes: scenes,
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
		Mode:   ModeQuality,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Capacity)
	assert.Equal(t, []string{"2024-01-01", "2024-01-01", "2024-01-01", "2024-01-02", "2024-01-02", "2024-01-02"}, dates(res.Schedule))
	assert.Equal(t, 1, res.TotalDays)
	assert.Equal(t, day(t, "2024-01-02"), res.CompletionDate)
	assert.Empty(t, res.Conflicts)
	for _, a := range res.Schedule {
		assert.Equal(t, ReasonIndoor, a.WeatherNote)
		assert.Equal(t, model.DefaultDuration, a.EstimatedDuration)
	}
}

func TestSchedule_ModeCapacities(t *testing.T) {
	var scenes []model.Scene
	for i := 1; i <= 10; i++ {
		scenes = append(scenes, indoor(i, "Studio A"))
	}
	cases := []struct {
		mode     Mode
		capacity int
		days     int
	}{
		{ModeBalanced, 5, 2},
		{ModeCost, 5, 2},
		{ModeSpeed, 7, 2},
		{ModeQuality, 3, 4},
	}
	e := newTestEngine(t, Config{})
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			res, err := e.Schedule(context.Background(), Request{Scenes: scenes, Start: day(t, "2024-01-01"), End: day(t, "2024-03-01"), Mode: tc.mode})
			require.NoError(t, err)
			assert.Equal(t, tc.capacity, res.Capacity)
			distinct := map[string]bool{}
			for _, d := range dates(res.Schedule) {
				distinct[d] = true
			}
			assert.Len(t, distinct, tc.days)
			assert.Equal(t, tc.days-1, res.TotalDays)
		})
	}
}

func TestSchedule_ScenesPerDayOverride(t *testing.T) {
	e := newTestEngine(t, Config{ScenesPerDay: 1})
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{indoor(1, "A"), indoor(2, "A")},
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
		Mode:   ModeSpeed,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, dates(res.Schedule))
}

func TestSchedule_LargestClusterFirst(t *testing.T) {
	e := newTestEngine(t, Config{})
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{indoor(1, "Cafe"), indoor(2, "Warehouse"), indoor(3, "Warehouse"), indoor(4, "")},
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
		Mode:   ModeQuality,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1, 4}, sceneIDs(res.Schedule))
	assert.Equal(t, model.DefaultLocation, res.Schedule[3].Location)
}

func TestSchedule_CostModeGroupsBlockBilledActors(t *testing.T) {
	scenes := []model.Scene{indoor(1, "Studio"), indoor(2, "Studio", "Lead"), indoor(3, "Studio", "Extra")}
	costs := []model.CostRecord{
		{Name: "Lead", Category: model.CategoryActor, BillingCycle: model.BillingMonthly, Cost: 9000},
		{Name: "Extra", Category: model.CategoryActor, BillingCycle: model.BillingDaily, Cost: 100},
	}
	e := newTestEngine(t, Config{})
	req := Request{Scenes: scenes, Costs: costs, Start: day(t, "2024-01-01"), End: day(t, "2024-01-31")}

	req.Mode = ModeCost
	res, err := e.Schedule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, sceneIDs(res.Schedule))

	req.Mode = ModeQuality
	res, err = e.Schedule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sceneIDs(res.Schedule))
}

func TestSchedule_SkipsWeekends(t *testing.T) {
	e := newTestEngine(t, Config{SkipWeekends: true, ScenesPerDay: 1})
	// 2024-01-05 is a Friday.
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{indoor(1, "A"), indoor(2, "A")},
		Start:  day(t, "2024-01-05"),
		End:    day(t, "2024-01-31"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05", "2024-01-08"}, dates(res.Schedule))
	assert.Equal(t, 3, res.TotalDays)
}

func TestSchedule_TimelineExceeded(t *testing.T) {
	e := newTestEngine(t, Config{})
	var scenes []model.Scene
	for i := 1; i <= 4; i++ {
		scenes = append(scenes, indoor(i, "Studio"))
	}
	res, err := e.Schedule(context.Background(), Request{Scenes: scenes, Start: day(t, "2024-01-01"), End: day(t, "2024-01-01"), Mode: ModeQuality})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, sceneIDs(res.Schedule))
	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, model.ConflictTimelineExceeded, c.Type)
	assert.Equal(t, model.SeverityHigh, c.Severity)
	assert.Equal(t, []int{4}, c.SceneIDs)
	assert.Equal(t, "Cannot fit scene 4 within project timeline", c.Message)
	assert.GreaterOrEqual(t, res.TotalDays, 0)
	assert.Equal(t, res.TotalDays, model.DaysBetween(day(t, "2024-01-01"), res.CompletionDate))
}

func TestSchedule_EveryScenePlacedOrReported(t *testing.T) {
	e := newTestEngine(t, Config{})
	var scenes []model.Scene
	for i := 1; i <= 23; i++ {
		loc := []string{"A", "B", "C"}[i%3]
		scenes = append(scenes, indoor(i, loc))
	}
	res, err := e.Schedule(context.Background(), Request{Scenes: scenes, Start: day(t, "2024-01-01"), End: day(t, "2024-01-03"), Mode: ModeQuality})
	require.NoError(t, err)
	seen := map[int]int{}
	for _, a := range res.Schedule {
		seen[a.SceneID]++
	}
	for _, c := range res.Conflicts {
		if c.Type == model.ConflictTimelineExceeded {
			seen[c.SceneIDs[0]]++
		}
	}
	require.Len(t, seen, 23)
	for id, n := range seen {
		assert.Equal(t, 1, n, "scene %d", id)
	}
	assert.Len(t, res.Schedule, 9)
}

func TestSchedule_WeatherRetry(t *testing.T) {
	bad := map[string]bool{"2024-01-01": true, "2024-01-02": true}
	gate := WeatherGateFunc(func(_ context.Context, d time.Time, s model.Scene) (Verdict, error) {
		if !s.IsOutdoor() {
			return Verdict{Suitable: true, Reason: ReasonIndoor}, nil
		}
		if bad[d.Format(time.DateOnly)] {
			return Verdict{Suitable: false, Reason: ReasonRain}, nil
		}
		return Verdict{Suitable: true, Reason: ReasonSuitable}, nil
	})
	e := newTestEngine(t, Config{}, WithWeatherGate(gate))
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{outdoor(1, "Beach")},
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-03", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Equal(t, ReasonSuitable, res.Schedule[0].WeatherNote)
	assert.Equal(t, 2, res.WeatherRetries)
}

func TestSchedule_WeatherRetryLimit(t *testing.T) {
	never := WeatherGateFunc(func(context.Context, time.Time, model.Scene) (Verdict, error) {
		return Verdict{Suitable: false, Reason: ReasonRainySeason}, nil
	})
	e := newTestEngine(t, Config{WeatherRetryLimit: 3}, WithWeatherGate(never))
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{outdoor(1, "Beach")},
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-04", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Equal(t, ReasonRainySeason, res.Schedule[0].WeatherNote)
	assert.Equal(t, 3, res.WeatherRetries)
}

func TestSchedule_SeasonalGateDefersOutdoorScenes(t *testing.T) {
	e := newTestEngine(t, Config{WeatherRetryLimit: 200})
	// 2024-05-29 is day 150 of a leap year.
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{outdoor(1, "Field"), indoor(2, "Barn")},
		Start:  day(t, "2024-05-29"),
		End:    day(t, "2024-12-31"),
		Mode:   ModeQuality,
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 2)
	assert.Equal(t, "2024-09-07", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Equal(t, 101, res.WeatherRetries)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) Suitability(ctx context.Context, date time.Time, s model.Scene) (Verdict, error) {
	args := m.Called(ctx, date, s)
	return args.Get(0).(Verdict), args.Error(1)
}

func onDay(t *testing.T, s string) any {
	d := day(t, s)
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(d) })
}

func TestSchedule_ConsultsGateForEachAttempt(t *testing.T) {
	gate := &mockGate{}
	isBeach := mock.MatchedBy(func(s model.Scene) bool { return s.ID == 1 })
	gate.On("Suitability", mock.Anything, onDay(t, "2024-01-01"), isBeach).Return(Verdict{Reason: ReasonRain}, nil).Once()
	gate.On("Suitability", mock.Anything, onDay(t, "2024-01-02"), isBeach).Return(Verdict{Suitable: true, Reason: ReasonSuitable}, nil).Once()

	e := newTestEngine(t, Config{}, WithWeatherGate(gate))
	res, err := e.Schedule(context.Background(), Request{
		Scenes: []model.Scene{outdoor(1, "Beach")},
		Start:  day(t, "2024-01-01"),
		End:    day(t, "2024-01-31"),
	})
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-02", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Equal(t, ReasonSuitable, res.Schedule[0].WeatherNote)
	gate.AssertExpectations(t)
	gate.AssertNumberOfCalls(t, "Suitability", 2)
}

func TestSchedule_WeatherFailurePolicy(t *testing.T) {
	failing := WeatherGateFunc(func(context.Context, time.Time, model.Scene) (Verdict, error) {
		return Verdict{}, errors.New("provider down")
	})
	req := Request{Scenes: []model.Scene{outdoor(1, "Beach")}, Start: day(t, "2024-01-01"), End: day(t, "2024-01-31")}

	e := newTestEngine(t, Config{}, WithWeatherGate(failing))
	res, err := e.Schedule(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-01", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.True(t, strings.HasSuffix(res.Schedule[0].WeatherNote, "(degraded confidence)"))
	assert.Equal(t, 1, res.DegradedWeather)

	e = newTestEngine(t, Config{WeatherFailurePolicy: AssumeUnsuitable, WeatherRetryLimit: 2}, WithWeatherGate(failing))
	res, err = e.Schedule(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Schedule, 1)
	assert.Equal(t, "2024-01-03", res.Schedule[0].ScheduledDate.Format(time.DateOnly))
	assert.Contains(t, res.Schedule[0].WeatherNote, "assumed unsuitable")
	assert.Equal(t, 3, res.DegradedWeather)
}

func TestSchedule_ActorOverloadReported(t *testing.T) {
	e := newTestEngine(t, Config{})
	var scenes []model.Scene
	for i := 1; i <= 4; i++ {
		scenes = append(scenes, indoor(i, "Loft", "Jane"))
	}
	res, err := e.Schedule(context.Background(), Request{Scenes: scenes, Start: day(t, "2024-01-01"), End: day(t, "2024-01-31"), Mode: ModeBalanced})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, model.ConflictActorOverload, res.Conflicts[0].Type)
	assert.Equal(t, "Jane", res.Conflicts[0].Actor)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, res.Conflicts[0].SceneIDs)
}

func TestSchedule_EmptyInput(t *testing.T) {
	e := newTestEngine(t, Config{})
	res, err := e.Schedule(context.Background(), Request{Start: day(t, "2024-01-01"), End: day(t, "2024-01-31")})
	require.NoError(t, err)
	assert.NotNil(t, res.Schedule)
	assert.Empty(t, res.Schedule)
	assert.NotNil(t, res.Conflicts)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 0, res.TotalDays)
	assert.Equal(t, day(t, "2024-01-01"), res.CompletionDate)
}

func TestSchedule_InvalidRequests(t *testing.T) {
	e := newTestEngine(t, Config{})
	_, err := e.Schedule(context.Background(), Request{Start: day(t, "2024-02-01"), End: day(t, "2024-01-01")})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = e.Schedule(context.Background(), Request{Start: day(t, "2024-01-01"), End: day(t, "2024-01-02"), Mode: "fastest"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSchedule_Cancelled(t *testing.T) {
	e := newTestEngine(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Schedule(ctx, Request{Scenes: []model.Scene{indoor(1, "A")}, Start: day(t, "2024-01-01"), End: day(t, "2024-01-02")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchedule_DuplicateScenesKeptOnce(t *testing.T) {
	e := newTestEngine(t, Config{})
	first := indoor(1, "A")
	dup := indoor(1, "B")
	res, err := e.Schedule(context.Background(), Request{Scenes: []model.Scene{first, dup, indoor(2, "A")}, Start: day(t, "2024-01-01"), End: day(t, "2024-01-31")})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, sceneIDs(res.Schedule))
	assert.Equal(t, "A", res.Schedule[0].Location)
}

func TestSchedule_Deterministic(t *testing.T) {
	e := newTestEngine(t, Config{SkipWeekends: true})
	scenes := []model.Scene{
		outdoor(1, "Beach", "Jane"), indoor(2, "Loft", "Sam"), indoor(3, "Loft", "Jane", "Sam"),
		outdoor(4, "Park"), indoor(5, "Beach"), indoor(6, "Loft"),
	}
	costs := []model.CostRecord{{Name: "Jane", BillingCycle: model.BillingWeekly, Cost: 500}}
	req := Request{Scenes: scenes, Costs: costs, Start: day(t, "2024-01-01"), End: day(t, "2024-02-01"), Mode: ModeCost}
	a, err := e.Schedule(context.Background(), req)
	require.NoError(t, err)
	b, err := e.Schedule(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPreview(t *testing.T) {
	e := newTestEngine(t, Config{ScenesPerDay: 1})
	var scenes []model.Scene
	for i := 1; i <= 3; i++ {
		scenes = append(scenes, indoor(i, "A", "Jane"))
	}
	now := time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC)
	p, err := e.Preview(context.Background(), Request{Scenes: scenes}, now)
	require.NoError(t, err)
	assert.Equal(t, ModeBalanced, p.Mode)
	assert.Equal(t, 3, p.TotalScenes)
	assert.Equal(t, day(t, "2024-01-09"), p.CompletionDate)
	assert.Equal(t, 4, p.EstimatedDays)
	assert.Equal(t, 0, p.PotentialConflicts)
	assert.False(t, e.Config().SkipWeekends)
}

func TestPreview_ConflictListCapped(t *testing.T) {
	e := newTestEngine(t, Config{ScenesPerDay: 1})
	var scenes []model.Scene
	for i := 1; i <= 400; i++ {
		scenes = append(scenes, indoor(i, "A"))
	}
	p, err := e.Preview(context.Background(), Request{Scenes: scenes}, day(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Greater(t, p.PotentialConflicts, previewConflictLimit)
	assert.Len(t, p.ConflictsPreview, previewConflictLimit)
}

func TestListConflicts(t *testing.T) {
	e := newTestEngine(t, Config{OverloadThreshold: 1})
	scenes := []model.Scene{indoor(1, "Loft", "Jane"), indoor(2, "Loft", "Jane")}
	d := day(t, "2024-01-01")
	schedule := []model.Assignment{
		{SceneID: 1, Location: "Loft", ScheduledDate: d},
		{SceneID: 2, Location: "Loft", ScheduledDate: d},
	}
	out := e.ListConflicts(schedule, scenes)
	require.Len(t, out, 2)
	assert.Equal(t, model.ConflictLocationOverlap, out[0].Type)
	assert.Equal(t, model.ConflictActorOverload, out[1].Type)
}
