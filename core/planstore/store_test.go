package planstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltplan/voltplan/core/model"
)

func vienna(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("Europe/Vienna")
	require.NoError(t, err)
	return tz
}

func testPlan(tz *time.Location) (time.Time, model.Plan) {
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, tz)
	return day, model.Plan{Info: model.PlanOptimal, Events: []model.Event{
		{Time: day.Add(6 * time.Hour), State: model.StateOn},
		{Time: day.Add(9 * time.Hour), State: model.StateOff},
	}}
}

func TestSaveReadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	day, plan := testPlan(vienna(t))

	assert.False(t, s.Exists("boiler", day))
	require.NoError(t, s.Save("boiler", day, plan))
	assert.True(t, s.Exists("boiler", day))

	got, err := s.Read("boiler", day)
	require.NoError(t, err)
	assert.Equal(t, plan.Info, got.Info)
	require.Len(t, got.Events, 2)
	for i := range plan.Events {
		assert.True(t, got.Events[i].Time.Equal(plan.Events[i].Time),
			"event %d: %s != %s", i, got.Events[i].Time, plan.Events[i].Time)
		assert.Equal(t, plan.Events[i].State, got.Events[i].State)
	}
}

func TestReadNotFound(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Read("boiler", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestSaveRejectsInvalidPlan(t *testing.T) {
	s := NewStore(t.TempDir())
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	err := s.Save("boiler", day, model.Plan{Info: model.PlanOptimal})
	assert.Error(t, err)
	assert.False(t, s.Exists("boiler", day))
}

func TestStateAt(t *testing.T) {
	s := NewStore(t.TempDir())
	day, plan := testPlan(vienna(t))
	require.NoError(t, s.Save("boiler", day, plan))

	state, err := s.StateAt("boiler", day.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.StateOff, state)

	state, err = s.StateAt("boiler", day.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.StateOn, state)

	state, err = s.StateAt("boiler", day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.StateOff, state)

	_, err = s.StateAt("other", day)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestInfoAt(t *testing.T) {
	s := NewStore(t.TempDir())
	day, plan := testPlan(vienna(t))
	plan.Info = model.PlanFallback
	require.NoError(t, s.Save("boiler", day, plan))

	info, err := s.InfoAt("boiler", day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.PlanFallback, info)
}
