package planner

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beq-project/beq/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mondayMorning is a fixed Monday 08:00 UTC reference point.
var mondayMorning = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func newHeuristic(now time.Time) *Heuristic {
	return NewHeuristic(&models.FixedClock{T: now}, testLogger())
}

func deadline(d time.Duration) *time.Time {
	t := mondayMorning.Add(d)
	return &t
}

func TestHeuristicPlanTwoTasks(t *testing.T) {
	// Work 09:00-17:00 UTC weekdays, lunch at noon, break every 90 minutes.
	h := newHeuristic(mondayMorning)

	result, err := h.Plan(context.Background(), Request{
		Tasks: []*models.Task{
			{ID: "t1", Title: "T1", EstimatedDurationMinutes: 90, Priority: models.PriorityHigh, Deadline: deadline(24 * time.Hour)},
			{ID: "t2", Title: "T2", EstimatedDurationMinutes: 30, Priority: models.PriorityLow},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 7,
	})
	require.NoError(t, err)

	require.Len(t, result.ScheduledEvents, 2)
	t1, t2 := result.ScheduledEvents[0], result.ScheduledEvents[1]
	assert.Equal(t, "t1", t1.TaskID)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), t1.StartTime)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), t1.EndTime)

	// A 15-minute break separates the first work chunk from the second.
	assert.Equal(t, "t2", t2.TaskID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 45, 0, 0, time.UTC), t2.StartTime)
	assert.Equal(t, time.Date(2024, 1, 15, 11, 15, 0, 0, time.UTC), t2.EndTime)

	assert.Empty(t, result.UnscheduledTaskIDs)
	assert.Empty(t, result.Warnings)
	// A fully scheduled, violation-free plan scores exactly 0.9.
	assert.Equal(t, 0.9, result.Confidence)
}

func TestHeuristicPlanIsDeterministic(t *testing.T) {
	req := Request{
		Tasks: []*models.Task{
			{ID: "a", Title: "A", EstimatedDurationMinutes: 60, Priority: models.PriorityMedium},
			{ID: "b", Title: "B", EstimatedDurationMinutes: 45, Priority: models.PriorityHigh},
			{ID: "c", Title: "C", EstimatedDurationMinutes: 30, Priority: models.PriorityLow, PreferredTime: models.PreferredAfternoon},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 7,
	}

	first, err := newHeuristic(mondayMorning).Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := newHeuristic(mondayMorning).Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHeuristicPlanEmptyTasks(t *testing.T) {
	result, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Preferences: models.DefaultPreferences(),
		HorizonDays: 7,
	})
	require.NoError(t, err)
	assert.Empty(t, result.ScheduledEvents)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestHeuristicPlanAvoidsExistingEvents(t *testing.T) {
	// Monday morning is fully booked; the task must land after the meeting.
	meeting := &models.Event{
		ID:        "meeting",
		Title:     "All hands",
		StartTime: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	result, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Tasks: []*models.Task{
			{ID: "t1", Title: "Focus work", EstimatedDurationMinutes: 60, Priority: models.PriorityHigh},
		},
		Events:      []*models.Event{meeting},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 1,
	})
	require.NoError(t, err)

	require.Len(t, result.ScheduledEvents, 1)
	placed := result.ScheduledEvents[0]
	assert.False(t, placed.StartTime.Before(meeting.EndTime) && placed.EndTime.After(meeting.StartTime),
		"scheduled task overlaps the existing meeting")
}

func TestHeuristicPlanRespectsHardConstraints(t *testing.T) {
	blockStart := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	blockEnd := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)

	result, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Tasks: []*models.Task{
			{ID: "t1", Title: "Anything", EstimatedDurationMinutes: 30},
		},
		Constraints: []*models.Constraint{
			{Type: "blocked", Start: &blockStart, End: &blockEnd, IsHard: true},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 0,
	})
	require.NoError(t, err)

	assert.Empty(t, result.ScheduledEvents)
	assert.Equal(t, []string{"t1"}, result.UnscheduledTaskIDs)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "t1")
}

func TestHeuristicPlanSkipsWeekends(t *testing.T) {
	saturday := time.Date(2024, 1, 13, 8, 0, 0, 0, time.UTC)

	result, err := newHeuristic(saturday).Plan(context.Background(), Request{
		Tasks: []*models.Task{
			{ID: "t1", Title: "Weekday work", EstimatedDurationMinutes: 60},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 3,
	})
	require.NoError(t, err)

	require.Len(t, result.ScheduledEvents, 1)
	placed := result.ScheduledEvents[0]
	assert.Equal(t, time.Monday, placed.StartTime.Weekday())
}

func TestHeuristicPlanOverflowLowersConfidence(t *testing.T) {
	// Ten 4-hour tasks cannot fit one work day.
	var tasks []*models.Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, &models.Task{
			ID:                       string(rune('a' + i)),
			Title:                    "Big task",
			EstimatedDurationMinutes: 240,
		})
	}

	result, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Tasks:       tasks,
		Preferences: models.DefaultPreferences(),
		HorizonDays: 0,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.UnscheduledTaskIDs)
	assert.Less(t, result.Confidence, 0.9)
	assert.GreaterOrEqual(t, result.Confidence, 0.3)
}

func TestHeuristicPlanGoalsShiftPlacement(t *testing.T) {
	req := Request{
		Tasks: []*models.Task{
			{ID: "t1", Title: "Writing", EstimatedDurationMinutes: 60, Priority: models.PriorityMedium},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 0,
	}

	base, err := newHeuristic(mondayMorning).Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, base.ScheduledEvents, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), base.ScheduledEvents[0].StartTime)

	req.Goals = []string{"protect afternoons for deep work"}
	shifted, err := newHeuristic(mondayMorning).Plan(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, shifted.ScheduledEvents, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC), shifted.ScheduledEvents[0].StartTime,
		"afternoon goal should move the task past lunch")
}

func TestWeightsFromGoals(t *testing.T) {
	w := weightsFromGoals([]string{"prefer mornings", "deep focus blocks", "reduce overlap"})
	assert.Equal(t, 25.0, w.morning)
	assert.Equal(t, 0.0, w.afternoon)
	assert.Equal(t, 15.0, w.focus)

	assert.Zero(t, weightsFromGoals(nil))
}

func TestHeuristicOrderTasks(t *testing.T) {
	early := mondayMorning.Add(4 * time.Hour)
	late := mondayMorning.Add(48 * time.Hour)

	ordered := orderTasks([]*models.Task{
		{ID: "low", Priority: models.PriorityLow, EstimatedDurationMinutes: 30},
		{ID: "urgent-late", Priority: models.PriorityUrgent, Deadline: &late, EstimatedDurationMinutes: 30},
		{ID: "urgent-early", Priority: models.PriorityUrgent, Deadline: &early, EstimatedDurationMinutes: 30},
		{ID: "high-long", Priority: models.PriorityHigh, EstimatedDurationMinutes: 120},
		{ID: "high-short", Priority: models.PriorityHigh, EstimatedDurationMinutes: 30},
	})

	ids := make([]string, len(ordered))
	for i, task := range ordered {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"urgent-early", "urgent-late", "high-long", "high-short", "low"}, ids)
}

func TestHeuristicPlanRejectsBadPreferences(t *testing.T) {
	prefs := models.DefaultPreferences()
	prefs.Timezone = "Mars/Olympus"

	_, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Tasks:       []*models.Task{{ID: "t1", Title: "T", EstimatedDurationMinutes: 30}},
		Preferences: prefs,
		HorizonDays: 1,
	})
	assert.Error(t, err)
}

func TestHeuristicTaskTooLongForAnySlot(t *testing.T) {
	// Longest uninterrupted chunk is break_frequency (90 min), so a
	// 300-minute task can never fit.
	result, err := newHeuristic(mondayMorning).Plan(context.Background(), Request{
		Tasks: []*models.Task{
			{ID: "marathon", Title: "Marathon", EstimatedDurationMinutes: 300},
		},
		Preferences: models.DefaultPreferences(),
		HorizonDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"marathon"}, result.UnscheduledTaskIDs)
}
