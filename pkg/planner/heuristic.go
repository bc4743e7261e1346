package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// Heuristic places tasks by fitness scoring over carved free slots. Given
// the same inputs and clock it always produces the same plan.
type Heuristic struct {
	clock  models.Clock
	logger *slog.Logger
}

// NewHeuristic creates the deterministic planner.
func NewHeuristic(clock models.Clock, logger *slog.Logger) *Heuristic {
	return &Heuristic{clock: clock, logger: logger.With("component", "planner.heuristic")}
}

func (h *Heuristic) Plan(_ context.Context, req Request) (*Result, error) {
	now := h.clock.Now()
	result := &Result{}

	if len(req.Tasks) == 0 {
		result.Confidence = 1.0
		result.Reasoning = "no tasks to schedule"
		return result, nil
	}
	if err := req.Preferences.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}

	slots := candidateSlots(now, req.HorizonDays, req.Events, req.Preferences, req.Constraints)
	tasks := orderTasks(req.Tasks)
	weights := weightsFromGoals(req.Goals)

	for _, task := range tasks {
		idx := h.bestSlot(task, slots, now, req.Preferences, weights)
		if idx < 0 {
			result.UnscheduledTaskIDs = append(result.UnscheduledTaskIDs, task.ID)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("task %q (%s) does not fit in the next %d days", task.Title, task.ID, req.HorizonDays))
			continue
		}
		chosen := slots[idx]
		duration := time.Duration(task.EstimatedDurationMinutes) * time.Minute
		result.ScheduledEvents = append(result.ScheduledEvents, ScheduledEvent{
			TaskID:    task.ID,
			Title:     task.Title,
			StartTime: chosen.start,
			EndTime:   chosen.start.Add(duration),
		})

		// Consume the front of the slot; re-insert a usable remainder.
		remainder := slot{chosen.start.Add(duration), chosen.end}
		slots = append(slots[:idx], slots[idx+1:]...)
		if remainder.minutes() >= minSlotMinutes {
			slots = insertSorted(slots, remainder)
		}
	}

	scheduled := len(result.ScheduledEvents)
	violations := countSoftViolations(result.ScheduledEvents, req.Preferences, req.Constraints)
	result.Confidence = confidence(scheduled, len(req.Tasks), violations)
	result.Reasoning = fmt.Sprintf(
		"placed %d of %d tasks over %d days by priority, deadline, and slot fitness",
		scheduled, len(req.Tasks), req.HorizonDays)

	h.logger.Debug("heuristic plan complete",
		"scheduled", scheduled,
		"unscheduled", len(result.UnscheduledTaskIDs),
		"confidence", result.Confidence)
	return result, nil
}

// orderTasks sorts by priority rank, then deadline (absent last), then
// longest first. The sort is stable so equal tasks keep input order.
func orderTasks(tasks []*models.Task) []*models.Task {
	out := append([]*models.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := deadlineOrInf(out[i]), deadlineOrInf(out[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].EstimatedDurationMinutes > out[j].EstimatedDurationMinutes
	})
	return out
}

var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

func deadlineOrInf(t *models.Task) time.Time {
	if t.Deadline != nil {
		return *t.Deadline
	}
	return farFuture
}

// goalWeights are fitness adjustments derived from free-form goals.
type goalWeights struct {
	morning   float64
	afternoon float64
	focus     float64
}

// weightsFromGoals maps recognized goal phrases to slot-fitness shifts.
// "morning" biases placement before noon, "afternoon"/"evening" after it,
// and "focus"/"deep" raises the reward for roomy slots. Anything else has
// no scoring effect.
func weightsFromGoals(goals []string) goalWeights {
	var w goalWeights
	for _, g := range goals {
		g = strings.ToLower(g)
		if strings.Contains(g, "morning") {
			w.morning += 25
		}
		if strings.Contains(g, "afternoon") || strings.Contains(g, "evening") {
			w.afternoon += 25
		}
		if strings.Contains(g, "focus") || strings.Contains(g, "deep") {
			w.focus += 15
		}
	}
	return w
}

// bestSlot returns the index of the highest-scoring slot that fits the
// task, or -1. Slots are kept in start order, so on equal scores the
// earliest slot wins.
func (h *Heuristic) bestSlot(task *models.Task, slots []slot, now time.Time, prefs models.Preferences, weights goalWeights) int {
	best := -1
	bestScore := math.Inf(-1)
	for i, s := range slots {
		if s.minutes() < task.EstimatedDurationMinutes {
			continue
		}
		if score := fitness(task, s, now, prefs, weights); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// fitness scores a slot for a task. Higher is better.
func fitness(task *models.Task, s slot, now time.Time, prefs models.Preferences, weights goalWeights) float64 {
	score := 0.0

	if task.Deadline != nil {
		hoursLeft := task.Deadline.Sub(now).Hours()
		if hoursLeft < 0 {
			hoursLeft = 0
		}
		score += 100 / (1 + hoursLeft/24)
	}

	loc := prefs.Location()
	localStart := s.start.In(loc)
	slotHour := float64(localStart.Hour()) + float64(localStart.Minute())/60

	if task.PreferredTime != "" {
		score += 50 / (1 + math.Abs(float64(task.PreferredTime.Hour())-slotHour))
	}

	score += float64(11-task.Priority.Rank()) * 10

	if (task.Priority == models.PriorityHigh || task.Priority == models.PriorityUrgent) && localStart.Hour() < 12 {
		score += 20
	}

	if localStart.Hour() < 12 {
		score += weights.morning
	} else {
		score += weights.afternoon
	}

	if float64(s.minutes()) >= 1.5*float64(task.EstimatedDurationMinutes) {
		score += 10 + weights.focus
	}
	return score
}

func insertSorted(slots []slot, s slot) []slot {
	i := sort.Search(len(slots), func(i int) bool { return slots[i].start.After(s.start) })
	slots = append(slots, slot{})
	copy(slots[i+1:], slots[i:])
	slots[i] = s
	return slots
}
