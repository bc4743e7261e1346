// Package planner turns tasks into concrete schedule proposals. Two engines
// share one contract: a deterministic heuristic placer and an LLM-backed
// planner that falls back to the heuristic when the model output is
// unusable. Neither engine mutates stored state; callers persist results.
package planner

import (
	"context"
	"math"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// Request carries everything a planning pass needs.
type Request struct {
	UserID      string               `json:"user_id"`
	Tasks       []*models.Task       `json:"tasks"`
	Events      []*models.Event      `json:"existing_events"`
	Preferences models.Preferences   `json:"preferences"`
	Constraints []*models.Constraint `json:"constraints,omitempty"`
	HorizonDays int                  `json:"horizon_days"`
	// Goals are free-form optimization hints ("protect afternoons for
	// deep work"). Recognized phrases shift slot fitness weights;
	// unrecognized ones are ignored.
	Goals []string `json:"goals,omitempty"`
}

// ScheduledEvent is one placed task in a plan.
type ScheduledEvent struct {
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Result is the outcome of a planning pass. Confidence is in [0, 1].
type Result struct {
	ScheduledEvents    []ScheduledEvent `json:"scheduled_events"`
	UnscheduledTaskIDs []string         `json:"unscheduled_task_ids,omitempty"`
	Warnings           []string         `json:"warnings,omitempty"`
	Reasoning          string           `json:"reasoning"`
	Confidence         float64          `json:"confidence"`
}

// Planner produces a schedule proposal for the request.
type Planner interface {
	Plan(ctx context.Context, req Request) (*Result, error)
}

// confidence applies the shared scoring formula: a 0.3 floor, up to 0.6 for
// the scheduled fraction, minus up to 0.1 for soft-constraint violations.
func confidence(scheduled, total, softViolations int) float64 {
	if total == 0 {
		return 1.0
	}
	fraction := float64(scheduled) / float64(total)
	violationRatio := 0.0
	if scheduled > 0 {
		violationRatio = float64(softViolations) / float64(scheduled)
	}
	// Round to 4 decimals so boundary scores are exact: 0.3 + 0.6*1.0
	// otherwise lands at 0.8999... and misses the 0.9 threshold.
	c := math.Round((0.3+0.6*fraction-0.1*violationRatio)*1e4) / 1e4
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// countSoftViolations counts scheduled events that land inside a
// soft-constraint block or after the user's avoid-after time.
func countSoftViolations(events []ScheduledEvent, prefs models.Preferences, constraints []*models.Constraint) int {
	loc := prefs.Location()
	violations := 0
	for _, ev := range events {
		violated := false
		for _, c := range constraints {
			if c.IsHard || !c.Blocks() {
				continue
			}
			if ev.StartTime.Before(*c.End) && ev.EndTime.After(*c.Start) {
				violated = true
				break
			}
		}
		if !violated && prefs.AvoidAfter != nil {
			start := ev.StartTime.In(loc)
			if start.Hour()*60+start.Minute() >= prefs.AvoidAfter.Minutes() {
				violated = true
			}
		}
		if violated {
			violations++
		}
	}
	return violations
}
