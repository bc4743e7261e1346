package models

import (
	"fmt"
	"time"
)

// Event is a time-bounded occurrence, either externally sourced from a
// calendar provider or produced by the orchestrator.
type Event struct {
	ID             string      `json:"id"`
	UserID         string      `json:"user_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	IsAllDay       bool        `json:"is_all_day"`
	Source         EventSource `json:"source"`
	ExternalID     string      `json:"external_id,omitempty"`
	IsMoveable     bool        `json:"is_moveable"`
	RecurrenceRule string      `json:"recurrence_rule,omitempty"`
	Priority       Priority    `json:"priority,omitempty"`
	Timezone       string      `json:"timezone,omitempty"`
}

// Validate checks the Event invariants.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !e.IsAllDay && !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

// Span returns the effective [start, end) interval. All-day events span
// [midnight, next midnight) in the event's timezone.
func (e *Event) Span() (time.Time, time.Time) {
	if !e.IsAllDay {
		return e.StartTime, e.EndTime
	}
	loc := time.UTC
	if e.Timezone != "" {
		if l, err := time.LoadLocation(e.Timezone); err == nil {
			loc = l
		}
	}
	local := e.StartTime.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day, day.AddDate(0, 0, 1)
}

// Overlaps reports whether two events share any time. Touching boundaries
// (end == start) do not overlap.
func (e *Event) Overlaps(other *Event) bool {
	s1, e1 := e.Span()
	s2, e2 := other.Span()
	return s1.Before(e2) && e1.After(s2)
}

// EffectivePriority returns the event's priority, defaulting to medium.
func (e *Event) EffectivePriority() Priority {
	if e.Priority == "" {
		return PriorityMedium
	}
	return e.Priority
}
