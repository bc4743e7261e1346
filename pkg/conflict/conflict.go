// Package conflict detects scheduling conflicts between calendar events and
// resolves them by strategy. The engine is pure: it holds no state, performs
// no I/O, and the same input always yields the same conflict set by id.
package conflict

import (
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// Type classifies a detected conflict.
type Type string

const (
	TypeTimeOverlap   Type = "time_overlap"
	TypePriority      Type = "priority"
	TypeRecurring     Type = "recurring"
	TypeDoubleBooking Type = "double_booking"
	// TypeResource covers clashes over a shared resource (a room, a
	// person). Detection over bare calendar events never emits it; it is
	// part of the canonical kind set for callers that classify externally.
	TypeResource Type = "resource"
)

// Severity ranks how urgently a conflict needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Strategy names a resolution approach.
type Strategy string

const (
	KeepExisting          Strategy = "keep_existing"
	ReplaceWithNew        Strategy = "replace_with_new"
	MergeEvents           Strategy = "merge_events"
	MoveToAlternativeTime Strategy = "move_to_alternative_time"
	SplitEvent            Strategy = "split_event"
	CancelEvent           Strategy = "cancel_event"
	UserDecision          Strategy = "user_decision"
)

// allStrategies is the allowed superset for every conflict kind.
var allStrategies = []Strategy{
	KeepExisting, ReplaceWithNew, MergeEvents,
	MoveToAlternativeTime, SplitEvent, CancelEvent, UserDecision,
}

// Conflict is one detected clash between two or more events. Events are
// ordered by start time with a stable id tie-break, so Events[0] is the
// earliest-started event and Events[len-1] the latest.
type Conflict struct {
	ID          string          `json:"id"`
	Type        Type            `json:"type"`
	Severity    Severity        `json:"severity"`
	Events      []*models.Event `json:"events"`
	Description string          `json:"description"`
	Suggested   Strategy        `json:"suggested_strategy"`
	Allowed     []Strategy      `json:"allowed_strategies"`
	// Metadata carries derived facts about the clash, e.g.
	// "overlap_duration" in minutes for two-event conflicts.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EventIDs returns the ids of the conflicting events in start order.
func (c *Conflict) EventIDs() []string {
	ids := make([]string, len(c.Events))
	for i, e := range c.Events {
		ids[i] = e.ID
	}
	return ids
}

// Allows reports whether the strategy is permitted for this conflict.
func (c *Conflict) Allows(s Strategy) bool {
	for _, a := range c.Allowed {
		if a == s {
			return true
		}
	}
	return false
}

// Report is the result of one detection pass. SkippedIDs lists events that
// could not be interval-compared (zero or inverted timestamps).
type Report struct {
	Conflicts  []Conflict `json:"conflicts"`
	SkippedIDs []string   `json:"skipped_ids,omitempty"`
}

// Window restricts detection to events intersecting [Start, End).
// A nil Window compares events whose starts lie within one day of each other.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Resolution is the outcome of applying a strategy to a conflict.
type Resolution struct {
	ConflictID string `json:"conflict_id"`
	Strategy   Strategy `json:"strategy"`
	// Kept holds the events that survive, including any merged or split
	// replacements the strategy produced.
	Kept         []*models.Event `json:"kept"`
	DiscardedIDs []string        `json:"discarded_ids,omitempty"`
	// RescheduleIDs are events flagged for re-planning by the schedule
	// planner; the engine does not pick new times itself.
	RescheduleIDs []string `json:"reschedule_ids,omitempty"`
}

// UserChoice is an explicit keep/discard decision supplied by the caller
// for the user_decision and cancel_event strategies.
type UserChoice struct {
	Keep    []string `json:"keep,omitempty"`
	Discard []string `json:"discard,omitempty"`
}
