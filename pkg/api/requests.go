package api

import (
	"time"

	"github.com/beq-project/beq/pkg/conflict"
	"github.com/beq-project/beq/pkg/models"
)

// ChatRequest is the body of POST /api/v1/chat. A missing conversation_id
// starts a new conversation; the id comes back in the response.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message" binding:"required"`
}

// GenerateScheduleRequest is the body of POST /api/v1/schedule/generate.
type GenerateScheduleRequest struct {
	Tasks       []*models.Task       `json:"tasks" binding:"required"`
	Events      []*models.Event      `json:"existing_events,omitempty"`
	Preferences *models.Preferences  `json:"preferences,omitempty"`
	Constraints []*models.Constraint `json:"constraints,omitempty"`
	HorizonDays int                  `json:"horizon_days,omitempty"`
}

// SyncCalendarRequest is the body of POST /api/v1/calendar/sync.
type SyncCalendarRequest struct {
	CalendarID  string     `json:"calendar_id,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	AutoResolve bool       `json:"auto_resolve,omitempty"`
}

// ResolveConflictsRequest is the body of POST /api/v1/conflicts/resolve.
// The caller supplies the event set the conflicts were detected over; the
// engine re-derives the conflicts (ids are deterministic) and applies the
// requested strategies.
type ResolveConflictsRequest struct {
	Events      []*models.Event     `json:"events" binding:"required"`
	Resolutions []RequestedStrategy `json:"resolutions" binding:"required"`
}

// RequestedStrategy names one conflict and how to resolve it.
type RequestedStrategy struct {
	ConflictID   string               `json:"conflict_id" binding:"required"`
	Strategy     conflict.Strategy    `json:"strategy" binding:"required"`
	UserDecision *conflict.UserChoice `json:"user_decision,omitempty"`
}
