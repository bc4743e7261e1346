package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/beq-project/beq/pkg/conflict"
	"github.com/beq-project/beq/pkg/models"
)

// SyncSummary reports one synchronization pass.
type SyncSummary struct {
	CalendarID  string                `json:"calendar_id"`
	Pulled      int                   `json:"pulled"`
	Events      []*models.Event       `json:"events"`
	Conflicts   []conflict.Conflict   `json:"conflicts,omitempty"`
	Resolutions []conflict.Resolution `json:"resolutions,omitempty"`
	SkippedIDs  []string              `json:"skipped_ids,omitempty"`
	SyncedAt    time.Time             `json:"synced_at"`
}

// SyncService pulls external events, normalizes them, and runs conflict
// detection against the caller's managed events.
type SyncService struct {
	provider Provider
	rules    conflict.Rules
	clock    models.Clock
	logger   *slog.Logger
}

// NewSyncService wires a sync service over a provider.
func NewSyncService(provider Provider, clock models.Clock, logger *slog.Logger) *SyncService {
	return &SyncService{
		provider: provider,
		rules:    conflict.DefaultRules(),
		clock:    clock,
		logger:   logger.With("component", "calendar.sync"),
	}
}

// Sync pulls events from the calendar in [from, to), merges them with the
// given managed events, and detects conflicts. With autoResolve, the default
// rules are applied and the resulting resolutions returned; the caller
// persists any changes.
func (s *SyncService) Sync(ctx context.Context, userID, calendarID string, from, to time.Time, managed []*models.Event, autoResolve bool) (*SyncSummary, error) {
	external, err := s.provider.ListEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("pulling calendar %s: %w", calendarID, err)
	}
	for _, e := range external {
		e.UserID = userID
	}

	all := append([]*models.Event(nil), managed...)
	all = append(all, expandRecurring(external, from, to)...)
	window := &conflict.Window{Start: from, End: to}
	report := conflict.Detect(all, window)

	summary := &SyncSummary{
		CalendarID: calendarID,
		Pulled:     len(external),
		Events:     external,
		Conflicts:  report.Conflicts,
		SkippedIDs: report.SkippedIDs,
		SyncedAt:   s.clock.Now(),
	}
	if autoResolve {
		summary.Resolutions = conflict.AutoResolve(report.Conflicts, s.rules)
	}

	s.logger.Info("calendar sync complete",
		"calendar_id", calendarID,
		"pulled", summary.Pulled,
		"conflicts", len(summary.Conflicts),
		"auto_resolved", len(summary.Resolutions))
	return summary, nil
}

// expandRecurring widens recurring pulled events into their occurrences
// inside the sync window, so a weekly standup conflicts with every week's
// clash, not just the first.
func expandRecurring(events []*models.Event, from, to time.Time) []*models.Event {
	out := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if e.RecurrenceRule == "" {
			out = append(out, e)
			continue
		}
		for _, occ := range models.ExpandRecurrence(*e, from, to) {
			occ := occ
			out = append(out, &occ)
		}
	}
	return out
}
