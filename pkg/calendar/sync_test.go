package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beq-project/beq/pkg/conflict"
	"github.com/beq-project/beq/pkg/models"
)

// fakeProvider serves canned events.
type fakeProvider struct {
	events []*models.Event
	err    error
}

func (f *fakeProvider) ListEvents(context.Context, string, time.Time, time.Time) ([]*models.Event, error) {
	return f.events, f.err
}
func (f *fakeProvider) CreateEvent(_ context.Context, _ string, e *models.Event) (*models.Event, error) {
	return e, nil
}
func (f *fakeProvider) UpdateEvent(_ context.Context, _ string, e *models.Event) (*models.Event, error) {
	return e, nil
}
func (f *fakeProvider) DeleteEvent(context.Context, string, string) error { return nil }
func (f *fakeProvider) ListCalendars(context.Context) ([]Calendar, error) { return nil, nil }
func (f *fakeProvider) ValidateCredentials(context.Context) error         { return nil }

func externalEvent(id string, start, end time.Time) *models.Event {
	return &models.Event{
		ID:         id,
		ExternalID: "ext-" + id,
		Title:      id,
		StartTime:  start,
		EndTime:    end,
		Source:     models.SourceExternal,
	}
}

func TestSyncDetectsConflicts(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{events: []*models.Event{
		externalEvent("meeting", base, base.Add(time.Hour)),
	}}
	managed := []*models.Event{{
		ID:        "focus",
		UserID:    "user-1",
		Title:     "Focus block",
		StartTime: base.Add(30 * time.Minute),
		EndTime:   base.Add(90 * time.Minute),
		Source:    models.SourceManaged,
		Priority:  models.PriorityLow,
	}}

	svc := NewSyncService(provider, &models.FixedClock{T: base}, testLogger())
	summary, err := svc.Sync(context.Background(), "user-1", "primary",
		base.AddDate(0, 0, -1), base.AddDate(0, 0, 7), managed, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pulled)
	require.Len(t, summary.Events, 1)
	// Pulled events are stamped with the syncing user.
	assert.Equal(t, "user-1", summary.Events[0].UserID)
	require.Len(t, summary.Conflicts, 1)
	assert.Empty(t, summary.Resolutions)
	assert.Equal(t, base, summary.SyncedAt)
}

func TestSyncAutoResolves(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	provider := &fakeProvider{events: []*models.Event{
		externalEvent("a", base, base.Add(time.Hour)),
		externalEvent("b", base.Add(30*time.Minute), base.Add(90*time.Minute)),
	}}

	svc := NewSyncService(provider, models.SystemClock{}, testLogger())
	summary, err := svc.Sync(context.Background(), "user-1", "primary",
		base.AddDate(0, 0, -1), base.AddDate(0, 0, 7), nil, true)
	require.NoError(t, err)

	require.Len(t, summary.Conflicts, 1)
	require.Len(t, summary.Resolutions, 1)
	assert.Equal(t, conflict.KeepExisting, summary.Resolutions[0].Strategy)
}

func TestSyncExpandsRecurringEvents(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	standup := externalEvent("standup", base, base.Add(30*time.Minute))
	standup.RecurrenceRule = "weekly"
	provider := &fakeProvider{events: []*models.Event{standup}}

	// A managed block collides with next week's occurrence only.
	managed := []*models.Event{{
		ID:        "deep-work",
		UserID:    "user-1",
		Title:     "Deep work",
		StartTime: base.AddDate(0, 0, 7),
		EndTime:   base.AddDate(0, 0, 7).Add(time.Hour),
		Source:    models.SourceManaged,
	}}

	svc := NewSyncService(provider, &models.FixedClock{T: base}, testLogger())
	summary, err := svc.Sync(context.Background(), "user-1", "primary",
		base.AddDate(0, 0, -1), base.AddDate(0, 0, 14), managed, false)
	require.NoError(t, err)

	require.Len(t, summary.Conflicts, 1)
	assert.Contains(t, summary.Conflicts[0].EventIDs(), "standup_20240122")
}

func TestSyncNoEvents(t *testing.T) {
	svc := NewSyncService(&fakeProvider{}, models.SystemClock{}, testLogger())
	summary, err := svc.Sync(context.Background(), "user-1", "primary",
		time.Now(), time.Now().AddDate(0, 0, 7), nil, true)
	require.NoError(t, err)
	assert.Zero(t, summary.Pulled)
	assert.Empty(t, summary.Conflicts)
}

func TestSyncProviderError(t *testing.T) {
	svc := NewSyncService(&fakeProvider{err: errors.New("quota exceeded")}, models.SystemClock{}, testLogger())
	_, err := svc.Sync(context.Background(), "user-1", "primary",
		time.Now(), time.Now().AddDate(0, 0, 7), nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
