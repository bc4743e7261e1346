// Package calendar integrates external calendar providers. The Provider
// interface isolates the rest of the system from any concrete vendor; the
// Google implementation speaks the Calendar v3 REST API.
package calendar

import (
	"context"
	"time"

	"github.com/beq-project/beq/pkg/models"
)

// Calendar is one calendar visible to the connected account.
type Calendar struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Primary  bool   `json:"primary,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Provider is the external calendar boundary. Implementations must be safe
// for concurrent use.
type Provider interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*models.Event, error)
	CreateEvent(ctx context.Context, calendarID string, event *models.Event) (*models.Event, error)
	UpdateEvent(ctx context.Context, calendarID string, event *models.Event) (*models.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListCalendars(ctx context.Context) ([]Calendar, error)
	// ValidateCredentials verifies the stored credentials still work,
	// refreshing tokens if needed.
	ValidateCredentials(ctx context.Context) error
}
