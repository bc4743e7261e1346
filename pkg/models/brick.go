package models

import (
	"fmt"
	"time"
)

// Brick is a durable goal owned by one user.
type Brick struct {
	ID                       string     `json:"id"`
	UserID                   string     `json:"user_id"`
	Title                    string     `json:"title"`
	Description              string     `json:"description,omitempty"`
	Category                 Category   `json:"category"`
	Priority                 Priority   `json:"priority"`
	Status                   Status     `json:"status"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	TargetDate               *time.Time `json:"target_date,omitempty"`
	Deadline                 *time.Time `json:"deadline,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// Validate checks the Brick invariants.
func (b *Brick) Validate() error {
	if b.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if n := len(b.Title); n < 1 || n > 200 {
		return fmt.Errorf("title must be 1-200 characters, got %d", n)
	}
	if !validCategories[b.Category] {
		return fmt.Errorf("unknown category %q", b.Category)
	}
	if !validPriorities[b.Priority] {
		return fmt.Errorf("unknown priority %q", b.Priority)
	}
	if !validStatuses[b.Status] {
		return fmt.Errorf("unknown status %q", b.Status)
	}
	if b.EstimatedDurationMinutes < 1 {
		return fmt.Errorf("estimated_duration_minutes must be >= 1, got %d", b.EstimatedDurationMinutes)
	}
	if b.TargetDate != nil && b.Deadline != nil && b.Deadline.Before(*b.TargetDate) {
		return fmt.Errorf("deadline %s is before target_date %s", b.Deadline, b.TargetDate)
	}
	return nil
}

// Quanta is a granular actionable step belonging to exactly one Brick.
type Quanta struct {
	ID                       string    `json:"id"`
	BrickID                  string    `json:"brick_id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description,omitempty"`
	Status                   Status    `json:"status"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	OrderIndex               int       `json:"order_index"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// Validate checks the Quanta invariants.
func (q *Quanta) Validate() error {
	if q.BrickID == "" {
		return fmt.Errorf("brick_id is required")
	}
	if q.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !validStatuses[q.Status] {
		return fmt.Errorf("unknown status %q", q.Status)
	}
	if q.EstimatedDurationMinutes < 1 || q.EstimatedDurationMinutes > 1440 {
		return fmt.Errorf("estimated_duration_minutes must be in [1, 1440], got %d", q.EstimatedDurationMinutes)
	}
	if q.OrderIndex < 0 {
		return fmt.Errorf("order_index must be >= 0, got %d", q.OrderIndex)
	}
	return nil
}

// Resource is an external learning/reference item surfaced to the user.
type Resource struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Topic     string    `json:"topic,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
