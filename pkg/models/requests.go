package models

import "time"

// CreateBrickRequest contains fields for creating a Brick.
type CreateBrickRequest struct {
	UserID                   string     `json:"user_id"`
	Title                    string     `json:"title"`
	Description              string     `json:"description,omitempty"`
	Category                 Category   `json:"category"`
	Priority                 Priority   `json:"priority"`
	EstimatedDurationMinutes int        `json:"estimated_duration_minutes"`
	TargetDate               *time.Time `json:"target_date,omitempty"`
	Deadline                 *time.Time `json:"deadline,omitempty"`
}

// UpdateBrickRequest contains optional fields for mutating a Brick.
// Nil fields are left untouched.
type UpdateBrickRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// BrickFilters narrows Brick listings.
type BrickFilters struct {
	Status   Status   `json:"status,omitempty"`
	Category Category `json:"category,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// CreateQuantaRequest contains fields for creating a Quanta.
type CreateQuantaRequest struct {
	BrickID                  string `json:"brick_id"`
	Title                    string `json:"title"`
	Description              string `json:"description,omitempty"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
	OrderIndex               int    `json:"order_index"`
}

// UpdateQuantaRequest contains optional fields for mutating a Quanta.
type UpdateQuantaRequest struct {
	Title                    *string `json:"title,omitempty"`
	Description              *string `json:"description,omitempty"`
	Status                   *Status `json:"status,omitempty"`
	EstimatedDurationMinutes *int    `json:"estimated_duration_minutes,omitempty"`
	OrderIndex               *int    `json:"order_index,omitempty"`
}

// QuantaFilters narrows Quanta listings.
type QuantaFilters struct {
	BrickID string `json:"brick_id,omitempty"`
	Status  Status `json:"status,omitempty"`
}

// ResourceFilters narrows resource listings.
type ResourceFilters struct {
	Topic string `json:"topic,omitempty"`
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`
}
