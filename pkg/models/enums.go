// Package models contains the canonical domain records and enumerations.
package models

import (
	"fmt"
	"strings"
)

// Category classifies what area of life a Brick belongs to.
type Category string

// Brick categories.
const (
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
	CategoryHealth      Category = "health"
	CategoryLearning    Category = "learning"
	CategorySocial      Category = "social"
	CategoryMaintenance Category = "maintenance"
	CategoryRecreation  Category = "recreation"
)

// Priority orders work by urgency.
type Priority string

// Priorities, lowest to highest.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps a priority onto the 1 (highest) to 10 (lowest) scale used by the
// planner's fitness function. Unknown priorities rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 1
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 5
	case PriorityLow:
		return 8
	default:
		return 5
	}
}

// Status is the lifecycle state of a Brick or Quanta.
type Status string

// Lifecycle statuses.
const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusPostponed  Status = "postponed"
)

// Role identifies the author of a conversation message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// EventSource distinguishes externally-synced events from orchestrator-managed ones.
type EventSource string

// Event sources.
const (
	SourceExternal EventSource = "external"
	SourceManaged  EventSource = "managed"
)

// PreferredTime is a coarse time-of-day preference for a task.
type PreferredTime string

// Preferred times of day.
const (
	PreferredMorning   PreferredTime = "morning"
	PreferredAfternoon PreferredTime = "afternoon"
	PreferredEvening   PreferredTime = "evening"
)

// Hour returns the representative local hour for a time-of-day preference.
func (p PreferredTime) Hour() int {
	switch p {
	case PreferredMorning:
		return 9
	case PreferredAfternoon:
		return 14
	case PreferredEvening:
		return 19
	default:
		return 12
	}
}

var validCategories = map[Category]bool{
	CategoryWork: true, CategoryPersonal: true, CategoryHealth: true,
	CategoryLearning: true, CategorySocial: true, CategoryMaintenance: true,
	CategoryRecreation: true,
}

var validPriorities = map[Priority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityUrgent: true,
}

var validStatuses = map[Status]bool{
	StatusNotStarted: true, StatusInProgress: true, StatusCompleted: true,
	StatusCancelled: true, StatusPostponed: true,
}

// ParseCategory normalizes and validates an external category string.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !validCategories[c] {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// ParsePriority normalizes and validates an external priority string.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !validPriorities[p] {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// ParseStatus normalizes and validates an external status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !validStatuses[st] {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// ParsePreferredTime normalizes a time-of-day preference. Empty input is
// allowed and returns the empty value.
func ParsePreferredTime(s string) (PreferredTime, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	p := PreferredTime(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PreferredMorning, PreferredAfternoon, PreferredEvening:
		return p, nil
	}
	return "", fmt.Errorf("unknown preferred time %q", s)
}
