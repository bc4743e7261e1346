package models

import (
	"fmt"
	"time"
)

// Task is an ephemeral scheduling input. Tasks are not persisted; the tool
// layer builds them from Bricks/Quantas or from caller-supplied records.
type Task struct {
	ID                       string        `json:"id"`
	Title                    string        `json:"title"`
	EstimatedDurationMinutes int           `json:"estimated_duration_minutes"`
	Priority                 Priority      `json:"priority"`
	Deadline                 *time.Time    `json:"deadline,omitempty"`
	PreferredTime            PreferredTime `json:"preferred_time,omitempty"`
	Dependencies             []string      `json:"dependencies,omitempty"`
}

// Validate checks the Task invariants.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.EstimatedDurationMinutes < 1 {
		return fmt.Errorf("estimated_duration_minutes must be >= 1, got %d", t.EstimatedDurationMinutes)
	}
	if t.Priority != "" && !validPriorities[t.Priority] {
		return fmt.Errorf("unknown priority %q", t.Priority)
	}
	return nil
}

// LocalTime is a wall-clock time of day without a date, e.g. 09:00.
type LocalTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Minutes returns the offset from midnight in minutes.
func (lt LocalTime) Minutes() int { return lt.Hour*60 + lt.Minute }

// Before reports whether lt is earlier in the day than other.
func (lt LocalTime) Before(other LocalTime) bool { return lt.Minutes() < other.Minutes() }

// On anchors the local time onto a concrete day in the given location.
func (lt LocalTime) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), lt.Hour, lt.Minute, 0, 0, loc)
}

func (lt LocalTime) String() string { return fmt.Sprintf("%02d:%02d", lt.Hour, lt.Minute) }

// TimeRange is a half-open local time range within one day.
type TimeRange struct {
	Start LocalTime `json:"start"`
	End   LocalTime `json:"end"`
}

// Preferences is the per-user scheduling profile.
type Preferences struct {
	Timezone              string         `json:"timezone"`
	WorkStart             LocalTime      `json:"work_start"`
	WorkEnd               LocalTime      `json:"work_end"`
	WorkDays              []time.Weekday `json:"work_days,omitempty"`
	BreakFrequencyMinutes int            `json:"break_frequency_minutes"`
	BreakDurationMinutes  int            `json:"break_duration_minutes"`
	LunchTime             LocalTime      `json:"lunch_time"`
	LunchDurationMinutes  int            `json:"lunch_duration_minutes"`
	PreferredTaskMinutes  int            `json:"preferred_task_minutes"`
	EnergyPeaks           []TimeRange    `json:"energy_peaks,omitempty"`
	AvoidAfter            *LocalTime     `json:"avoid_after,omitempty"`
}

// DefaultPreferences mirrors the profile assumed for users who have not
// configured one: 9-5 weekdays, lunch at noon, a break every 90 minutes.
func DefaultPreferences() Preferences {
	return Preferences{
		Timezone:              "UTC",
		WorkStart:             LocalTime{Hour: 9},
		WorkEnd:               LocalTime{Hour: 17},
		BreakFrequencyMinutes: 90,
		BreakDurationMinutes:  15,
		LunchTime:             LocalTime{Hour: 12},
		LunchDurationMinutes:  60,
		PreferredTaskMinutes:  90,
	}
}

// Validate checks the Preferences invariants.
func (p *Preferences) Validate() error {
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}
	if !p.WorkStart.Before(p.WorkEnd) {
		return fmt.Errorf("work_end %s must be after work_start %s", p.WorkEnd, p.WorkStart)
	}
	for _, peak := range p.EnergyPeaks {
		if peak.Start.Minutes() < p.WorkStart.Minutes() || peak.End.Minutes() > p.WorkEnd.Minutes() {
			return fmt.Errorf("energy peak %s-%s outside work window", peak.Start, peak.End)
		}
	}
	return nil
}

// Location resolves the IANA timezone, falling back to UTC.
func (p *Preferences) Location() *time.Location {
	if loc, err := time.LoadLocation(p.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// IsWorkDay reports whether the weekday is a configured work day.
// An empty WorkDays list means Monday through Friday.
func (p *Preferences) IsWorkDay(d time.Weekday) bool {
	if len(p.WorkDays) == 0 {
		return d != time.Saturday && d != time.Sunday
	}
	for _, wd := range p.WorkDays {
		if wd == d {
			return true
		}
	}
	return false
}

// Constraint restricts when tasks may be placed. Hard constraints block
// placement; soft constraints degrade the plan's confidence.
type Constraint struct {
	Type        string     `json:"type"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Description string     `json:"description,omitempty"`
	IsHard      bool       `json:"is_hard"`
}

// Blocks reports whether the constraint carries a concrete blocked interval.
func (c *Constraint) Blocks() bool { return c.Start != nil && c.End != nil && c.End.After(*c.Start) }
