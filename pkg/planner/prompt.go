package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const llmSystemPrompt = `You are a scheduling assistant. Place the given tasks into
free time within the user's work hours, respecting existing events and
constraints. Prefer mornings for high-priority work, keep tasks before their
deadlines, and never overlap fixed events.

Respond with a single JSON object and nothing else:
{
  "scheduled_events": [
    {"task_id": "...", "title": "...", "start_time": "RFC3339", "end_time": "RFC3339"}
  ],
  "reasoning": "one short paragraph"
}
Tasks that cannot be placed are simply omitted from scheduled_events.`

// buildUserPrompt serializes the planning inputs as structured records.
func buildUserPrompt(req Request, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Horizon: %d days\n\n", req.HorizonDays)

	prefs, _ := json.Marshal(req.Preferences)
	fmt.Fprintf(&b, "Preferences:\n%s\n\n", prefs)

	b.WriteString("Existing events:\n")
	if len(req.Events) == 0 {
		b.WriteString("(none)\n")
	}
	for _, e := range req.Events {
		s, end := e.Span()
		fmt.Fprintf(&b, "- %q from %s to %s (moveable=%t)\n",
			e.Title, s.Format(time.RFC3339), end.Format(time.RFC3339), e.IsMoveable)
	}

	b.WriteString("\nTasks to schedule:\n")
	for _, t := range req.Tasks {
		fmt.Fprintf(&b, "- id=%s %q duration=%dm priority=%s", t.ID, t.Title, t.EstimatedDurationMinutes, t.Priority)
		if t.Deadline != nil {
			fmt.Fprintf(&b, " deadline=%s", t.Deadline.Format(time.RFC3339))
		}
		if t.PreferredTime != "" {
			fmt.Fprintf(&b, " preferred=%s", t.PreferredTime)
		}
		b.WriteString("\n")
	}

	if len(req.Constraints) > 0 {
		b.WriteString("\nConstraints:\n")
		for _, c := range req.Constraints {
			hardness := "soft"
			if c.IsHard {
				hardness = "hard"
			}
			fmt.Fprintf(&b, "- [%s] %s", hardness, c.Type)
			if c.Blocks() {
				fmt.Fprintf(&b, " blocks %s to %s", c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339))
			}
			if c.Description != "" {
				fmt.Fprintf(&b, " (%s)", c.Description)
			}
			b.WriteString("\n")
		}
	}

	if len(req.Goals) > 0 {
		b.WriteString("\nOptimization goals:\n")
		for _, g := range req.Goals {
			fmt.Fprintf(&b, "- %s\n", g)
		}
	}
	return b.String()
}

// extractJSON returns the first-{ to last-} substring, the usual envelope
// when a model wraps JSON in prose or code fences.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
