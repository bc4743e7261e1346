package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/beq-project/beq/pkg/llm"
	"github.com/beq-project/beq/pkg/models"
)

// DefaultLLMDeadline bounds a single planning completion.
const DefaultLLMDeadline = 60 * time.Second

// LLM plans by prompting the model with the full scheduling context and
// validating its JSON answer. Anything unusable falls back to the
// deterministic heuristic so planning never hard-fails on model output.
type LLM struct {
	provider llm.Provider
	fallback *Heuristic
	clock    models.Clock
	deadline time.Duration
	logger   *slog.Logger
}

// NewLLM creates the model-backed planner. A non-positive deadline uses
// DefaultLLMDeadline.
func NewLLM(provider llm.Provider, fallback *Heuristic, clock models.Clock, deadline time.Duration, logger *slog.Logger) *LLM {
	if deadline <= 0 {
		deadline = DefaultLLMDeadline
	}
	return &LLM{
		provider: provider,
		fallback: fallback,
		clock:    clock,
		deadline: deadline,
		logger:   logger.With("component", "planner.llm"),
	}
}

// llmPlan is the JSON shape the model is asked to produce.
type llmPlan struct {
	ScheduledEvents []llmEvent `json:"scheduled_events"`
	Reasoning       string     `json:"reasoning"`
}

type llmEvent struct {
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (p *LLM) Plan(ctx context.Context, req Request) (*Result, error) {
	now := p.clock.Now()
	if len(req.Tasks) == 0 {
		return &Result{Confidence: 1.0, Reasoning: "no tasks to schedule"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	completion, err := p.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: llmSystemPrompt,
		Messages: []llm.Message{
			{Role: models.RoleUser, Content: buildUserPrompt(req, now)},
		},
	})
	if err != nil {
		p.logger.Warn("LLM planning failed, falling back to heuristic", "error", err)
		return p.fallBack(ctx, req, fmt.Sprintf("LLM planning failed: %v", err))
	}

	plan, ok := parsePlan(completion.Content)
	if !ok {
		p.logger.Warn("LLM returned unparseable plan, falling back to heuristic")
		return p.fallBack(ctx, req, "LLM parse failure")
	}

	result := p.validate(plan, req)
	violations := countSoftViolations(result.ScheduledEvents, req.Preferences, req.Constraints)
	result.Confidence = confidence(len(result.ScheduledEvents), len(req.Tasks), violations)
	return result, nil
}

// fallBack runs the heuristic planner, caps confidence at the fallback
// floor, and prepends the failure warning.
func (p *LLM) fallBack(ctx context.Context, req Request, warning string) (*Result, error) {
	result, err := p.fallback.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Confidence = 0.3
	result.Warnings = append([]string{warning}, result.Warnings...)
	return result, nil
}

func parsePlan(content string) (*llmPlan, bool) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, false
	}
	var plan llmPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

// validate drops invalid entries from the model's plan: unknown tasks,
// inverted intervals, overlaps with fixed events or hard constraint blocks,
// and duplicate placements of the same task.
func (p *LLM) validate(plan *llmPlan, req Request) *Result {
	result := &Result{Reasoning: plan.Reasoning}

	known := make(map[string]*models.Task, len(req.Tasks))
	for _, t := range req.Tasks {
		known[t.ID] = t
	}

	placed := make(map[string]bool)
	for _, ev := range plan.ScheduledEvents {
		task, ok := known[ev.TaskID]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped event for unknown task %q", ev.TaskID))
			continue
		}
		if placed[ev.TaskID] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped duplicate placement of task %q", ev.TaskID))
			continue
		}
		start, err1 := time.Parse(time.RFC3339, ev.StartTime)
		end, err2 := time.Parse(time.RFC3339, ev.EndTime)
		if err1 != nil || err2 != nil || !end.After(start) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped task %q: invalid interval", ev.TaskID))
			continue
		}
		if clash := fixedClash(start, end, req); clash != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped task %q: overlaps %s", ev.TaskID, clash))
			continue
		}

		title := ev.Title
		if title == "" {
			title = task.Title
		}
		placed[ev.TaskID] = true
		result.ScheduledEvents = append(result.ScheduledEvents, ScheduledEvent{
			TaskID:    ev.TaskID,
			Title:     title,
			StartTime: start,
			EndTime:   end,
		})
	}

	for _, t := range req.Tasks {
		if !placed[t.ID] {
			result.UnscheduledTaskIDs = append(result.UnscheduledTaskIDs, t.ID)
		}
	}
	return result
}

// fixedClash names the non-moveable event or hard constraint the interval
// overlaps, or returns empty when the interval is clear.
func fixedClash(start, end time.Time, req Request) string {
	for _, e := range req.Events {
		if e.IsMoveable {
			continue
		}
		s, en := e.Span()
		if start.Before(en) && end.After(s) {
			return fmt.Sprintf("fixed event %q", e.Title)
		}
	}
	for _, c := range req.Constraints {
		if c.IsHard && c.Blocks() && start.Before(*c.End) && end.After(*c.Start) {
			return fmt.Sprintf("hard constraint %q", c.Type)
		}
	}
	return ""
}
