// Package orchestrator drives one conversational turn: it loads history,
// calls the model, dispatches the tool calls the model emits, and loops
// until the model answers in plain text or a bound is hit. Tool dispatch is
// sequential and ordered, so the causal metadata of a turn is well defined.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/beq-project/beq/pkg/config"
	"github.com/beq-project/beq/pkg/llm"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/repository"
	"github.com/beq-project/beq/pkg/tools"
)

// Turn bounds. Config may override them; zero values fall back here.
const (
	DefaultMaxAssistantTurns = 5
	DefaultTurnDeadline      = 45 * time.Second
	DefaultToolTimeout       = 20 * time.Second
)

// Deterministic assistant texts for degraded finishes.
const (
	boundedNotice   = "I've reached the limit of actions I can take for a single request. Here's where things stand; ask me to continue if you'd like me to keep going."
	timeoutNotice   = "Processing took too long and I had to stop early. The actions listed below were completed before the deadline."
	llmFailureText  = "I'm having trouble reaching the language model right now. Please try again in a moment; your conversation has been saved."
	emptyAnswerText = "I wasn't able to produce a response for that. Could you rephrase?"
)

const systemPreamble = `You are BeQ, a personal productivity assistant. You help the user manage
Bricks (durable goals), Quantas (actionable steps), and their schedule.
Use the provided tools to read and change state; never invent tool results.
When no tool is needed, answer directly and concisely.`

// TurnResult is the aggregated outcome of one ProcessTurn call.
type TurnResult struct {
	ResponseText         string   `json:"response_text"`
	ToolsInvoked         []string `json:"tools_invoked"`
	BricksCreated        []string `json:"bricks_created"`
	BricksUpdated        []string `json:"bricks_updated"`
	ResourcesRecommended []string `json:"resources_recommended"`
	ScheduleUpdated      bool     `json:"schedule_updated"`
	Suggestions          []string `json:"suggestions"`
}

// Orchestrator owns the turn state machine. It is safe for concurrent use
// across conversations; per-conversation serialization is the caller's job.
type Orchestrator struct {
	provider llm.Provider
	registry *tools.Registry
	messages repository.Messages

	maxAssistantTurns int
	turnDeadline      time.Duration
	toolTimeout       time.Duration

	logger *slog.Logger
}

// New builds an orchestrator from its collaborators. Zero config fields take
// the package defaults.
func New(provider llm.Provider, registry *tools.Registry, messages repository.Messages, cfg config.OrchestratorConfig, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		provider:          provider,
		registry:          registry,
		messages:          messages,
		maxAssistantTurns: cfg.MaxAssistantTurns,
		turnDeadline:      cfg.TurnDeadline,
		toolTimeout:       cfg.ToolTimeout,
		logger:            logger.With("component", "orchestrator"),
	}
	if o.maxAssistantTurns <= 0 {
		o.maxAssistantTurns = DefaultMaxAssistantTurns
	}
	if o.turnDeadline <= 0 {
		o.turnDeadline = DefaultTurnDeadline
	}
	if o.toolTimeout <= 0 {
		o.toolTimeout = DefaultToolTimeout
	}
	return o
}

// turnState is the transient working state of one turn. It never outlives
// ProcessTurn.
type turnState struct {
	userID         string
	conversationID string
	working        []llm.Message
	result         *TurnResult
}

// ProcessTurn runs the state machine for one user message and returns the
// aggregated result. The turn always produces a TurnResult; degraded
// finishes (deadline, loop cap, model failure) use fixed assistant texts.
func (o *Orchestrator) ProcessTurn(ctx context.Context, userID, conversationID, userMessage string) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.turnDeadline)
	defer cancel()

	state := &turnState{
		userID:         userID,
		conversationID: conversationID,
		result: &TurnResult{
			ToolsInvoked:         []string{},
			BricksCreated:        []string{},
			BricksUpdated:        []string{},
			ResourcesRecommended: []string{},
			Suggestions:          []string{},
		},
	}

	history, err := o.messages.ListConversation(ctx, conversationID)
	if err != nil {
		if deadlined(ctx) {
			return o.finalize(ctx, state, userMessage, timeoutNotice)
		}
		return nil, err
	}
	for _, m := range history {
		state.working = append(state.working, llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		})
	}
	state.working = append(state.working, llm.Message{Role: models.RoleUser, Content: userMessage})

	definitions := o.registry.Definitions()

	for cycle := 1; ; cycle++ {
		if cycle > o.maxAssistantTurns {
			o.logger.Warn("assistant turn cap reached",
				"conversation_id", conversationID,
				"tools_invoked", len(state.result.ToolsInvoked))
			return o.finalize(ctx, state, userMessage, boundedNotice)
		}

		completion, err := o.provider.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: systemPreamble,
			Messages:     state.working,
			Tools:        definitions,
		})
		if err != nil {
			if deadlined(ctx) {
				return o.finalize(ctx, state, userMessage, timeoutNotice)
			}
			o.logger.Error("model call failed", "conversation_id", conversationID, "error", err)
			return o.finalize(ctx, state, userMessage, llmFailureText)
		}

		state.working = append(state.working, llm.Message{
			Role:      models.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		if !completion.HasToolCalls() {
			text := completion.Content
			if text == "" {
				text = emptyAnswerText
			}
			return o.finalize(ctx, state, userMessage, text)
		}

		for _, call := range completion.ToolCalls {
			if deadlined(ctx) {
				return o.finalize(ctx, state, userMessage, timeoutNotice)
			}
			o.dispatch(ctx, state, call)
		}
		if deadlined(ctx) {
			return o.finalize(ctx, state, userMessage, timeoutNotice)
		}
	}
}

// dispatch runs one tool call, appends the matching tool message, and
// accumulates causal metadata. Failures become tool-error messages the
// model can react to on the next cycle.
func (o *Orchestrator) dispatch(ctx context.Context, state *turnState, call llm.ToolCall) {
	toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	state.result.ToolsInvoked = append(state.result.ToolsInvoked, call.Name)

	result, terr := o.registry.Dispatch(toolCtx, call, state.userID)
	if terr != nil {
		payload, _ := json.Marshal(map[string]any{"error": terr})
		state.working = append(state.working, llm.Message{
			Role:       models.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
		return
	}

	state.working = append(state.working, llm.Message{
		Role:       models.RoleTool,
		Content:    result.Content,
		ToolCallID: call.ID,
	})

	switch call.Name {
	case "create_brick":
		if result.EntityID != "" {
			state.result.BricksCreated = append(state.result.BricksCreated, result.EntityID)
		}
	case "update_brick":
		if result.EntityID != "" {
			state.result.BricksUpdated = append(state.result.BricksUpdated, result.EntityID)
		}
	case "generate_schedule", "optimize_schedule":
		state.result.ScheduleUpdated = true
	case "list_resources", "search_resources":
		state.result.ResourcesRecommended = append(state.result.ResourcesRecommended, resourceTitles(result.Content)...)
	}
}

// finalize derives suggestions, persists the user/assistant pair, and
// returns the turn result. Persistence survives a spent turn deadline.
func (o *Orchestrator) finalize(ctx context.Context, state *turnState, userMessage, responseText string) (*TurnResult, error) {
	state.result.ResponseText = responseText
	state.result.Suggestions = suggest(state.result)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.persistPair(persistCtx, state, userMessage, responseText); err != nil {
		o.logger.Error("persisting turn failed",
			"conversation_id", state.conversationID, "error", err)
	}

	o.logger.Info("turn finished",
		"conversation_id", state.conversationID,
		"tools_invoked", len(state.result.ToolsInvoked),
		"schedule_updated", state.result.ScheduleUpdated)
	return state.result, nil
}

func (o *Orchestrator) persistPair(ctx context.Context, state *turnState, userMessage, responseText string) error {
	if _, err := o.messages.Create(ctx, models.CreateMessageRequest{
		ConversationID: state.conversationID,
		UserID:         state.userID,
		Role:           models.RoleUser,
		Content:        userMessage,
	}); err != nil {
		return err
	}
	_, err := o.messages.Create(ctx, models.CreateMessageRequest{
		ConversationID: state.conversationID,
		UserID:         state.userID,
		Role:           models.RoleAssistant,
		Content:        responseText,
	})
	return err
}

// suggest derives follow-up suggestions from the turn's causal metadata.
func suggest(result *TurnResult) []string {
	suggestions := []string{}
	if result.ScheduleUpdated {
		suggestions = append(suggestions, "Review today's schedule and confirm the planned blocks fit.")
	}
	if len(result.BricksCreated) > 0 {
		suggestions = append(suggestions, "Break the new Brick into Quantas so it can be scheduled.")
	}
	if len(result.ResourcesRecommended) > 0 {
		suggestions = append(suggestions, "Save any resource that looks useful before it scrolls away.")
	}
	return suggestions
}

// resourceTitles pulls the titles out of a resource tool payload for the
// resources_recommended metadata.
func resourceTitles(content string) []string {
	var payload struct {
		Resources []struct {
			Title string `json:"title"`
		} `json:"resources"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil
	}
	titles := make([]string, 0, len(payload.Resources))
	for _, r := range payload.Resources {
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}
	return titles
}

func deadlined(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled)
}
