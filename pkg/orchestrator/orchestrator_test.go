package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beq-project/beq/pkg/config"
	"github.com/beq-project/beq/pkg/llm"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/planner"
	"github.com/beq-project/beq/pkg/repository"
	"github.com/beq-project/beq/pkg/tools"
)

var testNow = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedProvider replays a fixed sequence of completions. When the script
// runs out it repeats the last entry, which lets a single entry model a
// provider that never converges.
type scriptedProvider struct {
	script   []llm.Completion
	requests []llm.CompletionRequest
	sleep    time.Duration
	err      error
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	p.requests = append(p.requests, req)
	if p.sleep > 0 {
		select {
		case <-time.After(p.sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	idx := len(p.requests) - 1
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	c := p.script[idx]
	return &c, nil
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func textCompletion(content string) llm.Completion {
	return llm.Completion{Content: content}
}

func callCompletion(calls ...llm.ToolCall) llm.Completion {
	return llm.Completion{ToolCalls: calls}
}

func testHarness(t *testing.T, provider llm.Provider, cfg config.OrchestratorConfig) (*Orchestrator, *repository.Store) {
	t.Helper()
	clock := &models.FixedClock{T: testNow}
	store := repository.NewMemoryStore(clock)
	registry := tools.NewDefaultRegistry(tools.Deps{
		Store:   store,
		Planner: planner.NewHeuristic(clock, testLogger()),
		Clock:   clock,
	}, testLogger())
	return New(provider, registry, store.Messages, cfg, testLogger()), store
}

func TestPlainAnswerFinalizesImmediately(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{textCompletion("Hello! How can I help?")}}
	orch, store := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help?", result.ResponseText)
	assert.Empty(t, result.ToolsInvoked)
	assert.Empty(t, result.BricksCreated)
	assert.False(t, result.ScheduleUpdated)
	assert.Empty(t, result.Suggestions)
	require.Len(t, provider.requests, 1)

	// The user/assistant pair is persisted.
	history, err := store.Messages.ListConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestHistoryAndToolSchemasReachTheModel(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{textCompletion("ok")}}
	orch, store := testHarness(t, provider, config.OrchestratorConfig{})

	for _, m := range []models.CreateMessageRequest{
		{ConversationID: "conv-1", UserID: "user-1", Role: models.RoleUser, Content: "earlier question"},
		{ConversationID: "conv-1", UserID: "user-1", Role: models.RoleAssistant, Content: "earlier answer"},
	} {
		_, err := store.Messages.Create(context.Background(), m)
		require.NoError(t, err)
	}

	_, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "follow-up")
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "earlier question", req.Messages[0].Content)
	assert.Equal(t, "follow-up", req.Messages[2].Content)
	assert.NotEmpty(t, req.SystemPrompt)
	assert.Len(t, req.Tools, 16)
}

func TestBoundedLoopTerminatesAtCap(t *testing.T) {
	// The model never converges: every cycle asks for one more list_bricks.
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "list_bricks", `{}`)),
	}}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "loop forever")
	require.NoError(t, err)

	assert.Len(t, result.ToolsInvoked, 5)
	assert.Len(t, provider.requests, 5)
	assert.Equal(t, boundedNotice, result.ResponseText)
}

func TestModelSuppliedIdentityIsOverridden(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "create_brick",
			`{"title":"X","category":"work","priority":"low","estimated_duration_minutes":30,"user_id":"ATTACKER"}`)),
		textCompletion("Created your brick."),
	}}
	orch, store := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "real-user", "conv-1", "make a brick")
	require.NoError(t, err)

	require.Len(t, result.BricksCreated, 1)
	brickID := result.BricksCreated[0]

	brick, err := store.Bricks.Get(context.Background(), "real-user", brickID)
	require.NoError(t, err)
	assert.Equal(t, "real-user", brick.UserID)

	_, err = store.Bricks.Get(context.Background(), "ATTACKER", brickID)
	assert.Error(t, err)
}

func TestDeadlineReturnsFallbackQuickly(t *testing.T) {
	provider := &scriptedProvider{
		script: []llm.Completion{textCompletion("never seen")},
		sleep:  time.Minute,
	}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{TurnDeadline: 200 * time.Millisecond})

	start := time.Now()
	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "slow please")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, timeoutNotice, result.ResponseText)
	assert.Empty(t, result.ToolsInvoked)
}

func TestDeadlinePreservesPartialToolRecord(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "list_bricks", `{}`)),
		textCompletion("never reached"),
	}}
	provider.sleep = 120 * time.Millisecond
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{TurnDeadline: 180 * time.Millisecond})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "one tool then stall")
	require.NoError(t, err)

	assert.Equal(t, timeoutNotice, result.ResponseText)
	assert.Equal(t, []string{"list_bricks"}, result.ToolsInvoked)
}

func TestProviderFailureYieldsFixedText(t *testing.T) {
	provider := &scriptedProvider{err: assert.AnError}
	orch, store := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "hello?")
	require.NoError(t, err)
	assert.Equal(t, llmFailureText, result.ResponseText)

	// The degraded turn still persists, so the conversation stays usable.
	history, err := store.Messages.ListConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestToolErrorIsRecoveredIntoToolMessage(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "delete_brick", `{"brick_id":"missing"}`)),
		textCompletion("That brick doesn't exist."),
	}}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "delete it")
	require.NoError(t, err)

	assert.Equal(t, "That brick doesn't exist.", result.ResponseText)
	assert.Equal(t, []string{"delete_brick"}, result.ToolsInvoked)

	// The second model call sees the structured tool error.
	require.Len(t, provider.requests, 2)
	last := provider.requests[1].Messages
	toolMsg := last[len(last)-1]
	assert.Equal(t, models.RoleTool, toolMsg.Role)
	assert.Equal(t, "c1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "not_found")
}

func TestCausalMetadataAndSuggestions(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(
			toolCall("c1", "create_brick", `{"title":"Plan week","category":"work","priority":"high","estimated_duration_minutes":60}`),
			toolCall("c2", "generate_schedule", `{"tasks":[{"id":"t1","title":"Plan","estimated_duration_minutes":60,"priority":"high"}]}`),
		),
		textCompletion("Done: brick created and schedule drafted."),
	}}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "plan my week")
	require.NoError(t, err)

	assert.Equal(t, []string{"create_brick", "generate_schedule"}, result.ToolsInvoked)
	assert.Len(t, result.BricksCreated, 1)
	assert.True(t, result.ScheduleUpdated)
	require.Len(t, result.Suggestions, 2)
	assert.Contains(t, result.Suggestions[0], "schedule")
	assert.Contains(t, result.Suggestions[1], "Quantas")
}

func TestGetScheduleAloneDoesNotMarkScheduleUpdated(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "get_schedule", `{}`)),
		textCompletion("Here is your schedule."),
	}}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "what's today look like")
	require.NoError(t, err)

	assert.Equal(t, []string{"get_schedule"}, result.ToolsInvoked)
	assert.False(t, result.ScheduleUpdated)
	assert.Empty(t, result.Suggestions)
}

func TestResourceRecommendationsFlowIntoMetadata(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{
		callCompletion(toolCall("c1", "search_resources", `{"query":"focus"}`)),
		textCompletion("Found something for you."),
	}}

	clock := &models.FixedClock{T: testNow}
	store := repository.NewMemoryStore(clock)
	repository.SeedResources(store,
		&models.Resource{ID: "r1", Title: "Deep Work", Topic: "focus", Summary: "On focus"},
	)
	registry := tools.NewDefaultRegistry(tools.Deps{
		Store:   store,
		Planner: planner.NewHeuristic(clock, testLogger()),
		Clock:   clock,
	}, testLogger())
	orch := New(provider, registry, store.Messages, config.OrchestratorConfig{}, testLogger())

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "help me focus")
	require.NoError(t, err)

	assert.Equal(t, []string{"Deep Work"}, result.ResourcesRecommended)
	require.NotEmpty(t, result.Suggestions)
}

func TestEmptyAssistantContentGetsPlaceholder(t *testing.T) {
	provider := &scriptedProvider{script: []llm.Completion{textCompletion("")}}
	orch, _ := testHarness(t, provider, config.OrchestratorConfig{})

	result, err := orch.ProcessTurn(context.Background(), "user-1", "conv-1", "hm")
	require.NoError(t, err)
	assert.Equal(t, emptyAnswerText, result.ResponseText)
}
