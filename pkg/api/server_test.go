package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beq-project/beq/pkg/calendar"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/orchestrator"
	"github.com/beq-project/beq/pkg/planner"
)

var testNow = time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTurns echoes the message back; it records the identity it was called
// with so tests can assert header propagation.
type stubTurns struct {
	lastUserID string
	lastConvID string
	err        error
}

func (s *stubTurns) ProcessTurn(_ context.Context, userID, conversationID, message string) (*orchestrator.TurnResult, error) {
	s.lastUserID = userID
	s.lastConvID = conversationID
	if s.err != nil {
		return nil, s.err
	}
	return &orchestrator.TurnResult{ResponseText: "echo: " + message}, nil
}

type stubCalendar struct {
	events []*models.Event
	err    error
}

func (s *stubCalendar) ListEvents(context.Context, string, time.Time, time.Time) ([]*models.Event, error) {
	return s.events, s.err
}
func (s *stubCalendar) CreateEvent(_ context.Context, _ string, e *models.Event) (*models.Event, error) {
	return e, nil
}
func (s *stubCalendar) UpdateEvent(_ context.Context, _ string, e *models.Event) (*models.Event, error) {
	return e, nil
}
func (s *stubCalendar) DeleteEvent(context.Context, string, string) error          { return nil }
func (s *stubCalendar) ListCalendars(context.Context) ([]calendar.Calendar, error) { return nil, nil }
func (s *stubCalendar) ValidateCredentials(context.Context) error                  { return nil }

func testServer(t *testing.T, turns *stubTurns, cal *stubCalendar) *Server {
	t.Helper()
	clock := &models.FixedClock{T: testNow}
	var provider calendar.Provider
	var syncSvc *calendar.SyncService
	if cal != nil {
		provider = cal
		syncSvc = calendar.NewSyncService(cal, clock, testLogger())
	}
	return NewServer(turns, planner.NewHeuristic(clock, testLogger()), provider, syncSvc, clock, 7, testLogger())
}

func doRequest(t *testing.T, handler http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthz(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)
	rec := doRequest(t, server.Handler(), http.MethodGet, "/healthz", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.Contains(t, rec.Body.String(), `"calendar_connected":false`)
}

func TestChatRequiresIdentity(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/chat",
		`{"message":"hi"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatStartsConversationAndEchoesResult(t *testing.T) {
	turns := &stubTurns{}
	server := testServer(t, turns, nil)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/chat",
		`{"message":"hello"}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ConversationID string                   `json:"conversation_id"`
		Result         *orchestrator.TurnResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ConversationID)
	assert.Equal(t, "echo: hello", body.Result.ResponseText)
	assert.Equal(t, "user-1", turns.lastUserID)
	assert.Equal(t, body.ConversationID, turns.lastConvID)
}

func TestChatReusesSuppliedConversation(t *testing.T) {
	turns := &stubTurns{}
	server := testServer(t, turns, nil)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/chat",
		`{"conversation_id":"conv-42","message":"again"}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conv-42", turns.lastConvID)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/chat",
		`{"conversation_id":"conv-1"}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSchedule(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/schedule/generate", `{
		"tasks": [
			{"id":"t1","title":"Deep work","estimated_duration_minutes":90,"priority":"high"}
		]
	}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var result planner.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.ScheduledEvents, 1)
	assert.Empty(t, result.UnscheduledTaskIDs)
}

func TestGenerateScheduleRejectsInvalidTask(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/schedule/generate", `{
		"tasks": [{"id":"t1","title":"No duration"}]
	}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScheduleWithoutCalendarIs502(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)
	rec := doRequest(t, server.Handler(), http.MethodGet, "/api/v1/schedule", "", "user-1")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetScheduleListsEvents(t *testing.T) {
	base := testNow.Add(2 * time.Hour)
	cal := &stubCalendar{events: []*models.Event{
		{ID: "e1", Title: "One", StartTime: base, EndTime: base.Add(time.Hour)},
	}}
	server := testServer(t, &stubTurns{}, cal)

	rec := doRequest(t, server.Handler(), http.MethodGet, "/api/v1/schedule", "", "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = doRequest(t, server.Handler(), http.MethodGet, "/api/v1/schedule?start=yesterday", "", "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncCalendarReportsConflicts(t *testing.T) {
	base := testNow.Add(24 * time.Hour)
	cal := &stubCalendar{events: []*models.Event{
		{ID: "a", Title: "A", StartTime: base, EndTime: base.Add(time.Hour)},
		{ID: "b", Title: "B", StartTime: base.Add(30 * time.Minute), EndTime: base.Add(90 * time.Minute)},
	}}
	server := testServer(t, &stubTurns{}, cal)

	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/calendar/sync",
		`{"calendar_id":"primary","auto_resolve":true}`, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary calendar.SyncSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Pulled)
	assert.Len(t, summary.Conflicts, 1)
	assert.Len(t, summary.Resolutions, 1)
}

func TestResolveConflicts(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)

	body := `{
		"events": [
			{"id":"a","title":"A","start_time":"2024-01-16T10:00:00Z","end_time":"2024-01-16T11:00:00Z"},
			{"id":"b","title":"B","start_time":"2024-01-16T10:30:00Z","end_time":"2024-01-16T11:30:00Z"}
		],
		"resolutions": [{"conflict_id":"overlap_a_b","strategy":"merge_events"}]
	}`
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/conflicts/resolve", body, "user-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "merge_events")
	assert.Contains(t, rec.Body.String(), "A|B")
}

func TestResolveConflictsUnknownIDIs404(t *testing.T) {
	server := testServer(t, &stubTurns{}, nil)

	body := `{
		"events": [
			{"id":"a","title":"A","start_time":"2024-01-16T10:00:00Z","end_time":"2024-01-16T11:00:00Z"}
		],
		"resolutions": [{"conflict_id":"overlap_ghost","strategy":"keep_existing"}]
	}`
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/conflicts/resolve", body, "user-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
