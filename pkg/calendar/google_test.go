package calendar

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/beq-project/beq/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
}

func testGoogleClient(t *testing.T, handler http.HandlerFunc) *GoogleClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGoogleClient(staticToken(), server.URL, time.Second, testLogger())
}

func TestListEvents(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.URL.Path, "/calendars/primary/events")
		assert.NotEmpty(t, r.URL.Query().Get("timeMin"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":      "g1",
					"summary": "Standup",
					"start":   map[string]string{"dateTime": "2024-01-15T09:00:00Z"},
					"end":     map[string]string{"dateTime": "2024-01-15T09:30:00Z"},
				},
				{
					"id":      "g2",
					"summary": "Conference",
					"start":   map[string]string{"date": "2024-01-16"},
					"end":     map[string]string{"date": "2024-01-17"},
				},
				{
					// No start at all; skipped, not fatal.
					"id":      "broken",
					"summary": "?",
				},
			},
		})
	})

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	events, err := client.ListEvents(context.Background(), "primary", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "g1", events[0].ExternalID)
	assert.Equal(t, "Standup", events[0].Title)
	assert.Equal(t, models.SourceExternal, events[0].Source)
	assert.False(t, events[0].IsAllDay)

	assert.Equal(t, "g2", events[1].ExternalID)
	assert.True(t, events[1].IsAllDay)
}

func TestListEventsPagination(t *testing.T) {
	var page atomic.Int32
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		if page.Add(1) == 1 {
			assert.Empty(t, r.URL.Query().Get("pageToken"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{
					"id":    "g1",
					"start": map[string]string{"dateTime": "2024-01-15T09:00:00Z"},
					"end":   map[string]string{"dateTime": "2024-01-15T10:00:00Z"},
				}},
				"nextPageToken": "page2",
			})
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("pageToken"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"id":    "g2",
				"start": map[string]string{"dateTime": "2024-01-16T09:00:00Z"},
				"end":   map[string]string{"dateTime": "2024-01-16T10:00:00Z"},
			}},
		})
	})

	from := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	events, err := client.ListEvents(context.Background(), "primary", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCreateEvent(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body googleEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Focus block", body.Summary)

		body.ID = "created-1"
		_ = json.NewEncoder(w).Encode(body)
	})

	created, err := client.CreateEvent(context.Background(), "primary", &models.Event{
		ID:        "local-1",
		UserID:    "user-1",
		Title:     "Focus block",
		StartTime: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ExternalID)
	assert.Equal(t, "user-1", created.UserID)
}

func TestDeleteEvent(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Contains(t, r.URL.Path, "/events/ext-1")
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, client.DeleteEvent(context.Background(), "primary", "ext-1"))
}

func TestUpdateEventRequiresExternalID(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.UpdateEvent(context.Background(), "primary", &models.Event{ID: "local-only"})
	assert.Error(t, err)
}

func TestListCalendarsAndValidate(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/users/me/calendarList")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "primary", "summary": "Personal", "primary": true, "timeZone": "UTC"},
				{"id": "team", "summary": "Team"},
			},
		})
	})

	cals, err := client.ListCalendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 2)
	assert.True(t, cals[0].Primary)

	assert.NoError(t, client.ValidateCredentials(context.Background()))
}

func TestAPIErrorSurfaces(t *testing.T) {
	client := testGoogleClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient permissions"}}`))
	})

	_, err := client.ListCalendars(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

// countingTokenSource counts upstream refreshes.
type countingTokenSource struct {
	mu    sync.Mutex
	count int
}

func (c *countingTokenSource) Token() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return &oauth2.Token{
		AccessToken: "tok",
		Expiry:      time.Now().Add(time.Hour),
	}, nil
}

func TestTokenRefreshCollapses(t *testing.T) {
	upstream := &countingTokenSource{}
	src := newCollapsingTokenSource(upstream)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := src.Token()
			assert.NoError(t, err)
			assert.Equal(t, "tok", tok.AccessToken)
		}()
	}
	wg.Wait()

	upstream.mu.Lock()
	defer upstream.mu.Unlock()
	assert.LessOrEqual(t, upstream.count, 2, "concurrent refreshes should collapse")
}
