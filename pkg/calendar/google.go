package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/beq-project/beq/pkg/models"
)

const googleBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleClient implements Provider against the Google Calendar v3 API.
type GoogleClient struct {
	baseURL string
	http    *http.Client
	tokens  *collapsingTokenSource
	logger  *slog.Logger
}

// NewGoogleClient builds a client from an OAuth2 token source. baseURL is
// overridable so tests can point at a local server; empty means the real
// Google endpoint.
func NewGoogleClient(src oauth2.TokenSource, baseURL string, timeout time.Duration, logger *slog.Logger) *GoogleClient {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  newCollapsingTokenSource(src),
		logger:  logger.With("component", "calendar.google"),
	}
}

// collapsingTokenSource wraps an oauth2.TokenSource so that concurrent
// callers needing a refresh share a single upstream token request.
type collapsingTokenSource struct {
	src oauth2.TokenSource
	sf  singleflight.Group
}

func newCollapsingTokenSource(src oauth2.TokenSource) *collapsingTokenSource {
	return &collapsingTokenSource{src: oauth2.ReuseTokenSource(nil, src)}
}

func (c *collapsingTokenSource) Token() (*oauth2.Token, error) {
	v, err, _ := c.sf.Do("token", func() (any, error) {
		return c.src.Token()
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

// googleEvent is the wire shape of a Calendar v3 event.
type googleEvent struct {
	ID          string     `json:"id,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       googleTime `json:"start"`
	End         googleTime `json:"end"`
	Recurrence  []string   `json:"recurrence,omitempty"`
	Status      string     `json:"status,omitempty"`
}

type googleTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	Timezone string `json:"timeZone,omitempty"`
}

type googleEventList struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

type googleCalendarList struct {
	Items []struct {
		ID       string `json:"id"`
		Summary  string `json:"summary"`
		Primary  bool   `json:"primary,omitempty"`
		Timezone string `json:"timeZone,omitempty"`
	} `json:"items"`
}

func (g *GoogleClient) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]*models.Event, error) {
	var events []*models.Event
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("timeMin", from.Format(time.RFC3339))
		q.Set("timeMax", to.Format(time.RFC3339))
		q.Set("singleEvents", "false")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page googleEventList
		path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(calendarID), q.Encode())
		if err := g.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("listing events: %w", err)
		}
		for i := range page.Items {
			ev, err := fromGoogleEvent(&page.Items[i])
			if err != nil {
				g.logger.Warn("skipping unparseable event", "event_id", page.Items[i].ID, "error", err)
				continue
			}
			events = append(events, ev)
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (g *GoogleClient) CreateEvent(ctx context.Context, calendarID string, event *models.Event) (*models.Event, error) {
	var created googleEvent
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	if err := g.do(ctx, http.MethodPost, path, toGoogleEvent(event), &created); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	out, err := fromGoogleEvent(&created)
	if err != nil {
		return nil, fmt.Errorf("parsing created event: %w", err)
	}
	out.UserID = event.UserID
	return out, nil
}

func (g *GoogleClient) UpdateEvent(ctx context.Context, calendarID string, event *models.Event) (*models.Event, error) {
	if event.ExternalID == "" {
		return nil, fmt.Errorf("event %s has no external id", event.ID)
	}
	var updated googleEvent
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(event.ExternalID))
	if err := g.do(ctx, http.MethodPut, path, toGoogleEvent(event), &updated); err != nil {
		return nil, fmt.Errorf("updating event: %w", err)
	}
	out, err := fromGoogleEvent(&updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated event: %w", err)
	}
	out.UserID = event.UserID
	return out, nil
}

func (g *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := g.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	return nil
}

func (g *GoogleClient) ListCalendars(ctx context.Context) ([]Calendar, error) {
	var list googleCalendarList
	if err := g.do(ctx, http.MethodGet, "/users/me/calendarList", nil, &list); err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}
	out := make([]Calendar, 0, len(list.Items))
	for _, item := range list.Items {
		out = append(out, Calendar{
			ID:       item.ID,
			Summary:  item.Summary,
			Primary:  item.Primary,
			Timezone: item.Timezone,
		})
	}
	return out, nil
}

func (g *GoogleClient) ValidateCredentials(ctx context.Context) error {
	_, err := g.ListCalendars(ctx)
	return err
}

// do executes one authenticated request and decodes the JSON response.
func (g *GoogleClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	token, err := g.tokens.Token()
	if err != nil {
		return fmt.Errorf("fetching access token: %w", err)
	}
	token.SetAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func toGoogleEvent(e *models.Event) *googleEvent {
	g := &googleEvent{
		ID:          e.ExternalID,
		Summary:     e.Title,
		Description: e.Description,
	}
	if e.IsAllDay {
		start, end := e.Span()
		g.Start = googleTime{Date: start.Format("2006-01-02")}
		g.End = googleTime{Date: end.Format("2006-01-02")}
	} else {
		g.Start = googleTime{DateTime: e.StartTime.Format(time.RFC3339), Timezone: e.Timezone}
		g.End = googleTime{DateTime: e.EndTime.Format(time.RFC3339), Timezone: e.Timezone}
	}
	if e.RecurrenceRule != "" {
		g.Recurrence = []string{e.RecurrenceRule}
	}
	return g
}

func fromGoogleEvent(g *googleEvent) (*models.Event, error) {
	e := &models.Event{
		ID:          models.NewID(),
		ExternalID:  g.ID,
		Title:       g.Summary,
		Description: g.Description,
		Source:      models.SourceExternal,
	}
	if len(g.Recurrence) > 0 {
		e.RecurrenceRule = g.Recurrence[0]
	}

	switch {
	case g.Start.Date != "":
		day, err := time.Parse("2006-01-02", g.Start.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid all-day start %q: %w", g.Start.Date, err)
		}
		e.IsAllDay = true
		e.StartTime = day
		e.EndTime = day.AddDate(0, 0, 1)
		e.Timezone = g.Start.Timezone
	case g.Start.DateTime != "":
		start, err := time.Parse(time.RFC3339, g.Start.DateTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start %q: %w", g.Start.DateTime, err)
		}
		end, err := time.Parse(time.RFC3339, g.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("invalid end %q: %w", g.End.DateTime, err)
		}
		e.StartTime = start
		e.EndTime = end
		e.Timezone = g.Start.Timezone
	default:
		return nil, fmt.Errorf("event %s has no start time", g.ID)
	}
	return e, nil
}
