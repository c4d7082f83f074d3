package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
)

const (
	apiBase       = "https://www.googleapis.com/calendar/v3"
	calendarScope = "https://www.googleapis.com/auth/calendar"
)

// Timezone is fixed for every calendar operation: the assistant serves one
// owner in São Paulo and every ISO timestamp carries the -03:00 offset.
const Timezone = "America/Sao_Paulo"

// Event is the subset of the Google Calendar event resource the agents use.
type Event struct {
	ID      string    `json:"id,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Start   EventTime `json:"start,omitempty"`
	End     EventTime `json:"end,omitempty"`
	Status  string    `json:"status,omitempty"`
}

type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Patch carries the mutable fields of an event; zero values are omitted from
// the request so the API leaves them untouched.
type Patch struct {
	Summary string `json:"summary,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// Client talks to the Google Calendar v3 REST API with a service-account
// token source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	calendarID string
}

// New builds a Client from service-account JSON credentials.
func New(ctx context.Context, credentialsFile, calendarID string) (*Client, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(raw, calendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	return &Client{
		httpClient: conf.Client(ctx),
		baseURL:    apiBase,
		calendarID: calendarID,
	}, nil
}

// ListEvents returns the events in the half-open window [startISO, endISO),
// ordered by start time.
func (c *Client) ListEvents(ctx context.Context, startISO, endISO string) ([]Event, error) {
	q := url.Values{}
	q.Set("timeMin", startISO)
	q.Set("timeMax", endISO)
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), q.Encode())
	var parsed struct {
		Items []Event `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &parsed); err != nil {
		return nil, err
	}
	log.Debug().Str("start", startISO).Str("end", endISO).Int("events", len(parsed.Items)).Msg("calendar_list_ok")
	return parsed.Items, nil
}

// CreateEvent inserts a new event and returns it with the server-assigned ID.
func (c *Client) CreateEvent(ctx context.Context, summary, startISO, endISO string) (*Event, error) {
	body := Event{
		Summary: summary,
		Start:   EventTime{DateTime: startISO, TimeZone: Timezone},
		End:     EventTime{DateTime: endISO, TimeZone: Timezone},
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))
	var created Event
	if err := c.do(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}
	log.Info().Str("event_id", created.ID).Str("summary", summary).Msg("calendar_event_created")
	return &created, nil
}

// PatchEvent applies a partial update to an existing event.
func (c *Client) PatchEvent(ctx context.Context, id string, patch Patch) (*Event, error) {
	body := struct {
		Summary string     `json:"summary,omitempty"`
		Start   *EventTime `json:"start,omitempty"`
		End     *EventTime `json:"end,omitempty"`
	}{Summary: patch.Summary}
	if patch.Start != "" {
		body.Start = &EventTime{DateTime: patch.Start, TimeZone: Timezone}
	}
	if patch.End != "" {
		body.End = &EventTime{DateTime: patch.End, TimeZone: Timezone}
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(id))
	var updated Event
	if err := c.do(ctx, http.MethodPatch, endpoint, body, &updated); err != nil {
		return nil, err
	}
	log.Info().Str("event_id", id).Msg("calendar_event_patched")
	return &updated, nil
}

// DeleteEvent removes an event by ID.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(id))
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return err
	}
	log.Info().Str("event_id", id).Msg("calendar_event_deleted")
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode calendar request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("calendar API status %d: %s", resp.StatusCode, string(payload))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode calendar response: %w", err)
	}
	return nil
}

// Location resolves the fixed assistant timezone, falling back to the static
// -03:00 offset when the zone database is unavailable.
func Location() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}
