package calendarapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNotFound is returned when the provider reports the event or calendar as missing.
var ErrNotFound = errors.New("calendar resource not found")

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("calendar api %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("calendar api %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 responses to ErrNotFound.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// ItemBody is the event description.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// DateTimeTimeZone is a wall-clock value in a named zone.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Event is the provider event resource.
type Event struct {
	ID         string           `json:"id,omitempty"`
	Subject    string           `json:"subject"`
	Body       ItemBody         `json:"body"`
	Start      DateTimeTimeZone `json:"start"`
	End        DateTimeTimeZone `json:"end"`
	IsAllDay   bool             `json:"isAllDay"`
	ShowAs     string           `json:"showAs"`
	Categories []string         `json:"categories"`
}

// Client calls the provider REST API with per-call bearer tokens.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client. A nil httpClient uses a client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// CreateEvent posts a new event and returns the provider id. An empty calendarID targets the default calendar.
func (c *Client) CreateEvent(ctx context.Context, accessToken, calendarID string, event Event) (string, error) {
	path := "/me/events"
	if calendarID != "" {
		path = "/me/calendars/" + url.PathEscape(calendarID) + "/events"
	}
	var created Event
	if err := c.do(ctx, accessToken, http.MethodPost, path, event, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar api: create response without event id")
	}
	return created.ID, nil
}

// UpdateEvent patches an existing event.
func (c *Client) UpdateEvent(ctx context.Context, accessToken, eventID string, event Event) error {
	event.ID = ""
	return c.do(ctx, accessToken, http.MethodPatch, "/me/events/"+url.PathEscape(eventID), event, nil)
}

// DeleteEvent removes an event. A missing event is reported as ErrNotFound.
func (c *Client) DeleteEvent(ctx context.Context, accessToken, eventID string) error {
	return c.do(ctx, accessToken, http.MethodDelete, "/me/events/"+url.PathEscape(eventID), nil, nil)
}

// Ping performs a cheap authenticated read of the default calendar.
func (c *Client) Ping(ctx context.Context, accessToken string) error {
	return c.do(ctx, accessToken, http.MethodGet, "/me/calendar", nil, nil)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.authorized(ctx, accessToken).Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) authorized(ctx context.Context, accessToken string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
		apiErr.Code = envelope.Error.Code
		if envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
		}
	}
	return apiErr
}
