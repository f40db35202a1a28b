package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultPushoverURL is the production Pushover messages endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// PushoverClient sends push messages through the Pushover HTTP API.
type PushoverClient struct {
	httpClient *http.Client
	url        string
	appToken   string
	logger     *slog.Logger
}

// NewPushoverClient creates a Pushover client. An empty url selects the
// production endpoint.
func NewPushoverClient(url, appToken string, logger *slog.Logger) *PushoverClient {
	if url == "" {
		url = DefaultPushoverURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PushoverClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
		appToken:   appToken,
		logger:     logger,
	}
}

// PushMessage is one push delivery request.
type PushMessage struct {
	UserKey  string
	Message  string
	Title    string
	Priority int // Pushover range -2..2
	Sound    string
}

// pushoverRequest is the wire payload for the messages endpoint.
type pushoverRequest struct {
	Token    string `json:"token"`
	User     string `json:"user"`
	Message  string `json:"message"`
	Title    string `json:"title"`
	Priority int    `json:"priority"`
	Sound    string `json:"sound,omitempty"`
}

// pushoverError is the JSON error body returned on non-2xx status.
type pushoverError struct {
	Errors []string `json:"errors"`
}

// Send posts one message. A non-success HTTP status is a failure; the error
// message is extracted from the response body when present.
func (c *PushoverClient) Send(ctx context.Context, msg PushMessage) error {
	if c.appToken == "" {
		return fmt.Errorf("pushover app token not configured")
	}
	if msg.UserKey == "" {
		return fmt.Errorf("pushover user key is empty")
	}
	if msg.Title == "" {
		msg.Title = defaultTitle
	}
	if msg.Sound == "" {
		msg.Sound = defaultSound
	}

	payload, err := json.Marshal(pushoverRequest{
		Token:    c.appToken,
		User:     msg.UserKey,
		Message:  msg.Message,
		Title:    msg.Title,
		Priority: msg.Priority,
		Sound:    msg.Sound,
	})
	if err != nil {
		return fmt.Errorf("encode pushover payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pushover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	var perr pushoverError
	if json.Unmarshal(body, &perr) == nil && len(perr.Errors) > 0 {
		return fmt.Errorf("pushover returned %d: %s", resp.StatusCode, perr.Errors[0])
	}
	return fmt.Errorf("pushover returned %d", resp.StatusCode)
}
