// Package email wraps the transactional email provider's REST API.
package email

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

// Message is a single transactional email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers transactional email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to the provider's REST API with a bearer key.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	from    string
}

// NewClient constructs a provider client. baseURL has no trailing slash.
func NewClient(baseURL, apiKey, from string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		from:    from,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Bounded read so a misbehaving provider cannot balloon logs.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send email: provider returned %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// NoopSender logs instead of sending. Used in development when no API key
// is configured, and in tests.
type NoopSender struct {
	Logger *slog.Logger
}

func (n NoopSender) Send(ctx context.Context, msg Message) error {
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "email suppressed (no provider configured)",
			"to", msg.To,
			"subject", msg.Subject,
		)
	}
	return nil
}
