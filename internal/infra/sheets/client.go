// Package sheets pushes completed leads to the academy's Google Sheet web
// app. Delivery is best-effort: callers log failures and move on.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

type Client struct {
	WebAppURL  string
	HTTPClient *http.Client
}

func NewClient(webAppURL string, opts ...func(*Client)) *Client {
	c := &Client{
		WebAppURL:  webAppURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func WithTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// DeliverLead posts the lead as a flat JSON object. Success is any 2xx
// within the client timeout.
func (c *Client) DeliverLead(ctx context.Context, lead domain.Lead) error {
	if c == nil {
		return errors.New("sheets client is nil")
	}
	if strings.TrimSpace(c.WebAppURL) == "" {
		return errors.New("sheet web app url is not set")
	}

	payload := map[string]any{
		"id":         lead.ID,
		"name":       lead.Name,
		"email":      lead.Email,
		"user_id":    lead.UserID,
		"username":   lead.Username,
		"status":     lead.Status,
		"created_at": lead.CreatedAt.Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebAppURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheet web app non-2xx: %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
