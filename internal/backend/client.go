// Package backend is a thin client for the note-keeping HTTP API. Only the
// content-creation endpoint is wired; everything else the backend offers is
// outside this system.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Content is the creation payload the backend accepts.
type Content struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags,omitempty"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateContent posts a content payload. The backend authenticates with a
// bare "token" header rather than an Authorization scheme.
func (c *Client) CreateContent(ctx context.Context, content Content) error {
	body, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/content", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("create content: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
