package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codefolio/internal/domain/models"
)

// Client is an HTTP client for the record API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for cfg.ServerURL.
func New(cfg *Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListFiles fetches the authoritative record list.
func (c *Client) ListFiles(ctx context.Context) ([]models.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/files", nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, problemError(resp)
	}

	var records []models.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// WebSocketURL maps the server URL onto its ws:// or wss:// change channel.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// problemError reads an RFC 7807 body into an error
func problemError(resp *http.Response) error {
	var problem struct {
		Detail string `json:"detail"`
		Code   string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&problem)

	if problem.Detail == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if problem.Code != "" {
		return fmt.Errorf("server returned %s (%s): %s", resp.Status, problem.Code, problem.Detail)
	}
	return fmt.Errorf("server returned %s: %s", resp.Status, problem.Detail)
}
