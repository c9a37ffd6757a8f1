package theme

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
)

// Generator turns a free-text description into a theme
type Generator interface {
	Generate(ctx context.Context, description string) (Theme, error)
}

// ErrEmptyDescription is returned before any request is made
var ErrEmptyDescription = errors.New("theme description is empty")

const maxResponseBytes = 1 << 20

// Client talks to a remote theme-generation endpoint over HTTP.
// The endpoint receives {"description": "..."} and answers with a theme document.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Generate requests a theme for description
func (c *Client) Generate(ctx context.Context, description string) (Theme, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Theme{}, ErrEmptyDescription
	}

	body, err := json.Marshal(struct {
		Description string `json:"description"`
	}{description})
	if err != nil {
		return Theme{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Theme{}, fmt.Errorf("generate theme: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Theme{}, fmt.Errorf("generate theme: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Theme{}, fmt.Errorf("generate theme: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Theme{}, fmt.Errorf("generate theme: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	t, err := Decode(data)
	if err != nil {
		return Theme{}, fmt.Errorf("generate theme: %w", err)
	}
	if t.Description == "" {
		t.Description = description
	}
	return t, nil
}

// Resolve asks g for a theme and falls back to DefaultTheme on any failure.
// The returned theme is always usable; the error only reports why the
// fallback was taken.
func Resolve(ctx context.Context, g Generator, description string) (Theme, error) {
	if g == nil {
		return DefaultTheme(), errors.New("no theme generator configured")
	}
	t, err := g.Generate(ctx, description)
	if err != nil {
		return DefaultTheme(), err
	}
	return t, nil
}
