// Package browserclient is a thin HTTP client over a per-agent sandbox's
// browser-automation endpoint. Browser automation internals (the CDP
// session, Playwright driver) are an external collaborator and out of
// scope here — only the operation set and result shape matter.
package browserclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sandboxkernel/kernel/internal/httpx"
)

type Client struct {
	baseURL string
	http    *httpx.Client
}

// maxInflightRequests bounds concurrent browser-automation calls made
// through one Client; each agent gets its own Client, so the bound is per
// agent.
const maxInflightRequests = 32

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: httpx.New(
			httpx.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
			httpx.WithMaxRetries(2),
			httpx.WithBaseDelay(500*time.Millisecond),
			httpx.WithConcurrencyLimit(maxInflightRequests),
		),
	}
}

type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, op string, body any) (Result, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("browserclient: marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/browser/"+op, bytes.NewReader(b))
	if err != nil {
		return Result{}, fmt.Errorf("browserclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("browserclient: %s: %w", op, err)
	}
	defer resp.Body.Close()

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("browserclient: decode %s response: %w", op, err)
	}
	if !out.Success {
		return out, fmt.Errorf("browserclient: %s failed: %s", op, out.Error)
	}
	return out, nil
}

func (c *Client) ViewPage(ctx context.Context) (Result, error) { return c.call(ctx, "view_page", nil) }

func (c *Client) Navigate(ctx context.Context, url string) (Result, error) {
	return c.call(ctx, "navigate", map[string]any{"url": url})
}

func (c *Client) Restart(ctx context.Context, url string) (Result, error) {
	return c.call(ctx, "restart", map[string]any{"url": url})
}

func (c *Client) Click(ctx context.Context, index *int, x, y *float64) (Result, error) {
	return c.call(ctx, "click", map[string]any{"index": index, "coordinate_x": x, "coordinate_y": y})
}

func (c *Client) Input(ctx context.Context, text string, pressEnter bool, index *int, x, y *float64) (Result, error) {
	return c.call(ctx, "input", map[string]any{
		"text": text, "press_enter": pressEnter, "index": index, "coordinate_x": x, "coordinate_y": y,
	})
}

func (c *Client) MoveMouse(ctx context.Context, x, y float64) (Result, error) {
	return c.call(ctx, "move_mouse", map[string]any{"coordinate_x": x, "coordinate_y": y})
}

func (c *Client) PressKey(ctx context.Context, key string) (Result, error) {
	return c.call(ctx, "press_key", map[string]any{"key": key})
}

func (c *Client) SelectOption(ctx context.Context, index, option int) (Result, error) {
	return c.call(ctx, "select_option", map[string]any{"index": index, "option": option})
}

func (c *Client) ScrollUp(ctx context.Context, toTop *bool) (Result, error) {
	return c.call(ctx, "scroll_up", map[string]any{"to_top": toTop})
}

func (c *Client) ScrollDown(ctx context.Context, toBottom *bool) (Result, error) {
	return c.call(ctx, "scroll_down", map[string]any{"to_bottom": toBottom})
}

func (c *Client) ConsoleExec(ctx context.Context, javascript string) (Result, error) {
	return c.call(ctx, "console_exec", map[string]any{"javascript": javascript})
}

func (c *Client) ConsoleView(ctx context.Context, maxLines *int) (Result, error) {
	return c.call(ctx, "console_view", map[string]any{"max_lines": maxLines})
}
