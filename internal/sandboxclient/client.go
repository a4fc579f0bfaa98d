// Package sandboxclient is a thin HTTP client over a per-agent sandbox's
// wire API. The sandbox's own internals (how it provisions a container,
// runs the shell, serves files) are an external collaborator and out of
// scope here — only the request/response contract matters.
package sandboxclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sandboxkernel/kernel/internal/httpx"
)

// Client talks to one sandbox instance's HTTP API at baseURL (typically
// http://<sandbox-host>:8080).
type Client struct {
	baseURL string
	http    *httpx.Client
}

// maxInflightRequests bounds how many sandbox HTTP calls one Client (each
// agent gets its own) issues at once; the sandbox's own supervisor
// multiplexes many more shell sessions than its HTTP control plane can
// usefully serve in parallel, so callers beyond the limit queue here
// rather than piling up retries against an overloaded sandbox.
const maxInflightRequests = 64

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

// Result mirrors the sandbox API's generic {success, output, error} envelope.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method, path string, body any) (Result, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("sandboxclient: marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return Result{}, fmt.Errorf("sandboxclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("sandboxclient: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("sandboxclient: decode response: %w", err)
	}
	if !out.Success {
		return out, fmt.Errorf("sandboxclient: %s %s failed: %s", method, path, out.Error)
	}
	return out, nil
}

// ExecCommand runs a shell command in the session's execution directory.
func (c *Client) ExecCommand(ctx context.Context, sessionID, execDir, command string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/shell/exec", map[string]any{
		"session_id": sessionID, "exec_dir": execDir, "command": command,
	})
}

// ViewShell returns the current shell session's console output.
func (c *Client) ViewShell(ctx context.Context, sessionID string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/shell/view", map[string]any{"session_id": sessionID})
}

// WaitForProcess blocks until the foreground process exits or seconds elapse.
func (c *Client) WaitForProcess(ctx context.Context, sessionID string, seconds *int) (Result, error) {
	return c.call(ctx, http.MethodPost, "/shell/wait", map[string]any{"session_id": sessionID, "seconds": seconds})
}

// WriteToProcess sends input to the shell's foreground process.
func (c *Client) WriteToProcess(ctx context.Context, sessionID, input string, pressEnter bool) (Result, error) {
	return c.call(ctx, http.MethodPost, "/shell/write", map[string]any{
		"session_id": sessionID, "input": input, "press_enter": pressEnter,
	})
}

// KillProcess terminates the shell's foreground process.
func (c *Client) KillProcess(ctx context.Context, sessionID string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/shell/kill", map[string]any{"session_id": sessionID})
}

// FileWrite writes (or appends to) a file.
func (c *Client) FileWrite(ctx context.Context, file, content string, append, leadingNL, trailingNL, sudo bool) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/write", map[string]any{
		"file": file, "content": content, "append": append,
		"leading_newline": leadingNL, "trailing_newline": trailingNL, "sudo": sudo,
	})
}

// FileRead reads a file, optionally restricted to a line range.
func (c *Client) FileRead(ctx context.Context, file string, startLine, endLine *int, sudo bool) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/read", map[string]any{
		"file": file, "start_line": startLine, "end_line": endLine, "sudo": sudo,
	})
}

// FileExists checks whether a path exists in the sandbox.
func (c *Client) FileExists(ctx context.Context, path string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/exists", map[string]any{"path": path})
}

// FileDelete removes a file.
func (c *Client) FileDelete(ctx context.Context, path string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/delete", map[string]any{"path": path})
}

// FileList lists a directory's contents.
func (c *Client) FileList(ctx context.Context, path string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/list", map[string]any{"path": path})
}

// FileReplace replaces a literal substring within a file.
func (c *Client) FileReplace(ctx context.Context, file, oldStr, newStr string, sudo bool) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/replace", map[string]any{
		"file": file, "old_str": oldStr, "new_str": newStr, "sudo": sudo,
	})
}

// FileSearch searches a file's content by regular expression.
func (c *Client) FileSearch(ctx context.Context, file, regex string, sudo bool) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/search", map[string]any{"file": file, "regex": regex, "sudo": sudo})
}

// FileFind finds files under path matching a glob pattern.
func (c *Client) FileFind(ctx context.Context, path, globPattern string) (Result, error) {
	return c.call(ctx, http.MethodPost, "/file/find", map[string]any{"path": path, "glob_pattern": globPattern})
}

// Destroy tears down the sandbox instance backing this client.
func (c *Client) Destroy(ctx context.Context) error {
	_, err := c.call(ctx, http.MethodPost, "/sandbox/destroy", nil)
	return err
}
