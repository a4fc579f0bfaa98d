package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sandboxkernel/kernel/internal/httpx"
)

// AnthropicConfig configures an Anthropic-backed Provider.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	Host        string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type anthropicProvider struct {
	cfg    AnthropicConfig
	client *httpx.Client
}

// NewAnthropicProvider builds a Provider that talks to the Anthropic
// Messages API directly over REST.
func NewAnthropicProvider(cfg AnthropicConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: anthropic API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.anthropic.com"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &anthropicProvider{
		cfg: cfg,
		client: httpx.New(
			httpx.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpx.WithMaxRetries(cfg.MaxRetries),
			httpx.WithBaseDelay(cfg.RetryDelay),
			httpx.WithHeaderParser(parseAnthropicRateLimitHeaders),
		),
	}, nil
}

func (p *anthropicProvider) ModelName() string { return p.cfg.Model }
func (p *anthropicProvider) Close() error      { return nil }

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     *map[string]any `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *anthropicProvider) buildRequest(messages []Message, stream bool, tools []ToolDefinition) anthropicRequest {
	var systemParts []string
	msgs := make([]anthropicMessage, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if m.Content != "" {
				systemParts = append(systemParts, m.Content)
			}
		case RoleUser:
			msgs = append(msgs, anthropicMessage{Role: "user", Content: []anthropicContent{{Type: "text", Text: m.Content}}})
		case RoleTool:
			msgs = append(msgs, anthropicMessage{Role: "user", Content: []anthropicContent{{
				Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content,
			}}})
		case RoleAssistant:
			var blocks []anthropicContent
			if m.Content != "" {
				blocks = append(blocks, anthropicContent{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				args := tc.Arguments
				blocks = append(blocks, anthropicContent{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: &args})
			}
			msgs = append(msgs, anthropicMessage{Role: "assistant", Content: blocks})
		}
	}

	req := anthropicRequest{
		Model:       p.cfg.Model,
		Messages:    msgs,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Stream:      stream,
		System:      strings.Join(systemParts, "\n\n"),
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	return req
}

func (p *anthropicProvider) makeRequest(ctx context.Context, req anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode anthropic response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("anthropic api error: %s", out.Error.Message)
	}
	return &out, nil
}

func (p *anthropicProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (Response, error) {
	req := p.buildRequest(messages, false, tools)
	resp, err := p.makeRequest(ctx, req)
	if err != nil {
		return Response{}, err
	}

	var text string
	var calls []ToolCall
	for _, c := range resp.Content {
		switch c.Type {
		case "text":
			text += c.Text
		case "tool_use":
			var args map[string]any
			if c.Input != nil {
				args = *c.Input
			}
			calls = append(calls, ToolCall{ID: c.ID, Name: c.Name, Arguments: args})
		}
	}
	return Response{Text: text, ToolCalls: calls, Tokens: resp.Usage.InputTokens + resp.Usage.OutputTokens}, nil
}

// GenerateStreaming issues a streaming request and decodes Anthropic's SSE
// event frames, emitting text deltas as they arrive. A tool-use block's
// arguments arrive as partial JSON, so each tool call is buffered and
// surfaced as a single chunk when its content block stops.
func (p *anthropicProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	req := p.buildRequest(messages, true, tools)
	out := make(chan StreamChunk, 32)

	go func() {
		defer close(out)
		body, err := json.Marshal(req)
		if err != nil {
			out <- StreamChunk{Err: fmt.Errorf("marshal anthropic request: %w", err)}
			return
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			out <- StreamChunk{Err: err}
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", p.cfg.APIKey)
		httpReq.Header.Set("anthropic-version", "2023-06-01")
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			out <- StreamChunk{Err: fmt.Errorf("anthropic stream request: %w", err)}
			return
		}
		defer resp.Body.Close()

		var pendingCall *ToolCall
		var pendingArgs strings.Builder

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var evt struct {
				Type  string `json:"type"`
				Delta struct {
					Type        string `json:"type"`
					Text        string `json:"text"`
					PartialJSON string `json:"partial_json"`
				} `json:"delta"`
				ContentBlock struct {
					Type string `json:"type"`
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"content_block"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
				continue
			}
			switch evt.Type {
			case "content_block_start":
				if evt.ContentBlock.Type == "tool_use" {
					pendingCall = &ToolCall{ID: evt.ContentBlock.ID, Name: evt.ContentBlock.Name}
					pendingArgs.Reset()
				}
			case "content_block_delta":
				switch evt.Delta.Type {
				case "text_delta":
					out <- StreamChunk{Text: evt.Delta.Text}
				case "input_json_delta":
					pendingArgs.WriteString(evt.Delta.PartialJSON)
				}
			case "content_block_stop":
				if pendingCall != nil {
					var args map[string]any
					_ = json.Unmarshal([]byte(pendingArgs.String()), &args)
					pendingCall.Arguments = args
					pendingCall.RawArgs = pendingArgs.String()
					out <- StreamChunk{ToolCall: pendingCall}
					pendingCall = nil
				}
			}
		}
		out <- StreamChunk{Done: true}
	}()

	return out, nil
}

func parseAnthropicRateLimitHeaders(h http.Header) httpx.RateLimitInfo {
	var info httpx.RateLimitInfo
	if ra := h.Get("retry-after"); ra != "" {
		if secs, err := time.ParseDuration(ra + "s"); err == nil {
			info.RetryAfter = secs
		}
	}
	return info
}
