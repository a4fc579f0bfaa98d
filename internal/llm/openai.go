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

// OpenAIConfig configures an OpenAI Chat Completions-backed Provider.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Host        string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

type openAIProvider struct {
	cfg    OpenAIConfig
	client *httpx.Client
}

func NewOpenAIProvider(cfg OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: openai API key is required")
	}
	if cfg.Host == "" {
		cfg.Host = "https://api.openai.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &openAIProvider{
		cfg: cfg,
		client: httpx.New(
			httpx.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpx.WithMaxRetries(cfg.MaxRetries),
			httpx.WithBaseDelay(cfg.RetryDelay),
			httpx.WithHeaderParser(parseOpenAIRateLimitHeaders),
		),
	}, nil
}

func (p *openAIProvider) ModelName() string { return p.cfg.Model }
func (p *openAIProvider) Close() error      { return nil }

type openAIFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIFunctionDef `json:"function"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	Name       string           `json:"name,omitempty"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream"`
	Tools       []openAITool    `json:"tools,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func toOpenAIMessages(messages []Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		om := openAIMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
		for _, tc := range m.ToolCalls {
			raw := tc.RawArgs
			if raw == "" {
				b, _ := json.Marshal(tc.Arguments)
				raw = string(b)
			}
			var oc openAIToolCall
			oc.ID = tc.ID
			oc.Type = "function"
			oc.Function.Name = tc.Name
			oc.Function.Arguments = raw
			om.ToolCalls = append(om.ToolCalls, oc)
		}
		out = append(out, om)
	}
	return out
}

func (p *openAIProvider) buildRequest(messages []Message, stream bool, tools []ToolDefinition) openAIRequest {
	req := openAIRequest{
		Model:       p.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Stream:      stream,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openAITool{Type: "function", Function: openAIFunctionDef{
			Name: t.Name, Description: t.Description, Parameters: t.Parameters,
		}})
	}
	return req
}

func (p *openAIProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (Response, error) {
	req := p.buildRequest(messages, false, tools)
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("marshal openai request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	var out openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode openai response: %w", err)
	}
	if out.Error != nil {
		return Response{}, fmt.Errorf("openai api error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return Response{}, fmt.Errorf("openai response had no choices")
	}

	msg := out.Choices[0].Message
	var calls []ToolCall
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args, RawArgs: tc.Function.Arguments})
	}
	return Response{Text: msg.Content, ToolCalls: calls, Tokens: out.Usage.TotalTokens}, nil
}

// GenerateStreaming decodes OpenAI's chat-completions SSE chunk stream.
func (p *openAIProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	req := p.buildRequest(messages, true, tools)
	out := make(chan StreamChunk, 32)

	go func() {
		defer close(out)
		body, err := json.Marshal(req)
		if err != nil {
			out <- StreamChunk{Err: fmt.Errorf("marshal openai request: %w", err)}
			return
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Host+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			out <- StreamChunk{Err: err}
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
		httpReq.Header.Set("Accept", "text/event-stream")

		resp, err := p.client.Do(httpReq)
		if err != nil {
			out <- StreamChunk{Err: fmt.Errorf("openai stream request: %w", err)}
			return
		}
		defer resp.Body.Close()

		type toolBuf struct {
			id, name string
			args     strings.Builder
		}
		pending := map[int]*toolBuf{}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				break
			}
			var chunk struct {
				Choices []struct {
					Delta struct {
						Content   string `json:"content"`
						ToolCalls []struct {
							Index    int    `json:"index"`
							ID       string `json:"id"`
							Function struct {
								Name      string `json:"name"`
								Arguments string `json:"arguments"`
							} `json:"function"`
						} `json:"tool_calls"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil || len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta
			if delta.Content != "" {
				out <- StreamChunk{Text: delta.Content}
			}
			for _, tc := range delta.ToolCalls {
				buf, ok := pending[tc.Index]
				if !ok {
					buf = &toolBuf{}
					pending[tc.Index] = buf
				}
				if tc.ID != "" {
					buf.id = tc.ID
				}
				if tc.Function.Name != "" {
					buf.name = tc.Function.Name
				}
				buf.args.WriteString(tc.Function.Arguments)
			}
		}
		for _, buf := range pending {
			var args map[string]any
			_ = json.Unmarshal([]byte(buf.args.String()), &args)
			out <- StreamChunk{ToolCall: &ToolCall{ID: buf.id, Name: buf.name, Arguments: args, RawArgs: buf.args.String()}}
		}
		out <- StreamChunk{Done: true}
	}()

	return out, nil
}

func parseOpenAIRateLimitHeaders(h http.Header) httpx.RateLimitInfo {
	var info httpx.RateLimitInfo
	if ra := h.Get("retry-after"); ra != "" {
		if secs, err := time.ParseDuration(ra + "s"); err == nil {
			info.RetryAfter = secs
		}
	}
	return info
}
