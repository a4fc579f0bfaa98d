// Uses the official google.golang.org/genai SDK, mirroring how the teacher's
// model/gemini package wraps it: build genai.Content from our Message list,
// call GenerateContent (or the streaming iterator), and translate the
// response back into our tagged Message/ToolCall shape.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiConfig configures a Gemini-backed Provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

type geminiProvider struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiProvider{client: client, cfg: cfg}, nil
}

func (p *geminiProvider) ModelName() string { return p.cfg.Model }
func (p *geminiProvider) Close() error      { return nil }

func (p *geminiProvider) buildContents(messages []Message) ([]*genai.Content, string) {
	var system string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleTool:
			part := genai.NewPartFromFunctionResponse(m.Name, map[string]any{"result": m.Content})
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{part}})
		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, tc.Arguments))
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		}
	}
	return contents, system
}

func (p *geminiProvider) buildConfig(system string, tools []ToolDefinition) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.cfg.Temperature)),
	}
	if p.cfg.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.cfg.MaxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaFromMap(t.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

// schemaFromMap does a best-effort conversion of a plain JSON-schema map
// (as produced by invopop/jsonschema) into genai's typed Schema, since the
// SDK does not accept raw maps for function parameters.
func schemaFromMap(m map[string]any) *genai.Schema {
	if m == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	s := &genai.Schema{Type: genai.TypeObject}
	props, _ := m["properties"].(map[string]any)
	if len(props) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			pm, _ := raw.(map[string]any)
			s.Properties[name] = &genai.Schema{Type: genaiTypeOf(pm), Description: descOf(pm)}
		}
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = req
	}
	return s
}

func genaiTypeOf(pm map[string]any) genai.Type {
	switch pm["type"] {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

func descOf(pm map[string]any) string {
	d, _ := pm["description"].(string)
	return d
}

func (p *geminiProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (Response, error) {
	contents, system := p.buildContents(messages)
	resp, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, contents, p.buildConfig(system, tools))
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseGeminiResponse(resp), nil
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) Response {
	var out Response
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: part.FunctionCall.Args,
			})
		}
	}
	if resp.UsageMetadata != nil {
		out.Tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return out
}

func (p *geminiProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	contents, system := p.buildContents(messages)
	config := p.buildConfig(system, tools)
	out := make(chan StreamChunk, 32)

	go func() {
		defer close(out)
		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.cfg.Model, contents, config) {
			if err != nil {
				out <- StreamChunk{Err: fmt.Errorf("gemini stream: %w", err)}
				return
			}
			r := parseGeminiResponse(resp)
			if r.Text != "" {
				out <- StreamChunk{Text: r.Text}
			}
			for i := range r.ToolCalls {
				out <- StreamChunk{ToolCall: &r.ToolCalls[i]}
			}
		}
		out <- StreamChunk{Done: true}
	}()

	return out, nil
}
