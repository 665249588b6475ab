package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Ensure GeminiChat implements ChatModel
var _ driven.ChatModel = (*GeminiChat)(nil)

// DefaultGeminiChatModel is the generative model used when none is configured.
const DefaultGeminiChatModel = "gemini-flash-latest"

// GeminiChat implements ChatModel using the Gemini API with function calling.
type GeminiChat struct {
	client *genai.Client
	model  string
}

// NewGeminiChat creates a Gemini chat model client.
func NewGeminiChat(ctx context.Context, apiKey, model string) (*GeminiChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiChatModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiChat{client: client, model: model}, nil
}

// Generate produces the next model turn for the given request.
func (g *GeminiChat) Generate(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	contents, err := buildContents(req.Turns)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: buildDeclarations(req.Tools)}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChatModel, err)
	}

	out := &domain.ChatResponse{Text: resp.Text()}
	for _, fc := range resp.FunctionCalls() {
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			Name: fc.Name,
			Args: fc.Args,
		})
	}

	return out, nil
}

// Model returns the model name being used.
func (g *GeminiChat) Model() string {
	return g.model
}

// Close releases resources held by the chat model client.
func (g *GeminiChat) Close() error {
	return nil
}

// buildContents converts the transcript into the Gemini content format.
// Function responses travel as user-role parts, matching the API contract.
func buildContents(turns []domain.ChatTurn) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, turn := range turns {
		switch turn.Role {
		case domain.ChatRoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Text, genai.RoleUser))

		case domain.ChatRoleModel:
			var parts []*genai.Part
			if turn.Text != "" {
				parts = append(parts, genai.NewPartFromText(turn.Text))
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, genai.NewPartFromFunctionCall(call.Name, call.Args))
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))

		case domain.ChatRoleTool:
			var parts []*genai.Part
			for _, result := range turn.ToolResults {
				payload := map[string]any{"result": result.Content}
				if result.Error != "" {
					payload = map[string]any{"error": result.Error}
				}
				parts = append(parts, genai.NewPartFromFunctionResponse(result.Name, payload))
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

		default:
			return nil, fmt.Errorf("%w: unknown chat role %q", domain.ErrInvalidInput, turn.Role)
		}
	}
	return contents, nil
}

func buildDeclarations(tools []domain.ToolDeclaration) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		properties := make(map[string]*genai.Schema, len(tool.Parameters.Properties))
		for name, spec := range tool.Parameters.Properties {
			properties[name] = &genai.Schema{
				Type:        schemaType(spec.Type),
				Description: spec.Description,
			}
		}

		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   tool.Parameters.Required,
			},
		})
	}
	return decls
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
