package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 16384

// AnthropicProvider implements Provider over Anthropic's Messages API.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds a provider using apiKey for authentication.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	userContent := req.UserPrompt
	if req.Context != "" {
		userContent = fmt.Sprintf("%s\n\n---\n\n## Context (generated code from imported prompts)\n\n%s\n", req.UserPrompt, req.Context)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContent)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return GenerationResponse{}, classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return GenerationResponse{}, fmt.Errorf("%w: stop_reason=%s", ErrEmpty, resp.StopReason)
	}

	return GenerationResponse{
		Content:   text.String(),
		TokensIn:  uint64(resp.Usage.InputTokens),
		TokensOut: uint64(resp.Usage.OutputTokens),
		Model:     string(resp.Model),
	}, nil
}

// classifyAnthropicError maps SDK errors onto the provider failure
// taxonomy so the pipeline driver knows whether to retry or abort.
func classifyAnthropicError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "401"):
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	case strings.Contains(lower, "rate_limit") || strings.Contains(lower, "429"):
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case strings.Contains(lower, "overloaded") || strings.Contains(lower, "503") || strings.Contains(lower, "502"):
		return fmt.Errorf("%w: %s", ErrTransient, msg)
	default:
		return fmt.Errorf("anthropic API error: %s", msg)
	}
}
