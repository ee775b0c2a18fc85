package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Provider over OpenAI's chat completions API.
type OpenAIProvider struct {
	client openai.Client
}

// NewOpenAIProvider builds a provider using apiKey for authentication.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	userContent := req.UserPrompt
	if req.Context != "" {
		userContent = fmt.Sprintf("%s\n\n---\n\n## Context (generated code from imported prompts)\n\n%s\n", req.UserPrompt, req.Context)
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(userContent))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.Seed != nil {
		params.Seed = openai.Int(int64(*req.Seed))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return GenerationResponse{}, classifyOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return GenerationResponse{}, fmt.Errorf("%w: no choices returned", ErrEmpty)
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return GenerationResponse{}, fmt.Errorf("%w: empty message content", ErrEmpty)
	}

	return GenerationResponse{
		Content:   content,
		TokensIn:  uint64(completion.Usage.PromptTokens),
		TokensOut: uint64(completion.Usage.CompletionTokens),
		Model:     completion.Model,
	}, nil
}

func classifyOpenAIError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "invalid_api_key") || strings.Contains(lower, "401"):
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	case strings.Contains(lower, "rate_limit") || strings.Contains(lower, "429"):
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case strings.Contains(lower, "503") || strings.Contains(lower, "502") || strings.Contains(lower, "timeout"):
		return fmt.Errorf("%w: %s", ErrTransient, msg)
	default:
		return fmt.Errorf("openai API error: %s", msg)
	}
}
