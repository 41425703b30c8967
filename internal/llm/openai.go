package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
)

// OpenAIClient wraps the OpenAI chat completions API
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client bound to one API key. An empty baseURL
// uses the SDK default. SDK-level retries are disabled: a failed call is
// reported to the caller immediately.
func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	opts := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, oaioption.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
	}
}

// Complete sends the conversation and returns the first choice's content.
// A reply without choices yields an empty string.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Temperature: openai.Float(req.Temperature),
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the SDK holds no resources that need releasing
func (c *OpenAIClient) Close() error {
	return nil
}
