package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/judica-dev/judica/internal/config"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat turn
type Message struct {
	Role    string
	Content string
}

// Request is one completion call
type Request struct {
	Model       string
	Temperature float64
	Messages    []Message
}

// Client is a chat-completion model service
type Client interface {
	// Complete returns the text of the first completion choice
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

var defaultModels = map[string]string{
	config.ProviderOpenAI:   "gpt-5.1",
	config.ProviderVertexAI: "gemini-1.5-flash",
}

// ResolveModel picks the configured model if provided, otherwise the provider's default
func ResolveModel(provider, configured string) string {
	if model := strings.TrimSpace(configured); model != "" {
		return model
	}
	return defaultModels[config.NormalizeProvider(provider)]
}

// New builds the client for the configured provider
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch config.NormalizeProvider(cfg.Provider) {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case config.ProviderVertexAI:
		return NewVertexAIClient(ctx, cfg.GoogleCloudProject, cfg.GoogleCloudLocation, cfg.GoogleCredentialsPath)
	default:
		return nil, fmt.Errorf("llm: provider %q not supported", cfg.Provider)
	}
}
