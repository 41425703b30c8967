package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	projectID string
	location  string
}

// NewVertexAIClient creates a new Vertex AI client. When credentialsPath is
// empty, Application Default Credentials are used.
func NewVertexAIClient(ctx context.Context, projectID, location, credentialsPath string) (*VertexAIClient, error) {
	if projectID == "" {
		return nil, fmt.Errorf("google cloud project is not set")
	}
	if location == "" {
		location = "us-central1"
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		data, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read google credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse google credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := genai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexAIClient{
		client:    client,
		projectID: projectID,
		location:  location,
	}, nil
}

// Complete maps system messages onto the model's system instruction and
// sends the user messages as the prompt
func (v *VertexAIClient) Complete(ctx context.Context, req Request) (string, error) {
	system, prompt := splitMessages(req.Messages)

	model := v.client.GenerativeModel(req.Model)
	model.SetTemperature(float32(req.Temperature))
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			result.WriteString(string(text))
		}
	}

	return result.String(), nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}

// splitMessages joins system and user turns into the two strings Gemini takes
func splitMessages(messages []Message) (system, prompt string) {
	var sys, user []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
		} else {
			user = append(user, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(user, "\n\n")
}
