package judge

import (
	"context"
	"fmt"

	"github.com/judica-dev/judica/internal/llm"
	"github.com/judica-dev/judica/internal/models"
)

// MissingInputMessage is reported when text or category is absent
const MissingInputMessage = "Missing text or category"

// ValidationError is returned for requests rejected before the model is called
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Judge evaluates petitions with a chat-completion model
type Judge struct {
	client llm.Client
	model  string
}

// New creates a Judge around a client constructed once at startup
func New(client llm.Client, model string) *Judge {
	return &Judge{
		client: client,
		model:  model,
	}
}

// Model returns the model identifier sent with every call
func (j *Judge) Model() string {
	return j.model
}

// Validate rejects requests with an empty text or category
func Validate(req models.EvaluationRequest) error {
	if req.Text == "" || req.Category == "" {
		return &ValidationError{Message: MissingInputMessage}
	}
	return nil
}

// Evaluate validates the request, calls the model once at temperature 0,
// and recovers the reply. Errors are either *ValidationError or a failure
// of the model call.
func (j *Judge) Evaluate(ctx context.Context, req models.EvaluationRequest) (models.Outcome, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	content, err := j.client.Complete(ctx, llm.Request{
		Model:       j.model,
		Temperature: 0,
		Messages:    BuildMessages(req),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get model response: %w", err)
	}

	return Recover(content), nil
}

// Close releases the underlying model client
func (j *Judge) Close() error {
	if j.client != nil {
		return j.client.Close()
	}
	return nil
}
