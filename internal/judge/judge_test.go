package judge

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/judica-dev/judica/internal/llm"
	"github.com/judica-dev/judica/internal/models"
)

// stubClient returns a fixed reply and records every request
type stubClient struct {
	reply    string
	err      error
	requests []llm.Request
}

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func (s *stubClient) Close() error { return nil }

const borderlineJSON = `{"category":"EB1A","overall_strength":"borderline","criteria_scores":{"awards":5,"original_contributions":4,"leading_role":2,"high_salary":0,"published_material":6},"verdict_rationale":"A national award is claimed without documentation."}`

func TestEvaluate_MissingInputMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		req  models.EvaluationRequest
	}{
		{name: "Missing text", req: models.EvaluationRequest{Category: "EB1A"}},
		{name: "Missing category", req: models.EvaluationRequest{Text: "I won a national award."}},
		{name: "Both missing", req: models.EvaluationRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClient{reply: borderlineJSON}
			j := New(stub, "gpt-5.1")

			outcome, err := j.Evaluate(context.Background(), tt.req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if verr.Message != MissingInputMessage {
				t.Errorf("Expected message %q, got %q", MissingInputMessage, verr.Message)
			}
			if outcome != nil {
				t.Errorf("Expected nil outcome, got %#v", outcome)
			}
			if len(stub.requests) != 0 {
				t.Errorf("Expected zero model calls, got %d", len(stub.requests))
			}
		})
	}
}

func TestEvaluate_BuildsDeterministicRequest(t *testing.T) {
	stub := &stubClient{reply: borderlineJSON}
	j := New(stub, "gpt-5.1")

	req := models.EvaluationRequest{
		Category: "EB1A",
		Text:     "I won a national award and published 5 papers.",
	}
	if _, err := j.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	if len(stub.requests) != 1 {
		t.Fatalf("Expected 1 model call, got %d", len(stub.requests))
	}
	got := stub.requests[0]
	if got.Model != "gpt-5.1" {
		t.Errorf("Expected model gpt-5.1, got %q", got.Model)
	}
	if got.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", got.Temperature)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != llm.RoleSystem || got.Messages[0].Content != SystemPrompt {
		t.Errorf("Unexpected system message: %+v", got.Messages[0])
	}
	wantUser := "Category: EB1A\n\nPetition text:\nI won a national award and published 5 papers."
	if got.Messages[1].Role != llm.RoleUser || got.Messages[1].Content != wantUser {
		t.Errorf("Unexpected user message: %+v", got.Messages[1])
	}
}

func TestEvaluate_StructuredResult(t *testing.T) {
	stub := &stubClient{reply: borderlineJSON}
	j := New(stub, "gpt-5.1")

	outcome, err := j.Evaluate(context.Background(), models.EvaluationRequest{
		Category: "EB1A",
		Text:     "I won a national award and published 5 papers.",
	})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	structured, ok := outcome.(models.Structured)
	if !ok {
		t.Fatalf("Expected Structured outcome, got %T", outcome)
	}

	var result models.EvaluationResult
	if err := json.Unmarshal(structured.Result, &result); err != nil {
		t.Fatalf("Result is not an EvaluationResult: %v", err)
	}
	if result.OverallStrength != models.StrengthBorderline {
		t.Errorf("Expected borderline, got %q", result.OverallStrength)
	}
	if len(result.CriteriaScores) != 5 {
		t.Errorf("Expected 5 criteria scores, got %d", len(result.CriteriaScores))
	}
}

func TestEvaluate_TransportError(t *testing.T) {
	stub := &stubClient{err: errors.New("dial tcp: connection refused")}
	j := New(stub, "gpt-5.1")

	_, err := j.Evaluate(context.Background(), models.EvaluationRequest{Category: "O1", Text: "text"})
	if err == nil {
		t.Fatal("Expected an error")
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Error("Transport failure must not be a ValidationError")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected error to carry the transport message, got %q", err.Error())
	}
	if len(stub.requests) != 1 {
		t.Errorf("Expected exactly one attempt, got %d", len(stub.requests))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	stub := &stubClient{reply: "```json\n" + borderlineJSON + "\n```"}
	j := New(stub, "gpt-5.1")
	req := models.EvaluationRequest{Category: "NIW", Text: "same text"}

	first, err := j.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	second, err := j.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical outcomes, got %#v and %#v", first, second)
	}
	if !reflect.DeepEqual(stub.requests[0], stub.requests[1]) {
		t.Error("Expected identical model requests")
	}
}
