package form

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/judica-dev/judica/internal/client"
	"github.com/judica-dev/judica/internal/models"
)

const strongResult = `{"category":"EB1A","overall_strength":"strong","criteria_scores":{"awards":9,"published_material":8},"verdict_rationale":"Well documented."}`

func replyWith(status int, body string, result string) *client.Reply {
	r := &client.Reply{
		Status:  status,
		OK:      status >= 200 && status < 300,
		Payload: json.RawMessage(body),
	}
	if result != "" {
		r.Result = json.RawMessage(result)
	}
	var fields struct {
		Error string `json:"error"`
	}
	json.Unmarshal([]byte(body), &fields)
	r.Error = fields.Error
	return r
}

func fixed(reply *client.Reply, err error) SubmitterFunc {
	return func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		return reply, err
	}
}

func TestNew_Defaults(t *testing.T) {
	f := New(fixed(nil, nil))
	s := f.State()

	if s.Category != models.CategoryEB1A {
		t.Errorf("Default category = %q, want EB1A", s.Category)
	}
	if s.Text != "" || s.Loading || s.Panel() != PanelNone {
		t.Errorf("Unexpected initial state %+v", s)
	}
	if f.CanSubmit() {
		t.Error("Empty form must not be submittable")
	}
}

func TestSubmit_RefusesBlankText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		calls := 0
		f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
			calls++
			return nil, nil
		}))
		f.SetText(text)

		if err := f.Submit(context.Background()); !errors.Is(err, ErrNotSubmittable) {
			t.Errorf("Submit() with text %q = %v, want ErrNotSubmittable", text, err)
		}
		if calls != 0 {
			t.Errorf("Expected no request for text %q, got %d", text, calls)
		}
	}
}

func TestSubmit_Outcomes(t *testing.T) {
	fallback := `{"rawOutput":"I cannot evaluate this.","warning":"Model did not return valid JSON. Check rawOutput for debugging."}`

	tests := []struct {
		name      string
		reply     *client.Reply
		err       error
		wantPanel Panel
		wantError string
	}{
		{
			name:      "Result",
			reply:     replyWith(200, `{"result":`+strongResult+`}`, strongResult),
			wantPanel: PanelResult,
		},
		{
			name:      "Raw fallback",
			reply:     replyWith(200, fallback, ""),
			wantPanel: PanelRaw,
		},
		{
			name:      "Null result shows raw payload",
			reply:     replyWith(200, `{"result":null}`, "null"),
			wantPanel: PanelRaw,
		},
		{
			name:      "Validation failure",
			reply:     replyWith(400, `{"error":"Missing text or category"}`, ""),
			wantPanel: PanelError,
			wantError: "Missing text or category",
		},
		{
			name:      "Failure without message",
			reply:     replyWith(500, `{"detail":"boom"}`, ""),
			wantPanel: PanelError,
			wantError: UnknownError,
		},
		{
			name:      "Transport error",
			err:       errors.New("dial tcp: connection refused"),
			wantPanel: PanelError,
			wantError: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(fixed(tt.reply, tt.err))
			f.SetText("I won a national award.")

			if err := f.Submit(context.Background()); err != nil {
				t.Fatalf("Submit() returned %v", err)
			}

			s := f.State()
			if s.Loading {
				t.Error("Loading must be cleared after submission")
			}
			if s.Panel() != tt.wantPanel {
				t.Errorf("Panel() = %v, want %v", s.Panel(), tt.wantPanel)
			}
			if s.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", s.Error, tt.wantError)
			}
			if !s.CanSubmit() {
				t.Error("Form should be submittable again after completion")
			}
		})
	}
}

func TestSubmit_SendsTextAndCategory(t *testing.T) {
	var got models.EvaluationRequest
	f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		got = req
		return replyWith(200, `{"result":`+strongResult+`}`, strongResult), nil
	}))
	f.SetCategory(models.CategoryO1)
	f.SetText("  keep surrounding whitespace  ")

	f.Submit(context.Background())

	want := models.EvaluationRequest{Text: "  keep surrounding whitespace  ", Category: "O1"}
	if got != want {
		t.Errorf("Sent %+v, want %+v", got, want)
	}
}

func TestSubmit_ResultView(t *testing.T) {
	f := New(fixed(replyWith(200, `{"result":`+strongResult+`}`, strongResult), nil))
	f.SetText("petition")
	f.Submit(context.Background())

	view := f.State().ResultView()
	if view.Category != "EB1A" || view.OverallStrength != "strong" || view.VerdictRationale != "Well documented." {
		t.Errorf("Unexpected view %+v", view)
	}
	if len(view.Scores) != 2 || view.Scores[0].Label != "Awards" || view.Scores[1].Value != "8" {
		t.Errorf("Unexpected scores %+v", view.Scores)
	}
}

func TestSubmit_RawTextPrettyPrinted(t *testing.T) {
	body := `{"rawOutput":"nope","warning":"w"}`
	f := New(fixed(replyWith(200, body, ""), nil))
	f.SetText("petition")
	f.Submit(context.Background())

	want := "{\n  \"rawOutput\": \"nope\",\n  \"warning\": \"w\"\n}"
	if got := f.State().RawText(); got != want {
		t.Errorf("RawText() = %q, want %q", got, want)
	}
}

func TestSubmit_ClearsPreviousOutcome(t *testing.T) {
	replies := []*client.Reply{
		replyWith(200, `{"result":`+strongResult+`}`, strongResult),
		replyWith(400, `{"error":"Missing text or category"}`, ""),
	}
	i := 0
	f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		r := replies[i]
		i++
		return r, nil
	}))
	f.SetText("petition")

	f.Submit(context.Background())
	if f.State().Panel() != PanelResult {
		t.Fatalf("Expected result panel after first submission")
	}

	f.Submit(context.Background())
	s := f.State()
	if s.Result != nil || s.Panel() != PanelError {
		t.Errorf("Second submission should replace the result with an error, got %+v", s)
	}
}

func TestSubmit_LoadingWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		close(started)
		<-release
		return replyWith(200, `{"result":`+strongResult+`}`, strongResult), nil
	}))
	f.SetText("petition")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.Submit(context.Background())
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Submission did not start")
	}

	s := f.State()
	if !s.Loading || s.CanSubmit() {
		t.Errorf("Expected loading and not submittable while in flight, got %+v", s)
	}
	if err := f.Submit(context.Background()); !errors.Is(err, ErrNotSubmittable) {
		t.Errorf("Second Submit() = %v, want ErrNotSubmittable", err)
	}

	close(release)
	wg.Wait()

	if f.State().Loading {
		t.Error("Loading must be cleared after the reply arrives")
	}
}

func TestSubmit_LoadingClearedOnRejection(t *testing.T) {
	f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, context.DeadlineExceeded
	}))
	f.SetText("petition")
	f.Submit(context.Background())

	s := f.State()
	if s.Loading {
		t.Error("Loading must be cleared after a rejected request")
	}
	if s.Error != context.DeadlineExceeded.Error() {
		t.Errorf("Error = %q", s.Error)
	}
}

func TestSubmit_PanicBecomesError(t *testing.T) {
	f := New(SubmitterFunc(func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
		panic("broken submitter")
	}))
	f.SetText("petition")

	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() returned %v", err)
	}
	s := f.State()
	if s.Loading || s.Panel() != PanelError {
		t.Errorf("Expected error panel with loading cleared, got %+v", s)
	}
}

func TestOnChange_Sequence(t *testing.T) {
	var states []State
	f := New(fixed(replyWith(200, `{"result":`+strongResult+`}`, strongResult), nil),
		WithOnChange(func(s State) { states = append(states, s) }))

	f.SetText("petition")
	f.Submit(context.Background())

	if len(states) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(states))
	}
	if !states[1].Loading || states[1].Panel() != PanelNone {
		t.Errorf("Second notification should be loading with no panel, got %+v", states[1])
	}
	if states[2].Loading || states[2].Panel() != PanelResult {
		t.Errorf("Final notification should carry the result, got %+v", states[2])
	}
}

func TestWithCategory(t *testing.T) {
	f := New(fixed(nil, nil), WithCategory(models.CategoryNIW))
	if got := f.State().Category; got != models.CategoryNIW {
		t.Errorf("Category = %q, want NIW", got)
	}
}
