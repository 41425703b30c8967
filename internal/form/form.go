package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/judica-dev/judica/internal/client"
	"github.com/judica-dev/judica/internal/models"
)

// UnknownError is shown when a failed response carries no error message
const UnknownError = "Unknown error"

// ErrNotSubmittable is returned by Submit while the text is blank or a
// submission is already in flight
var ErrNotSubmittable = errors.New("form cannot be submitted")

// Submitter sends one evaluation request
type Submitter interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error)
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error)

func (f SubmitterFunc) Evaluate(ctx context.Context, req models.EvaluationRequest) (*client.Reply, error) {
	return f(ctx, req)
}

// Panel is the single output area a form shows
type Panel int

const (
	PanelNone Panel = iota
	PanelError
	PanelResult
	PanelRaw
)

func (p Panel) String() string {
	switch p {
	case PanelError:
		return "error"
	case PanelResult:
		return "result"
	case PanelRaw:
		return "raw"
	default:
		return "none"
	}
}

// State is a snapshot of the form
type State struct {
	Category models.Category
	Text     string
	Loading  bool
	Result   json.RawMessage
	Raw      json.RawMessage
	Error    string
	Detail   string // diagnostic detail sent with a server error
}

// CanSubmit reports whether the submit control is enabled
func (s State) CanSubmit() bool {
	return !s.Loading && strings.TrimSpace(s.Text) != ""
}

// Panel returns the one panel to render. A result wins over raw output.
func (s State) Panel() Panel {
	switch {
	case s.Error != "":
		return PanelError
	case s.Result != nil:
		return PanelResult
	case s.Raw != nil:
		return PanelRaw
	default:
		return PanelNone
	}
}

// ResultView renders the result leniently for display
func (s State) ResultView() models.ResultView {
	return models.NewResultView(s.Result)
}

// RawText returns the raw payload pretty-printed with two-space indentation
func (s State) RawText() string {
	if s.Raw == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, s.Raw, "", "  "); err != nil {
		return string(s.Raw)
	}
	return buf.String()
}

// Option configures a Form
type Option func(*Form)

// WithOnChange registers a callback run after every state change
func WithOnChange(fn func(State)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithCategory sets the initially selected category
func WithCategory(c models.Category) Option {
	return func(f *Form) {
		f.state.Category = c
	}
}

// Form is the petition form: a category, the petition text, and the outcome
// of the last submission. It allows one submission in flight at a time.
type Form struct {
	submitter Submitter

	mu       sync.Mutex
	state    State
	onChange func(State)
}

// New creates a form with EB1A selected and empty text
func New(submitter Submitter, opts ...Option) *Form {
	f := &Form{
		submitter: submitter,
		state:     State{Category: models.CategoryEB1A},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OnChange replaces the state change callback
func (f *Form) OnChange(fn func(State)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// State returns the current snapshot
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// CanSubmit reports whether Submit would send a request
func (f *Form) CanSubmit() bool {
	return f.State().CanSubmit()
}

// SetCategory selects the category for the next submission
func (f *Form) SetCategory(c models.Category) {
	f.update(func(s *State) { s.Category = c })
}

// SetText replaces the petition text
func (f *Form) SetText(text string) {
	f.update(func(s *State) { s.Text = text })
}

// Submit sends the current text and category and waits for the reply.
// Every failure ends in the error panel; the only returned error is
// ErrNotSubmittable.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if !f.state.CanSubmit() {
		f.mu.Unlock()
		return ErrNotSubmittable
	}
	f.state.Loading = true
	f.state.Result = nil
	f.state.Raw = nil
	f.state.Error = ""
	f.state.Detail = ""
	req := models.EvaluationRequest{
		Text:     f.state.Text,
		Category: string(f.state.Category),
	}
	snapshot, onChange := f.state, f.onChange
	f.mu.Unlock()
	notify(onChange, snapshot)

	var (
		reply *client.Reply
		err   error
	)
	defer func() {
		if r := recover(); r != nil {
			reply, err = nil, errors.New("submission failed unexpectedly")
		}
		f.update(func(s *State) {
			applyReply(s, reply, err)
			s.Loading = false
		})
	}()

	reply, err = f.submitter.Evaluate(ctx, req)
	return nil
}

// applyReply moves a reply into the error, result or raw slot
func applyReply(s *State, reply *client.Reply, err error) {
	switch {
	case err != nil:
		s.Error = err.Error()
		if s.Error == "" {
			s.Error = UnknownError
		}
	case reply == nil:
		s.Error = UnknownError
	case !reply.OK:
		s.Error = reply.Error
		s.Detail = reply.Detail
		if s.Error == "" {
			s.Error = UnknownError
		}
	case reply.HasResult():
		s.Result = reply.Result
	default:
		s.Raw = reply.Payload
	}
}

func (f *Form) update(fn func(*State)) {
	f.mu.Lock()
	fn(&f.state)
	snapshot, onChange := f.state, f.onChange
	f.mu.Unlock()
	notify(onChange, snapshot)
}

func notify(fn func(State), s State) {
	if fn != nil {
		fn(s)
	}
}
