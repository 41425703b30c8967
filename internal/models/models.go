package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Category is the visa category a petition is evaluated against
type Category string

const (
	CategoryEB1A Category = "EB1A"
	CategoryNIW  Category = "NIW"
	CategoryO1   Category = "O1"
)

// Categories lists the selectable categories in display order
var Categories = []Category{CategoryEB1A, CategoryNIW, CategoryO1}

// Label returns the human readable name shown in the category selector
func (c Category) Label() string {
	switch c {
	case CategoryEB1A:
		return "EB-1A (Extraordinary Ability)"
	case CategoryNIW:
		return "NIW (National Interest Waiver)"
	case CategoryO1:
		return "O-1 (Extraordinary Ability)"
	default:
		return string(c)
	}
}

// CategoryFromLabel maps a selector label back to its category
func CategoryFromLabel(label string) (Category, bool) {
	for _, c := range Categories {
		if c.Label() == label || string(c) == label {
			return c, true
		}
	}
	return "", false
}

// Strength is the overall verdict the model is asked to give
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthBorderline Strength = "borderline"
	StrengthStrong     Strength = "strong"
)

// Criteria are the rubric keys of criteria_scores, in rubric order
var Criteria = []string{
	"awards",
	"original_contributions",
	"leading_role",
	"high_salary",
	"published_material",
}

// EvaluationRequest is the payload accepted by the judge endpoint
type EvaluationRequest struct {
	Text     string `json:"text" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// EvaluationResult is the shape the model is instructed to return.
// Replies are not validated against it; see ResultView for rendering.
type EvaluationResult struct {
	Category         string         `json:"category"`
	OverallStrength  Strength       `json:"overall_strength"`
	CriteriaScores   map[string]int `json:"criteria_scores"` // 0-10 each
	VerdictRationale string         `json:"verdict_rationale"`
}

// Outcome is the result of one evaluation: either Structured or RawFallback
type Outcome interface {
	isOutcome()
}

// Structured carries a model reply that parsed as JSON, untouched
type Structured struct {
	Result json.RawMessage `json:"result"`
}

// RawFallback carries a model reply that could not be recovered as JSON
type RawFallback struct {
	RawOutput string `json:"rawOutput"`
	Warning   string `json:"warning"`
}

func (Structured) isOutcome()  {}
func (RawFallback) isOutcome() {}

// ErrorResponse is the body of every non-200 response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// CriterionScore is one rendered row of the criteria table
type CriterionScore struct {
	Name  string
	Label string
	Value string
}

// ResultView is a lenient rendering of whatever JSON the model returned.
// Fields that are missing or of an unexpected type render as empty strings.
type ResultView struct {
	Category         string
	OverallStrength  string
	Scores           []CriterionScore
	VerdictRationale string
}

// NewResultView builds a ResultView from a raw result object
func NewResultView(raw json.RawMessage) ResultView {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ResultView{}
	}

	view := ResultView{
		Category:         scalarText(fields["category"]),
		OverallStrength:  scalarText(fields["overall_strength"]),
		VerdictRationale: scalarText(fields["verdict_rationale"]),
	}

	var scores map[string]json.RawMessage
	if err := json.Unmarshal(fields["criteria_scores"], &scores); err != nil {
		return view
	}

	names := make([]string, 0, len(scores))
	for _, name := range Criteria {
		if _, ok := scores[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range scores {
		if !isCriterion(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	for _, name := range names {
		view.Scores = append(view.Scores, CriterionScore{
			Name:  name,
			Label: CriterionLabel(name),
			Value: scalarText(scores[name]),
		})
	}

	return view
}

// CriterionLabel turns a snake_case criterion key into a display label
func CriterionLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func isCriterion(name string) bool {
	for _, c := range Criteria {
		if c == name {
			return true
		}
	}
	return false
}

// scalarText renders a JSON value for display: strings unquoted,
// numbers and booleans as written, anything else compact JSON.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return strings.TrimSpace(string(raw))
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return fmt.Sprint(t)
		}
		return buf.String()
	}
}
