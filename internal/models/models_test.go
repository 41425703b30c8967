package models

import (
	"encoding/json"
	"testing"
)

func TestNewResultView_FullResult(t *testing.T) {
	result := EvaluationResult{
		Category:        "EB1A",
		OverallStrength: StrengthBorderline,
		CriteriaScores: map[string]int{
			"published_material":     6,
			"awards":                 4,
			"high_salary":            1,
			"original_contributions": 5,
			"leading_role":           2,
		},
		VerdictRationale: "One national award is documented.",
	}
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal EvaluationResult: %v", err)
	}

	view := NewResultView(raw)

	if view.Category != "EB1A" {
		t.Errorf("Expected category EB1A, got %q", view.Category)
	}
	if view.OverallStrength != "borderline" {
		t.Errorf("Expected strength borderline, got %q", view.OverallStrength)
	}
	if view.VerdictRationale != result.VerdictRationale {
		t.Errorf("Expected rationale %q, got %q", result.VerdictRationale, view.VerdictRationale)
	}
	if len(view.Scores) != len(Criteria) {
		t.Fatalf("Expected %d scores, got %d", len(Criteria), len(view.Scores))
	}
	for i, name := range Criteria {
		if view.Scores[i].Name != name {
			t.Errorf("Position %d: got %s, want %s", i, view.Scores[i].Name, name)
		}
	}
	if view.Scores[0].Value != "4" {
		t.Errorf("Expected awards score 4, got %q", view.Scores[0].Value)
	}
	if view.Scores[1].Label != "Original Contributions" {
		t.Errorf("Expected label 'Original Contributions', got %q", view.Scores[1].Label)
	}
}

func TestNewResultView_Lenient(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		category   string
		strength   string
		scoreCount int
	}{
		{
			name: "Not an object",
			raw:  `[1, 2, 3]`,
		},
		{
			name:     "Missing scores",
			raw:      `{"category":"NIW","overall_strength":"weak"}`,
			category: "NIW",
			strength: "weak",
		},
		{
			name:     "Scores of wrong type",
			raw:      `{"category":"O1","criteria_scores":"none"}`,
			category: "O1",
		},
		{
			name:       "Extra criterion and float score",
			raw:        `{"category":7,"criteria_scores":{"zeta":1,"awards":7.5,"alpha":"n/a"}}`,
			category:   "7",
			scoreCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewResultView(json.RawMessage(tt.raw))
			if view.Category != tt.category {
				t.Errorf("Category = %q, want %q", view.Category, tt.category)
			}
			if view.OverallStrength != tt.strength {
				t.Errorf("OverallStrength = %q, want %q", view.OverallStrength, tt.strength)
			}
			if len(view.Scores) != tt.scoreCount {
				t.Errorf("len(Scores) = %d, want %d", len(view.Scores), tt.scoreCount)
			}
		})
	}
}

func TestNewResultView_ExtraCriteriaOrder(t *testing.T) {
	view := NewResultView(json.RawMessage(`{"criteria_scores":{"zeta":1,"awards":7.5,"alpha":"n/a"}}`))

	want := []string{"awards", "alpha", "zeta"}
	for i, name := range want {
		if view.Scores[i].Name != name {
			t.Errorf("Position %d: got %s, want %s", i, view.Scores[i].Name, name)
		}
	}
	if view.Scores[0].Value != "7.5" {
		t.Errorf("Expected awards value 7.5, got %q", view.Scores[0].Value)
	}
	if view.Scores[1].Value != "n/a" {
		t.Errorf("Expected alpha value n/a, got %q", view.Scores[1].Value)
	}
}

func TestCategoryLabels(t *testing.T) {
	for _, c := range Categories {
		got, ok := CategoryFromLabel(c.Label())
		if !ok || got != c {
			t.Errorf("CategoryFromLabel(%q) = %q, %v; want %q", c.Label(), got, ok, c)
		}
	}

	if _, ok := CategoryFromLabel("H-1B"); ok {
		t.Error("Expected unknown label to be rejected")
	}
}
