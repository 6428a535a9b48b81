package intent

import (
	"errors"
	"testing"
)

func testGoals() []string {
	return []string{
		"safe_stable", "tech_growth", "ai_exposure", "dividends", "value",
		"clean_energy", "healthcare", "financials", "semiconductors",
		"small_cap", "mid_cap", "large_cap_growth",
	}
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(testGoals(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPredict_CommonQueries(t *testing.T) {
	c := newTestClassifier(t)

	cases := map[string]string{
		"I want something safe and stable":    "safe_stable",
		"high growth technology stocks":       "tech_growth",
		"exposure to artificial intelligence": "ai_exposure",
		"steady dividend income please":       "dividends",
		"solar and renewable energy":          "clean_energy",
		"pharma and biotech companies":        "healthcare",
		"chip makers and foundries":           "semiconductors",
		"small companies with higher risk":    "small_cap",
	}
	for query, want := range cases {
		got, err := c.Predict(query)
		if err != nil {
			t.Errorf("Predict(%q): %v", query, err)
			continue
		}
		if got != want {
			t.Errorf("Predict(%q) = %s; want %s", query, got, want)
		}
	}
}

func TestPredict_GoalKeyItselfMatches(t *testing.T) {
	c := newTestClassifier(t)
	got, err := c.Predict("tech growth")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != "tech_growth" {
		t.Errorf("Predict(tech growth) = %s; want tech_growth", got)
	}
}

func TestPredict_EmptyQuery(t *testing.T) {
	c := newTestClassifier(t)
	for _, q := range []string{"", "   "} {
		if _, err := c.Predict(q); !errors.Is(err, ErrNoMatch) {
			t.Errorf("Predict(%q): expected ErrNoMatch, got %v", q, err)
		}
	}
}

func TestPredict_NoMatch(t *testing.T) {
	c := newTestClassifier(t)
	if _, err := c.Predict("xyzzyplugh"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}
}

func TestPredict_UsesNotes(t *testing.T) {
	notes := func(goal string) string {
		if goal == "value" {
			return "bargain hunting in unloved sectors"
		}
		return ""
	}
	c, err := New(testGoals(), notes)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	got, err := c.Predict("bargain hunting")
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != "value" {
		t.Errorf("Predict(bargain hunting) = %s; want value", got)
	}
}
