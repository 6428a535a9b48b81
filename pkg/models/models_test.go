package models

import (
	"encoding/json"
	"testing"
)

func TestStringList_AcceptsArrayAndCSV(t *testing.T) {
	cases := map[string][]string{
		`["nvda"," smh "]`: {"nvda", "smh"},
		`"nvda, smh,qqq"`:  {"nvda", "smh", "qqq"},
		`"nvda"`:           {"nvda"},
		`[]`:               {},
		`""`:               {},
		`" , ,"`:           {},
	}
	for input, want := range cases {
		var got StringList
		if err := json.Unmarshal([]byte(input), &got); err != nil {
			t.Errorf("unmarshal %s: %v", input, err)
			continue
		}
		if len(got) != len(want) {
			t.Errorf("unmarshal %s = %v; want %v", input, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("unmarshal %s = %v; want %v", input, got, want)
				break
			}
		}
	}
}

func TestStringList_RejectsOtherTypes(t *testing.T) {
	var got StringList
	if err := json.Unmarshal([]byte(`42`), &got); err == nil {
		t.Error("expected error for non-string payload")
	}
}

func TestRecommendRequest_NormalizeDefaults(t *testing.T) {
	r := RecommendRequest{Goal: "  Tech_Growth "}
	r.Normalize()
	if r.Goal != "tech_growth" {
		t.Errorf("goal = %q; want tech_growth", r.Goal)
	}
	if r.Risk != "medium" {
		t.Errorf("risk = %q; want medium", r.Risk)
	}
	if r.Max != 10 {
		t.Errorf("max = %d; want 10", r.Max)
	}
}

func TestRecommendRequest_Validate(t *testing.T) {
	valid := RecommendRequest{Goal: "tech_growth"}
	valid.Normalize()
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	cases := map[string]RecommendRequest{
		"missing goal": {},
		"bad goal":     {Goal: "not a goal!"},
		"bad risk":     {Goal: "tech_growth", Risk: "extreme"},
		"max too big":  {Goal: "tech_growth", Max: 500},
		"negative max": {Goal: "tech_growth", Max: -1},
	}
	for name, r := range cases {
		r.Normalize()
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestSmartRequest_Validate(t *testing.T) {
	r := SmartRequest{Query: "  safe and stable  "}
	r.Normalize()
	if r.Query != "safe and stable" {
		t.Errorf("query = %q; want trimmed", r.Query)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	empty := SmartRequest{}
	empty.Normalize()
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestQuote_JSONKeepsNullPrice(t *testing.T) {
	q := Quote{Symbol: "MSFT", Unavailable: true, ErrorKind: "timeout"}
	b, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := m["price"]; !ok || v != nil {
		t.Errorf("price = %v; want explicit null", v)
	}
	if m["error_kind"] != "timeout" {
		t.Errorf("error_kind = %v; want timeout", m["error_kind"])
	}
}

func TestInstrument_HasTag(t *testing.T) {
	i := Instrument{Symbol: "QQQ", Tags: []string{"Tech", "growth"}}
	if !i.HasTag("tech") {
		t.Error("HasTag should be case-insensitive")
	}
	if i.HasTag("value") {
		t.Error("HasTag matched an absent tag")
	}
}

func TestRecommendation_TickersFieldName(t *testing.T) {
	rec := Recommendation{Goal: "dividends", Disclaimer: Disclaimer}
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["tickers"]; !ok {
		t.Error("picks should serialize under \"tickers\"")
	}
	if _, ok := m["predicted_goal"]; ok {
		t.Error("predicted_goal should be omitted when empty")
	}
}
