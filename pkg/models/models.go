package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/goalfolio/goalfolio/pkg/validation"
)

// Disclaimer is attached to every recommendation response.
const Disclaimer = "Educational demo. Not investment advice."

// Instrument is one entry of a goal bucket, as loaded from the universe CSV.
type Instrument struct {
	Symbol string   `json:"symbol" validate:"required,ticker"`
	Name   string   `json:"name" validate:"required"`
	Type   string   `json:"type" validate:"required,oneof=ETF Stock"`
	Tags   []string `json:"tags,omitempty"`
}

// HasTag reports whether the instrument carries the tag (case-insensitive).
func (i Instrument) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Pick is an instrument selected for a recommendation, with the reason it
// made the cut.
type Pick struct {
	Instrument
	Why string `json:"why"`
}

// Quote is a point-in-time snapshot for one symbol. Price and the derived
// stats are pointers so a partially-failed lookup can leave them null, the
// way the original enrichment step did.
type Quote struct {
	Symbol      string    `json:"symbol"`
	Price       *float64  `json:"price"`
	Ret1YPct    *float64  `json:"ret_1y_pct"`
	DivYieldPct *float64  `json:"div_yield_pct"`
	Timestamp   time.Time `json:"timestamp"`
	Unavailable bool      `json:"unavailable,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
}

// Recommendation is the full response unit for one request. Quotes are
// positionally aligned with Picks: Quotes[i].Symbol == Picks[i].Symbol.
type Recommendation struct {
	Goal          string  `json:"goal"`
	PredictedGoal string  `json:"predicted_goal,omitempty"`
	Note          string  `json:"note,omitempty"`
	Picks         []Pick  `json:"tickers"`
	Quotes        []Quote `json:"quotes"`
	Disclaimer    string  `json:"disclaimer"`
}

// StringList accepts either a JSON array of strings or a single
// comma-separated string, so form-style payloads keep working.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = trimList(list)
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = trimList(strings.Split(raw, ","))
	return nil
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := validation.SanitizeString(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// RecommendRequest is the POST /api/v1/recommend payload.
type RecommendRequest struct {
	Goal    string     `json:"goal" validate:"required,goalkey"`
	Risk    string     `json:"risk" validate:"risk"`
	Include StringList `json:"include"`
	Exclude StringList `json:"exclude"`
	Max     int        `json:"max" validate:"min=1,max=100"`
}

// Normalize fills defaults and canonicalizes fields before validation.
func (r *RecommendRequest) Normalize() {
	r.Goal = strings.ToLower(validation.SanitizeString(r.Goal))
	r.Risk = strings.ToLower(validation.SanitizeString(r.Risk))
	if r.Risk == "" {
		r.Risk = "medium"
	}
	if r.Max == 0 {
		r.Max = 10
	}
}

// Validate validates the request struct.
func (r RecommendRequest) Validate() error {
	if errors := validation.ValidateStruct(r); len(errors) > 0 {
		return errors
	}
	return nil
}

// SmartRequest is the POST /api/v1/recommend/smart payload. The free-text
// query is mapped to a goal by the intent index.
type SmartRequest struct {
	Query   string     `json:"query" validate:"required"`
	Risk    string     `json:"risk" validate:"risk"`
	Include StringList `json:"include"`
	Exclude StringList `json:"exclude"`
	Max     int        `json:"max" validate:"min=1,max=100"`
}

func (r *SmartRequest) Normalize() {
	r.Query = validation.SanitizeString(r.Query)
	r.Risk = strings.ToLower(validation.SanitizeString(r.Risk))
	if r.Risk == "" {
		r.Risk = "medium"
	}
	if r.Max == 0 {
		r.Max = 10
	}
}

func (r SmartRequest) Validate() error {
	if errors := validation.ValidateStruct(r); len(errors) > 0 {
		return errors
	}
	return nil
}
