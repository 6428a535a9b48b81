package intent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// ErrNoMatch is returned when a query matches nothing in the index.
var ErrNoMatch = errors.New("query matched no goal")

// trainSet maps each goal to the labeled phrases that describe it. The
// classifier indexes these and picks the best-scoring goal for a free-text
// query.
var trainSet = map[string][]string{
	"safe_stable": {
		"safe stable low risk index broad market dividend quality",
		"low volatility diversified etf",
		"broad market s&p 500 index fund",
	},
	"tech_growth": {
		"tech growth technology stocks software cloud",
		"high growth internet saas",
		"semiconductors and software growth",
	},
	"ai_exposure": {
		"artificial intelligence ai semiconductors chips",
		"robotics automation ai exposure",
		"gpu datacenter machine learning",
	},
	"dividends": {
		"dividend income high dividend yield",
		"dividend stocks payout cash flow",
		"stable dividend aristocrats",
	},
	"value": {
		"value stocks cheap valuation financials energy",
		"undervalued large cap value",
	},
	"clean_energy": {
		"clean energy solar renewable green",
		"wind solar renewable energy etf",
	},
	"healthcare": {
		"healthcare pharma biotech medical",
		"health care sector drugs hospitals",
	},
	"financials": {
		"banks payments financial sector",
		"asset managers brokerage credit cards",
	},
	"semiconductors": {
		"semiconductors chips foundry lithography",
		"chip makers memory fab equipment",
	},
	"small_cap": {
		"small cap higher risk small companies",
		"russell 2000 small caps",
	},
	"mid_cap": {
		"mid cap balanced growth",
		"midcap software security",
	},
	"large_cap_growth": {
		"large cap growth mega cap quality",
		"mega cap tech growth leaders",
	},
}

type goalDoc struct {
	Goal    string `json:"goal"`
	Phrases string `json:"phrases"`
}

// Classifier maps free-text queries to goal identifiers via an in-memory
// full-text index over the training phrases.
type Classifier struct {
	index bleve.Index
}

// New builds the classifier for the given goals. Goals without training
// phrases are indexed under their own identifier so they remain reachable.
func New(goals []string, goalNotes func(string) string) (*Classifier, error) {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	phraseField := bleve.NewTextFieldMapping()
	phraseField.Store = true
	phraseField.Index = true
	docMapping.AddFieldMappingsAt("phrases", phraseField)
	indexMapping.AddDocumentMapping("_default", docMapping)

	index, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("create intent index: %w", err)
	}

	batch := index.NewBatch()
	for _, goal := range goals {
		parts := append([]string{}, trainSet[goal]...)
		// the goal key itself ("tech_growth" → "tech growth") and its note
		// are searchable too
		parts = append(parts, strings.ReplaceAll(goal, "_", " "))
		if goalNotes != nil {
			if note := goalNotes(goal); note != "" {
				parts = append(parts, note)
			}
		}
		doc := goalDoc{Goal: goal, Phrases: strings.Join(parts, " . ")}
		if err := batch.Index(goal, doc); err != nil {
			return nil, fmt.Errorf("index goal %s: %w", goal, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("build intent index: %w", err)
	}

	return &Classifier{index: index}, nil
}

// Predict returns the best-matching goal for the query.
func (c *Classifier) Predict(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNoMatch
	}

	matchQuery := bleve.NewMatchQuery(strings.ToLower(query))
	matchQuery.SetField("phrases")
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = 1

	res, err := c.index.Search(req)
	if err != nil {
		return "", fmt.Errorf("intent search: %w", err)
	}
	if len(res.Hits) == 0 {
		return "", ErrNoMatch
	}
	return res.Hits[0].ID, nil
}

// Close releases the index.
func (c *Classifier) Close() error {
	return c.index.Close()
}
