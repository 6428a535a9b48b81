package recommend

import (
	"sort"
	"strings"

	"github.com/goalfolio/goalfolio/pkg/models"
	"github.com/goalfolio/goalfolio/pkg/universe"
)

// Select applies the selection pipeline to a resolved bucket: dedupe,
// excludes, include bias, risk ordering, then truncation to max. The input
// bucket is never mutated and the result is deterministic for a given input.
func Select(bucket universe.Bucket, risk string, include, exclude []string, max int) []models.Pick {
	base := dedupe(bucket.Instruments)
	base = applyExcludes(base, exclude)
	base = biasIncludes(base, include)
	base = applyRisk(base, risk)

	if max > 0 && len(base) > max {
		base = base[:max]
	}

	picks := make([]models.Pick, 0, len(base))
	for _, inst := range base {
		picks = append(picks, models.Pick{
			Instrument: inst,
			Why:        whyString(inst, bucket.Goal, risk),
		})
	}
	return picks
}

// dedupe keeps the first occurrence of each symbol, preserving order.
func dedupe(in []models.Instrument) []models.Instrument {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Instrument, 0, len(in))
	for _, inst := range in {
		if _, ok := seen[inst.Symbol]; ok {
			continue
		}
		seen[inst.Symbol] = struct{}{}
		out = append(out, inst)
	}
	return out
}

// applyExcludes drops instruments whose symbol or any tag matches an
// exclude term (case-insensitive).
func applyExcludes(in []models.Instrument, exclude []string) []models.Instrument {
	if len(exclude) == 0 {
		return in
	}
	excl := lowerSet(exclude)
	out := make([]models.Instrument, 0, len(in))
	for _, inst := range in {
		if _, ok := excl[strings.ToLower(inst.Symbol)]; ok {
			continue
		}
		if tagsIntersect(inst.Tags, excl) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// biasIncludes stably reorders so instruments matching include terms come
// first. A symbol match outranks a tag match.
func biasIncludes(in []models.Instrument, include []string) []models.Instrument {
	if len(include) == 0 {
		return in
	}
	inc := lowerSet(include)
	out := make([]models.Instrument, len(in))
	copy(out, in)
	score := func(inst models.Instrument) int {
		s := 0
		if tagsIntersect(inst.Tags, inc) {
			s += 2
		}
		if _, ok := inc[strings.ToLower(inst.Symbol)]; ok {
			s += 3
		}
		return s
	}
	sort.SliceStable(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	return out
}

// applyRisk favors ETFs for low-risk requests; other risk levels keep the
// bucket's own ordering.
func applyRisk(in []models.Instrument, risk string) []models.Instrument {
	if risk != "low" {
		return in
	}
	out := make([]models.Instrument, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type == "ETF" && out[j].Type != "ETF"
	})
	return out
}

func whyString(inst models.Instrument, goal, risk string) string {
	parts := []string{"matches " + strings.ReplaceAll(goal, "_", " ")}
	if risk == "low" && inst.Type == "ETF" {
		parts = append(parts, "ETF favored for low risk")
	}
	if len(inst.Tags) > 0 {
		n := len(inst.Tags)
		if n > 2 {
			n = 2
		}
		parts = append(parts, "tags: "+strings.Join(inst.Tags[:n], ", "))
	}
	return strings.Join(parts, "; ")
}

func lowerSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func tagsIntersect(tags []string, set map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := set[strings.ToLower(t)]; ok {
			return true
		}
	}
	return false
}
