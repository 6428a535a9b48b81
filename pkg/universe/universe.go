package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goalfolio/goalfolio/pkg/models"
	"github.com/goalfolio/goalfolio/pkg/validation"
)

// ErrUnknownGoal is returned by Resolve for goals not present in the universe.
var ErrUnknownGoal = errors.New("unknown goal")

// notes carries the one-line description shown next to each goal.
var notes = map[string]string{
	"safe_stable":      "Broad, low-volatility index and quality exposure; the boring core.",
	"tech_growth":      "Software, internet, and cloud; higher growth and volatility.",
	"ai_exposure":      "AI infrastructure: GPUs, datacenter, robotics and automation.",
	"dividends":        "High and stable payout names; income-oriented.",
	"value":            "Cheap-valuation large caps; financials and energy tilt.",
	"clean_energy":     "Solar, wind, and renewables; policy and rate sensitive.",
	"healthcare":       "Pharma, biotech, devices; defensive with innovation pockets.",
	"financials":       "Banks, payments, asset managers; rate-sensitive.",
	"semiconductors":   "Chip designers, foundries, and fab equipment.",
	"small_cap":        "Smaller companies; higher risk and dispersion.",
	"mid_cap":          "Middle of the cap range; balanced growth.",
	"large_cap_growth": "Mega-cap growth leaders.",
}

// Bucket is the ordered instrument list for one goal.
type Bucket struct {
	Goal        string
	Note        string
	Instruments []models.Instrument
}

// Universe is the immutable goal → bucket table, built once at startup.
type Universe struct {
	buckets map[string]Bucket
	goals   []string
}

// Load reads the universe CSV from disk. Columns: goal,symbol,name,type,tags
// (tags are semicolon-separated within the cell). Row order within a goal is
// preserved and becomes the bucket order.
func Load(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses universe CSV data from r.
func LoadFromReader(r io.Reader) (*Universe, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse universe: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(records[0][0], "goal") {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("universe is empty")
	}

	buckets := make(map[string]Bucket)
	var goals []string
	for i, record := range records {
		if len(record) < 4 {
			return nil, fmt.Errorf("universe row %d: want at least 4 columns, got %d", i+1, len(record))
		}
		goal := strings.ToLower(validation.SanitizeString(record[0]))
		inst := models.Instrument{
			Symbol: strings.ToUpper(validation.SanitizeString(record[1])),
			Name:   validation.SanitizeString(record[2]),
			Type:   validation.SanitizeString(record[3]),
		}
		if len(record) >= 5 {
			for _, t := range strings.Split(record[4], ";") {
				if t = validation.SanitizeString(t); t != "" {
					inst.Tags = append(inst.Tags, strings.ToLower(t))
				}
			}
		}
		if errs := validation.ValidateStruct(inst); len(errs) > 0 {
			return nil, fmt.Errorf("universe row %d (%s): %w", i+1, inst.Symbol, errs)
		}

		b, ok := buckets[goal]
		if !ok {
			b = Bucket{Goal: goal, Note: notes[goal]}
			goals = append(goals, goal)
		}
		b.Instruments = append(b.Instruments, inst)
		buckets[goal] = b
	}

	sort.Strings(goals)
	return &Universe{buckets: buckets, goals: goals}, nil
}

// Resolve returns the bucket for a goal, or ErrUnknownGoal. Pure lookup,
// no I/O; callers must not mutate the returned instrument slice.
func (u *Universe) Resolve(goal string) (Bucket, error) {
	b, ok := u.buckets[strings.ToLower(goal)]
	if !ok {
		return Bucket{}, fmt.Errorf("%w: %q", ErrUnknownGoal, goal)
	}
	return b, nil
}

// Goals returns the sorted list of supported goal identifiers.
func (u *Universe) Goals() []string {
	out := make([]string, len(u.goals))
	copy(out, u.goals)
	return out
}

// Note returns the description for a goal, or "" if absent.
func (u *Universe) Note(goal string) string {
	return u.buckets[strings.ToLower(goal)].Note
}
