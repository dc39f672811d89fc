package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Factor describes a per-100g penalty or bonus. It applies only when the
// nutrient value exceeds Threshold; the amount is (value-Threshold)*Weight,
// limited to Cap.
type Factor struct {
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
	Cap       float64 `json:"cap"`
}

func (f Factor) amount(v float64) float64 {
	if v <= f.Threshold {
		return 0
	}
	return min((v-f.Threshold)*f.Weight, f.Cap)
}

func (f Factor) validate(name string) error {
	if f.Weight < 0 || f.Cap < 0 {
		return fmt.Errorf("%s: weight and cap must not be negative", name)
	}
	if f.Cap > 100 {
		return fmt.Errorf("%s: cap %v exceeds 100", name, f.Cap)
	}
	return nil
}

// Band maps scores >= Min to Label.
type Band struct {
	Min   int    `json:"min"`
	Label string `json:"label"`
}

// Policy holds every constant of the scoring model. Regional guideline
// changes are made here; the algorithm in Scorer never changes.
type Policy struct {
	// Baseline is the starting score when any scoring input is present:
	// a nutrient value, an additive, a Nutri-Score grade or a NOVA group.
	Baseline float64 `json:"baseline"`
	// NeutralScore is the score of a product with none of those inputs.
	NeutralScore int `json:"neutral_score"`

	Energy       Factor `json:"energy"`
	Sugars       Factor `json:"sugars"`
	SaturatedFat Factor `json:"saturated_fat"`
	// Fat is used only when saturated fat is unknown.
	Fat    Factor `json:"fat"`
	Sodium Factor `json:"sodium"`
	// SaltPerSodium converts salt to sodium when only salt is reported.
	SaltPerSodium float64 `json:"salt_per_sodium"`

	Fiber   Factor `json:"fiber"`
	Protein Factor `json:"protein"`

	FlaggedAdditives       []string `json:"flagged_additives"`
	FlaggedAdditivePenalty float64  `json:"flagged_additive_penalty"`
	FlaggedAdditiveCap     float64  `json:"flagged_additive_cap"`
	OtherAdditivePenalty   float64  `json:"other_additive_penalty"`
	OtherAdditiveCap       float64  `json:"other_additive_cap"`

	NutriscorePenalties map[string]float64 `json:"nutriscore_penalties"`
	NovaPenalties       map[int]float64    `json:"nova_penalties"`

	// Bands are ordered from the highest Min to the lowest; the lowest must
	// be 0 so every score has a label.
	Bands []Band `json:"bands"`
}

const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingModerate  = "Moderate"
	RatingPoor      = "Poor"
	RatingUnhealthy = "Unhealthy"
)

// DefaultPolicy returns the scoring constants used when no policy file is
// configured.
func DefaultPolicy() Policy {
	return Policy{
		Baseline:     100,
		NeutralScore: 60,

		Energy:        Factor{Threshold: 300, Weight: 0.1, Cap: 20},
		Sugars:        Factor{Threshold: 5, Weight: 2.5, Cap: 35},
		SaturatedFat:  Factor{Threshold: 3, Weight: 3, Cap: 25},
		Fat:           Factor{Threshold: 17.5, Weight: 1, Cap: 15},
		Sodium:        Factor{Threshold: 0.4, Weight: 40, Cap: 30},
		SaltPerSodium: 2.5,

		Fiber:   Factor{Threshold: 3, Weight: 3, Cap: 10},
		Protein: Factor{Threshold: 10, Weight: 1, Cap: 10},

		FlaggedAdditives: []string{
			"e102", "e104", "e110", "e122", "e124", "e129", // azo and coal-tar dyes
			"e171",
			"e211", "e220", "e250", "e251", "e252",
			"e320", "e321",
			"e621", "e627", "e631",
			"e950", "e951", "e952", "e954",
		},
		FlaggedAdditivePenalty: 8,
		FlaggedAdditiveCap:     24,
		OtherAdditivePenalty:   1,
		OtherAdditiveCap:       5,

		NutriscorePenalties: map[string]float64{"a": 0, "b": 5, "c": 10, "d": 20, "e": 30},
		NovaPenalties:       map[int]float64{1: 0, 2: 3, 3: 8, 4: 15},

		Bands: []Band{
			{Min: 85, Label: RatingExcellent},
			{Min: 70, Label: RatingGood},
			{Min: 55, Label: RatingModerate},
			{Min: 40, Label: RatingPoor},
			{Min: 0, Label: RatingUnhealthy},
		},
	}
}

// Validate checks that the policy can only produce scores in [0,100] with a
// label for every score.
func (p Policy) Validate() error {
	if p.Baseline < 0 || p.Baseline > 100 {
		return fmt.Errorf("baseline %v outside [0,100]", p.Baseline)
	}
	if p.NeutralScore < 0 || p.NeutralScore > 100 {
		return fmt.Errorf("neutral score %d outside [0,100]", p.NeutralScore)
	}
	factors := map[string]Factor{
		"energy": p.Energy, "sugars": p.Sugars, "saturated_fat": p.SaturatedFat,
		"fat": p.Fat, "sodium": p.Sodium, "fiber": p.Fiber, "protein": p.Protein,
	}
	for name, f := range factors {
		if err := f.validate(name); err != nil {
			return err
		}
	}
	if p.SaltPerSodium <= 0 {
		return fmt.Errorf("salt_per_sodium must be positive")
	}
	if p.FlaggedAdditivePenalty < 0 || p.FlaggedAdditiveCap < 0 || p.OtherAdditivePenalty < 0 || p.OtherAdditiveCap < 0 {
		return fmt.Errorf("additive penalties must not be negative")
	}
	for grade, v := range p.NutriscorePenalties {
		if v < 0 {
			return fmt.Errorf("nutriscore penalty for %q is negative", grade)
		}
	}
	for group, v := range p.NovaPenalties {
		if v < 0 {
			return fmt.Errorf("nova penalty for group %d is negative", group)
		}
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("at least one rating band is required")
	}
	for i, b := range p.Bands {
		if strings.TrimSpace(b.Label) == "" {
			return fmt.Errorf("band %d has no label", i)
		}
		if i > 0 && b.Min >= p.Bands[i-1].Min {
			return fmt.Errorf("bands must be ordered by descending min (band %d)", i)
		}
	}
	if last := p.Bands[len(p.Bands)-1]; last.Min != 0 {
		return fmt.Errorf("lowest band must start at 0, got %d", last.Min)
	}
	return nil
}

// Rating maps a score to its band label.
func (p Policy) Rating(score int) string {
	for _, b := range p.Bands {
		if score >= b.Min {
			return b.Label
		}
	}
	return p.Bands[len(p.Bands)-1].Label
}

// LoadPolicy reads a JSON policy file. Fields missing from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read scoring policy: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("decode scoring policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid scoring policy: %w", err)
	}
	return p, nil
}
