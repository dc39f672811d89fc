// Package scoring computes a 0-100 health score and rating for food products
// from their per-100g nutrition facts, additives and classification grades.
package scoring

import (
	"math"
	"strings"

	"github.com/dukerupert/platescore/internal/model"
)

// Contribution is a single adjustment applied to the starting score.
// Penalties are negative, bonuses positive.
type Contribution struct {
	Factor string  `json:"factor"`
	Points float64 `json:"points"`
}

type Result struct {
	Score         int            `json:"score"`
	Rating        string         `json:"rating"`
	Start         float64        `json:"start"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

// Scorer applies a Policy. It holds no mutable state and is safe for
// concurrent use.
type Scorer struct {
	policy  Policy
	flagged map[string]bool
}

// New returns a Scorer for p after validating it.
func New(p Policy) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	flagged := make(map[string]bool, len(p.FlaggedAdditives))
	for _, a := range p.FlaggedAdditives {
		flagged[normalizeAdditive(a)] = true
	}
	return &Scorer{policy: p, flagged: flagged}, nil
}

// Policy returns the policy the scorer was built with.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score computes the health score of p. Missing values are neutral: they
// neither penalise nor reward. Only a product with no scoring input at all
// starts from the policy's neutral score instead of the baseline.
func (s *Scorer) Score(p model.FoodProduct) Result {
	pol := s.policy
	res := Result{Start: pol.Baseline}
	if !hasScoringInput(p) {
		res.Start = float64(pol.NeutralScore)
	}

	add := func(factor string, points float64) {
		if points != 0 {
			res.Contributions = append(res.Contributions, Contribution{Factor: factor, Points: points})
		}
	}

	if n := p.Nutrition; !n.IsEmpty() {
		if n.EnergyKcal != nil {
			add("energy", -pol.Energy.amount(*n.EnergyKcal))
		}
		if n.Sugars != nil {
			add("sugars", -pol.Sugars.amount(*n.Sugars))
		}
		switch {
		case n.SaturatedFat != nil:
			add("saturated_fat", -pol.SaturatedFat.amount(*n.SaturatedFat))
		case n.Fat != nil:
			add("fat", -pol.Fat.amount(*n.Fat))
		}
		switch {
		case n.Sodium != nil:
			add("sodium", -pol.Sodium.amount(*n.Sodium))
		case n.Salt != nil:
			add("sodium", -pol.Sodium.amount(*n.Salt/pol.SaltPerSodium))
		}
		if n.Fiber != nil {
			add("fiber", pol.Fiber.amount(*n.Fiber))
		}
		if n.Proteins != nil {
			add("protein", pol.Protein.amount(*n.Proteins))
		}
	}

	if len(p.Additives) > 0 {
		var flagged, other float64
		for _, a := range p.Additives {
			if s.flagged[normalizeAdditive(a)] {
				flagged += pol.FlaggedAdditivePenalty
			} else {
				other += pol.OtherAdditivePenalty
			}
		}
		add("flagged_additives", -min(flagged, pol.FlaggedAdditiveCap))
		add("other_additives", -min(other, pol.OtherAdditiveCap))
	}

	if p.NutriscoreGrade != nil {
		grade := strings.ToLower(strings.TrimSpace(*p.NutriscoreGrade))
		add("nutriscore", -pol.NutriscorePenalties[grade])
	}
	if p.NovaGroup != nil {
		add("nova", -pol.NovaPenalties[*p.NovaGroup])
	}

	total := res.Start
	for _, c := range res.Contributions {
		total += c.Points
	}
	res.Score = clampScore(total)
	res.Rating = pol.Rating(res.Score)
	return res
}

// hasScoringInput reports whether p carries any nutrient value, additive,
// Nutri-Score grade or NOVA group.
func hasScoringInput(p model.FoodProduct) bool {
	return !p.Nutrition.IsEmpty() ||
		len(p.Additives) > 0 ||
		(p.NutriscoreGrade != nil && strings.TrimSpace(*p.NutriscoreGrade) != "") ||
		p.NovaGroup != nil
}

// Apply returns a copy of p carrying its score and rating.
func (s *Scorer) Apply(p model.FoodProduct) model.FoodProduct {
	r := s.Score(p)
	out := p.Clone()
	out.HealthScore = r.Score
	out.HealthRating = r.Rating
	return out
}

// ApplyAll scores every product, returning a new slice.
func (s *Scorer) ApplyAll(products []model.FoodProduct) []model.FoodProduct {
	out := make([]model.FoodProduct, len(products))
	for i, p := range products {
		out[i] = s.Apply(p)
	}
	return out
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func normalizeAdditive(a string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	return strings.TrimPrefix(a, "en:")
}
