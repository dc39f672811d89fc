package model

// Nutrition holds nutrient facts per 100g. Any field may be nil when the
// catalog does not provide it.
type Nutrition struct {
	EnergyKcal    *float64 `json:"energy_100g,omitempty"`
	Fat           *float64 `json:"fat_100g,omitempty"`
	SaturatedFat  *float64 `json:"saturated_fat_100g,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates_100g,omitempty"`
	Sugars        *float64 `json:"sugars_100g,omitempty"`
	Fiber         *float64 `json:"fiber_100g,omitempty"`
	Proteins      *float64 `json:"proteins_100g,omitempty"`
	Salt          *float64 `json:"salt_100g,omitempty"`
	Sodium        *float64 `json:"sodium_100g,omitempty"`
}

// IsEmpty reports whether no nutrient value is set.
func (n *Nutrition) IsEmpty() bool {
	if n == nil {
		return true
	}
	for _, v := range n.values() {
		if v != nil {
			return false
		}
	}
	return true
}

func (n *Nutrition) values() []*float64 {
	return []*float64{
		n.EnergyKcal, n.Fat, n.SaturatedFat, n.Carbohydrates,
		n.Sugars, n.Fiber, n.Proteins, n.Salt, n.Sodium,
	}
}

func (n *Nutrition) clone() *Nutrition {
	if n == nil {
		return nil
	}
	return &Nutrition{
		EnergyKcal:    clonePtr(n.EnergyKcal),
		Fat:           clonePtr(n.Fat),
		SaturatedFat:  clonePtr(n.SaturatedFat),
		Carbohydrates: clonePtr(n.Carbohydrates),
		Sugars:        clonePtr(n.Sugars),
		Fiber:         clonePtr(n.Fiber),
		Proteins:      clonePtr(n.Proteins),
		Salt:          clonePtr(n.Salt),
		Sodium:        clonePtr(n.Sodium),
	}
}

// FoodProduct is a catalog product together with its computed health score.
type FoodProduct struct {
	ID              string     `json:"id"`
	ProductName     string     `json:"product_name"`
	Brand           *string    `json:"brand"`
	Barcode         *string    `json:"barcode"`
	ImageURL        *string    `json:"image_url"`
	NutriscoreGrade *string    `json:"nutriscore_grade"`
	NovaGroup       *int       `json:"nova_group"`
	Nutrition       *Nutrition `json:"nutrition"`
	IngredientsText *string    `json:"ingredients_text"`
	Additives       []string   `json:"additives"`
	Category        string     `json:"category,omitempty"`
	HealthScore     int        `json:"health_score"`
	HealthRating    string     `json:"health_rating"`
}

// BrandName returns the brand or "" when unset.
func (p FoodProduct) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return *p.Brand
}

// Clone returns a deep copy of p. Tracking entries keep clones so later
// changes to a product never reach recorded history.
func (p FoodProduct) Clone() FoodProduct {
	c := p
	c.Brand = clonePtr(p.Brand)
	c.Barcode = clonePtr(p.Barcode)
	c.ImageURL = clonePtr(p.ImageURL)
	c.NutriscoreGrade = clonePtr(p.NutriscoreGrade)
	c.NovaGroup = clonePtr(p.NovaGroup)
	c.IngredientsText = clonePtr(p.IngredientsText)
	c.Nutrition = p.Nutrition.clone()
	if p.Additives != nil {
		c.Additives = append([]string(nil), p.Additives...)
	}
	return c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}
