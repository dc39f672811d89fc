// Package ranking reorders catalog search results so regional brands and
// products from the category the user asked for come first.
package ranking

import (
	"slices"
	"strings"

	"github.com/dukerupert/platescore/internal/model"
)

const (
	groupPreferredBrand = iota
	groupCategoryMatch
	groupOther
)

// Ranker holds the preferred brand and category keyword lists. It is
// immutable after construction and safe for concurrent use.
type Ranker struct {
	brands []string
	// categories is ordered longest first so "gulab jamun" wins over "jam".
	categories []string
}

// New builds a Ranker. Matching is case-insensitive; blank entries are
// ignored.
func New(preferredBrands, categories []string) *Ranker {
	return &Ranker{
		brands:     normalize(preferredBrands),
		categories: byLengthDesc(normalize(categories)),
	}
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func byLengthDesc(in []string) []string {
	slices.SortStableFunc(in, func(a, b string) int {
		return len(b) - len(a)
	})
	return in
}

// Rank returns a reordered copy of products: preferred brands first, then
// products whose name contains a category keyword that also appears in the
// query, then the rest. Relative order within each group is preserved and
// no product is added or removed. The input slice is not modified.
func (r *Ranker) Rank(products []model.FoodProduct, query string) []model.FoodProduct {
	if len(products) < 2 {
		return slices.Clone(products)
	}

	type ranked struct {
		product model.FoodProduct
		group   int
	}
	queryKeywords := r.keywordsIn(strings.ToLower(query))
	items := make([]ranked, len(products))
	for i, p := range products {
		items[i] = ranked{product: p, group: r.group(p, queryKeywords)}
	}
	slices.SortStableFunc(items, func(a, b ranked) int {
		return a.group - b.group
	})

	out := make([]model.FoodProduct, len(items))
	for i, it := range items {
		out[i] = it.product
	}
	return out
}

func (r *Ranker) group(p model.FoodProduct, queryKeywords []string) int {
	if r.IsPreferredBrand(p.BrandName()) {
		return groupPreferredBrand
	}
	name := strings.ToLower(p.ProductName)
	for _, k := range queryKeywords {
		if strings.Contains(name, k) {
			return groupCategoryMatch
		}
	}
	return groupOther
}

func (r *Ranker) keywordsIn(query string) []string {
	if query == "" {
		return nil
	}
	var out []string
	for _, c := range r.categories {
		if strings.Contains(query, c) {
			out = append(out, c)
		}
	}
	return out
}

// IsPreferredBrand reports whether brand contains any preferred brand.
func (r *Ranker) IsPreferredBrand(brand string) bool {
	if brand == "" {
		return false
	}
	b := strings.ToLower(brand)
	for _, pb := range r.brands {
		if strings.Contains(b, pb) {
			return true
		}
	}
	return false
}

// Categorize returns the curated category keyword contained in a product
// name, preferring the longest match, or "" when there is none.
func (r *Ranker) Categorize(productName string) string {
	name := strings.ToLower(strings.TrimSpace(productName))
	if name == "" {
		return ""
	}
	for _, c := range r.categories {
		if strings.Contains(name, c) {
			return c
		}
	}
	return ""
}
