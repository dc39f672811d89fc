// Package curation holds the static, region-specific lists that bias search
// and feed the popular-items endpoint. Regional adjustments are a data change:
// point PLATESCORE_CURATION_FILE at a JSON file with the same shape as
// default.json.
package curation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dukerupert/platescore/internal/model"
)

//go:embed default.json
var defaultData []byte

// Expansion rewrites a query containing Term into Query before it is sent to
// the catalog.
type Expansion struct {
	Term  string `json:"term"`
	Query string `json:"query"`
}

type Data struct {
	Region          string              `json:"region"`
	Categories      []string            `json:"categories"`
	PreferredBrands []string            `json:"preferred_brands"`
	QueryExpansions []Expansion         `json:"query_expansions"`
	PopularItems    []model.FoodProduct `json:"popular_items"`
}

// Default returns the embedded curation data.
func Default() Data {
	d, err := parse(defaultData)
	if err != nil {
		panic(fmt.Sprintf("embedded curation data: %v", err))
	}
	return d
}

// Load reads curation data from path, or returns Default when path is empty.
func Load(path string) (Data, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read curation file: %w", err)
	}
	d, err := parse(raw)
	if err != nil {
		return Data{}, fmt.Errorf("parse curation file %s: %w", path, err)
	}
	return d, nil
}

func parse(raw []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, err
	}
	if err := d.Validate(); err != nil {
		return Data{}, err
	}
	return d, nil
}

// Validate rejects blank entries and popular items without an id or name.
func (d Data) Validate() error {
	for i, c := range d.Categories {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("category %d is blank", i)
		}
	}
	for i, b := range d.PreferredBrands {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("preferred brand %d is blank", i)
		}
	}
	for i, e := range d.QueryExpansions {
		if strings.TrimSpace(e.Term) == "" || strings.TrimSpace(e.Query) == "" {
			return fmt.Errorf("query expansion %d needs term and query", i)
		}
	}
	for i, p := range d.PopularItems {
		if p.ID == "" || p.ProductName == "" {
			return fmt.Errorf("popular item %d needs id and product_name", i)
		}
	}
	return nil
}

// ExpandQuery returns the catalog query for a user query: the first expansion
// whose term appears in the query (case-insensitive), or the query unchanged.
func (d Data) ExpandQuery(query string) string {
	q := strings.ToLower(query)
	for _, e := range d.QueryExpansions {
		if strings.Contains(q, strings.ToLower(e.Term)) {
			return e.Query
		}
	}
	return query
}
