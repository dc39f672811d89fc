package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/model"
)

const (
	DefaultRegionalURL = "https://in.openfoodfacts.org/api/v2"
	DefaultGlobalURL   = "https://world.openfoodfacts.org/api/v2"
	DefaultTimeout     = 10 * time.Second
	DefaultUserAgent   = "platescore/1.0 (+https://github.com/dukerupert/platescore)"

	// minRegionalResults is how many regional hits make the global search
	// unnecessary.
	minRegionalResults = 5
	maxRegionalPage    = 15

	productFields = "code,product_name,brands,image_url,nutriscore_grade,nova_group,nutriments,ingredients_text,additives_tags,countries_tags"
)

// Config holds Open Food Facts client configuration.
type Config struct {
	RegionalURL string
	GlobalURL   string
	// RegionalCountry is sent as the countries filter on regional searches.
	RegionalCountry string
	Timeout         time.Duration
	UserAgent       string
}

// OpenFoodFacts queries the regional Open Food Facts database first and
// falls back to the global one.
type OpenFoodFacts struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*OpenFoodFacts)

// WithHTTPClient replaces the default client. Its Timeout is left as given.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OpenFoodFacts) {
		o.httpClient = c
	}
}

func NewOpenFoodFacts(cfg Config, logger *slog.Logger, opts ...Option) *OpenFoodFacts {
	if cfg.RegionalURL == "" {
		cfg.RegionalURL = DefaultRegionalURL
	}
	if cfg.GlobalURL == "" {
		cfg.GlobalURL = DefaultGlobalURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	o := &OpenFoodFacts{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ Catalog = (*OpenFoodFacts)(nil)

// Search queries the regional database and, when it returns fewer than five
// products, the global database too. Results are de-duplicated by id with
// regional products first. The global database also holds every regional
// product, so only a global failure makes the result partial: the regional
// products are then returned together with an UpstreamUnavailable error.
func (o *OpenFoodFacts) Search(ctx context.Context, query string, limit int) ([]model.FoodProduct, error) {
	regional, regionalErr := o.search(ctx, o.cfg.RegionalURL, o.cfg.RegionalCountry, query, min(limit, maxRegionalPage))
	if regionalErr == nil && len(regional) >= minRegionalResults {
		return regional, nil
	}
	if regionalErr != nil {
		o.logger.Warn("regional search failed", "query", query, "error", regionalErr)
	}

	global, globalErr := o.search(ctx, o.cfg.GlobalURL, "", query, limit)
	if globalErr != nil {
		if regionalErr != nil {
			return nil, apperr.Upstream("catalog search", errors.Join(regionalErr, globalErr))
		}
		o.logger.Warn("global search failed", "query", query, "regional_results", len(regional), "error", globalErr)
		return regional, apperr.Upstream("catalog search", globalErr)
	}

	return mergeUnique(regional, global), nil
}

func mergeUnique(lists ...[]model.FoodProduct) []model.FoodProduct {
	seen := make(map[string]bool)
	var out []model.FoodProduct
	for _, list := range lists {
		for _, p := range list {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

type searchResponse struct {
	Products []rawProduct `json:"products"`
}

func (o *OpenFoodFacts) search(ctx context.Context, baseURL, country, query string, pageSize int) ([]model.FoodProduct, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("fields", productFields)
	if country != "" {
		params.Set("countries", country)
	}

	var resp searchResponse
	status, err := o.getJSON(ctx, baseURL+"/search?"+params.Encode(), &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("search %s: status %d", baseURL, status)
	}

	products := make([]model.FoodProduct, 0, len(resp.Products))
	for _, rp := range resp.Products {
		products = append(products, rp.toModel())
	}
	return products, nil
}

// Lookup tries the regional database, then the global one. It reports an
// upstream error only when no product was found and the global database
// could not be reached.
func (o *OpenFoodFacts) Lookup(ctx context.Context, barcode string) (*model.FoodProduct, error) {
	p, err := o.lookup(ctx, o.cfg.RegionalURL, barcode)
	if err != nil {
		o.logger.Warn("regional lookup failed", "barcode", barcode, "error", err)
	}
	if p != nil {
		return p, nil
	}

	p, err = o.lookup(ctx, o.cfg.GlobalURL, barcode)
	if err != nil {
		return nil, apperr.Upstream("catalog lookup", err)
	}
	return p, nil
}

type productResponse struct {
	Status  int         `json:"status"`
	Product *rawProduct `json:"product"`
}

func (o *OpenFoodFacts) lookup(ctx context.Context, baseURL, barcode string) (*model.FoodProduct, error) {
	params := url.Values{}
	params.Set("fields", productFields)

	var resp productResponse
	status, err := o.getJSON(ctx, baseURL+"/product/"+url.PathEscape(barcode)+"?"+params.Encode(), &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("lookup %s: status %d", baseURL, status)
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, nil
	}
	p := resp.Product.toModel()
	return &p, nil
}

// getJSON performs a GET and decodes the body into v for 200 and 404
// responses. Other statuses are returned without decoding.
func (o *OpenFoodFacts) getJSON(ctx context.Context, rawURL string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", o.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if resp.StatusCode == http.StatusNotFound {
			return resp.StatusCode, nil
		}
		return 0, fmt.Errorf("decode catalog response: %w", err)
	}
	return resp.StatusCode, nil
}

// rawProduct mirrors the subset of Open Food Facts product fields we request.
type rawProduct struct {
	Code            string                     `json:"code"`
	ProductName     string                     `json:"product_name"`
	Brands          string                     `json:"brands"`
	ImageURL        string                     `json:"image_url"`
	NutriscoreGrade string                     `json:"nutriscore_grade"`
	NovaGroup       flexNumber                 `json:"nova_group"`
	Nutriments      map[string]json.RawMessage `json:"nutriments"`
	IngredientsText string                     `json:"ingredients_text"`
	AdditivesTags   []string                   `json:"additives_tags"`
}

func (rp rawProduct) toModel() model.FoodProduct {
	p := model.FoodProduct{
		ID:              rp.Code,
		ProductName:     strings.TrimSpace(rp.ProductName),
		Brand:           optional(rp.Brands),
		Barcode:         optional(rp.Code),
		ImageURL:        optional(rp.ImageURL),
		NutriscoreGrade: optional(strings.ToLower(rp.NutriscoreGrade)),
		IngredientsText: optional(rp.IngredientsText),
		Additives:       []string{},
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ProductName == "" {
		p.ProductName = "Unknown Product"
	}
	if rp.NovaGroup.Valid {
		p.NovaGroup = model.Ptr(int(rp.NovaGroup.Value))
	}

	n := model.Nutrition{
		EnergyKcal:    nutrient(rp.Nutriments, "energy-kcal_100g"),
		Fat:           nutrient(rp.Nutriments, "fat_100g"),
		SaturatedFat:  nutrient(rp.Nutriments, "saturated-fat_100g"),
		Carbohydrates: nutrient(rp.Nutriments, "carbohydrates_100g"),
		Sugars:        nutrient(rp.Nutriments, "sugars_100g"),
		Fiber:         nutrient(rp.Nutriments, "fiber_100g"),
		Proteins:      nutrient(rp.Nutriments, "proteins_100g"),
		Salt:          nutrient(rp.Nutriments, "salt_100g"),
		Sodium:        nutrient(rp.Nutriments, "sodium_100g"),
	}
	if !n.IsEmpty() {
		p.Nutrition = &n
	}

	for _, tag := range rp.AdditivesTags {
		if id, ok := strings.CutPrefix(tag, "en:"); ok && id != "" {
			p.Additives = append(p.Additives, id)
		}
	}
	return p
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// nutrient reads a nutriment that may be encoded as a number or a numeric
// string. Anything else is treated as absent.
func nutrient(m map[string]json.RawMessage, key string) *float64 {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	var n flexNumber
	if err := json.Unmarshal(raw, &n); err != nil || !n.Valid {
		return nil
	}
	return model.Ptr(n.Value)
}

// flexNumber decodes JSON numbers and numeric strings; null, empty strings
// and other values leave Valid false.
type flexNumber struct {
	Value float64
	Valid bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f.Value, f.Valid = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	f.Value, f.Valid = v, true
	return nil
}
