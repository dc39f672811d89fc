// Package food composes the catalog, scorer and ranker into the operations the
// API and CLI expose.
package food

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/catalog"
	"github.com/dukerupert/platescore/internal/curation"
	"github.com/dukerupert/platescore/internal/model"
	"github.com/dukerupert/platescore/internal/ranking"
	"github.com/dukerupert/platescore/internal/scoring"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50

	// WarningUpstreamUnavailable marks a response built without the catalog.
	WarningUpstreamUnavailable = "upstream_unavailable"
)

type Service struct {
	catalog  catalog.Catalog
	scorer   *scoring.Scorer
	ranker   *ranking.Ranker
	curation curation.Data
	logger   *slog.Logger
}

func NewService(c catalog.Catalog, scorer *scoring.Scorer, data curation.Data, logger *slog.Logger) *Service {
	return &Service{
		catalog:  c,
		scorer:   scorer,
		ranker:   ranking.New(data.PreferredBrands, data.Categories),
		curation: data,
		logger:   logger,
	}
}

// SearchResult is a ranked, scored page of products. Warning is set when
// some or all of the catalog could not be reached, so Products may be
// partial or empty.
type SearchResult struct {
	Products []model.FoodProduct `json:"products"`
	Warning  string              `json:"warning,omitempty"`
}

// Search queries the catalog, ranks the results for the user's query and
// scores them. An unreachable catalog degrades to a partial or empty result
// with a warning rather than an error.
func (s *Service) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, apperr.Validation("query is required")
	}
	limit = ClampLimit(limit)

	upstreamQuery := s.curation.ExpandQuery(query)
	var warning string
	products, err := s.catalog.Search(ctx, upstreamQuery, limit)
	if err != nil {
		if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
			return SearchResult{}, err
		}
		s.logger.Warn("catalog unavailable, returning partial search", "query", query, "results", len(products), "error", err)
		warning = WarningUpstreamUnavailable
	}

	ranked := s.ranker.Rank(products, query)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.FoodProduct, len(ranked))
	for i, p := range ranked {
		out[i] = s.decorate(p)
	}
	s.logger.Debug("search", "query", query, "upstream_query", upstreamQuery, "results", len(out))
	return SearchResult{Products: out, Warning: warning}, nil
}

// ClampLimit applies the default and maximum search page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return min(limit, MaxSearchLimit)
}

// Lookup returns the scored product with the given barcode. A product the
// catalog does not know, or a catalog that cannot be reached, is reported as
// apperr NotFound; in the second case the error also matches
// apperr.ErrUpstreamUnavailable.
func (s *Service) Lookup(ctx context.Context, barcode string) (*model.FoodProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperr.Validation("barcode is required")
	}

	p, err := s.catalog.Lookup(ctx, barcode)
	if err != nil {
		if errors.Is(err, apperr.ErrUpstreamUnavailable) {
			s.logger.Warn("catalog unavailable for barcode lookup", "barcode", barcode, "error", err)
			return nil, &apperr.Error{Kind: apperr.KindNotFound, Msg: "product not found", Err: err}
		}
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product not found")
	}
	scored := s.decorate(*p)
	return &scored, nil
}

// Categories returns the curated category keywords.
func (s *Service) Categories() []string {
	return slices.Clone(s.curation.Categories)
}

// Popular returns the curated popular products, scored.
func (s *Service) Popular() []model.FoodProduct {
	out := make([]model.FoodProduct, len(s.curation.PopularItems))
	for i, p := range s.curation.PopularItems {
		out[i] = s.decorate(p)
	}
	return out
}

// Rescore recomputes the score and category of a client-supplied product so
// stale or forged values are never persisted.
func (s *Service) Rescore(p model.FoodProduct) model.FoodProduct {
	return s.decorate(p)
}

// Explain returns the score breakdown for p.
func (s *Service) Explain(p model.FoodProduct) scoring.Result {
	return s.scorer.Score(p)
}

// Region names the market the curation data targets.
func (s *Service) Region() string {
	return s.curation.Region
}

func (s *Service) decorate(p model.FoodProduct) model.FoodProduct {
	out := s.scorer.Apply(p)
	out.Category = s.ranker.Categorize(out.ProductName)
	return out
}
