// Package catalog fetches raw product records from an external open food
// product database.
package catalog

import (
	"context"

	"github.com/dukerupert/platescore/internal/model"
)

// Catalog is the capability the rest of the application needs from the
// external product database. Products are returned unscored.
type Catalog interface {
	// Search returns products matching a free-text query, at most limit
	// from each source consulted. Transport failures and timeouts are
	// reported as apperr.KindUpstreamUnavailable; when only some sources
	// failed, the products that were found are returned alongside that
	// error.
	Search(ctx context.Context, query string, limit int) ([]model.FoodProduct, error)
	// Lookup returns the product with the given barcode, or nil when the
	// catalog does not know it.
	Lookup(ctx context.Context, barcode string) (*model.FoodProduct, error)
}
