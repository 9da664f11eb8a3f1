package repo

import (
	"context"
	"errors"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// ErrCatalogNotFound is returned when no catalog is stored for a utility.
var ErrCatalogNotFound = errors.New("catalog not found")

// CatalogRepository provides read access to meter catalogs.
type CatalogRepository interface {
	// Load returns the current snapshot for a utility. The returned catalog
	// must be treated as read-only by callers.
	Load(ctx context.Context, u domain.Utility) (domain.Catalog, error)
}

// CatalogStore is a repository that can also persist catalogs.
type CatalogStore interface {
	CatalogRepository
	// Save replaces the stored snapshot for c.Utility.
	Save(ctx context.Context, c domain.Catalog) error
}
