package csvrepo

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/repo"
)

var _ repo.CatalogRepository = (*Repo)(nil)

//go:embed seed/*.csv
var seedFS embed.FS

// ZonesFile holds the water zone configuration inside a catalog directory.
const ZonesFile = "zones.csv"

// CatalogFile is the file name of a utility's meter table, e.g. "water.csv".
func CatalogFile(u domain.Utility) string { return string(u) + ".csv" }

// Repo is an in-memory repository of catalogs loaded at startup.
type Repo struct {
	catalogs map[domain.Utility]domain.Catalog
}

// NewFromDir loads every <utility>.csv found in dir. zones.csv, when
// present, configures the water catalog's zones.
//
// Parsing can be partially successful: the repository is returned together
// with an error describing the skipped rows.
func NewFromDir(dir string) (*Repo, error) {
	return NewFromFS(os.DirFS(dir))
}

// NewFallback loads the static dataset compiled into the binary.
func NewFallback() (*Repo, error) {
	sub, err := fs.Sub(seedFS, "seed")
	if err != nil {
		return nil, err
	}
	return NewFromFS(sub)
}

func NewFromFS(fsys fs.FS) (*Repo, error) {
	r := &Repo{catalogs: make(map[domain.Utility]domain.Catalog)}

	var zones []domain.Zone
	var warnings []error
	zf, err := fsys.Open(ZonesFile)
	switch {
	case err == nil:
		var zErr error
		zones, zErr = ParseZonesCSV(zf)
		zf.Close()
		if zErr != nil {
			warnings = append(warnings, fmt.Errorf("parse %s: %w", ZonesFile, zErr))
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("open %s: %w", ZonesFile, err)
	}

	for _, u := range domain.Utilities {
		name := CatalogFile(u)
		f, err := fsys.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		meters, parseErr := ParseMetersCSV(f)
		f.Close()
		if len(meters) == 0 && parseErr != nil {
			return nil, fmt.Errorf("parse %s: %w", name, parseErr)
		}
		if parseErr != nil {
			warnings = append(warnings, fmt.Errorf("parse %s: %w", name, parseErr))
		}

		c := domain.Catalog{Utility: u, Meters: meters}
		if u == domain.Water {
			c.Zones = zones
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s catalog: %w", u, err)
		}
		r.catalogs[u] = c
	}

	if len(r.catalogs) == 0 {
		return nil, fmt.Errorf("no catalogs found: %w", repo.ErrCatalogNotFound)
	}
	// Surface skipped rows to the caller.
	if len(warnings) > 0 {
		return r, errors.Join(warnings...)
	}
	return r, nil
}

func New(catalogs ...domain.Catalog) *Repo {
	r := &Repo{catalogs: make(map[domain.Utility]domain.Catalog, len(catalogs))}
	for _, c := range catalogs {
		r.catalogs[c.Utility] = clone(c)
	}
	return r
}

func (r *Repo) Load(ctx context.Context, u domain.Utility) (domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}
	c, ok := r.catalogs[u]
	if !ok {
		return domain.Catalog{}, fmt.Errorf("%s: %w", u, repo.ErrCatalogNotFound)
	}
	return clone(c), nil
}

// Utilities lists the utilities with a loaded catalog, in canonical order.
func (r *Repo) Utilities() []domain.Utility {
	var out []domain.Utility
	for _, u := range domain.Utilities {
		if _, ok := r.catalogs[u]; ok {
			out = append(out, u)
		}
	}
	return out
}

// clone copies the catalog's slices. Reading maps are shared and never written.
func clone(c domain.Catalog) domain.Catalog {
	c.Meters = append([]domain.Meter(nil), c.Meters...)
	c.Zones = append([]domain.Zone(nil), c.Zones...)
	return c
}
