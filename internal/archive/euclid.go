package archive

import (
	"context"
	"fmt"
	"net/url"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/tap"
)

// Euclid queries the ESA Euclid science archive
type Euclid struct {
	tap  querier
	desc Descriptor
}

// NewEuclid creates a Euclid client over an existing TAP client
func NewEuclid(t querier, desc Descriptor) *Euclid {
	return &Euclid{tap: t, desc: desc}
}

// ConeSearch returns catalog entries within radius degrees of (ra, dec)
func (e *Euclid) ConeSearch(ctx context.Context, ra, dec, radius float64) (*entity.Table, error) {
	cone, err := adql.ConeSearch(e.desc.RAColumn, e.desc.DecColumn, ra, dec, radius)
	if err != nil {
		return nil, err
	}
	query, err := adql.NewBuilder(e.desc.DefaultTable).
		Top(e.desc.RowLimit).
		Where(cone).
		Build()
	if err != nil {
		return nil, err
	}
	return e.tap.Query(ctx, query)
}

// Query runs a raw ADQL query synchronously
func (e *Euclid) Query(ctx context.Context, query string) (*entity.Table, error) {
	return e.tap.Query(ctx, query)
}

// QueryAsync submits a raw ADQL query as an asynchronous job
func (e *Euclid) QueryAsync(ctx context.Context, query string) (*entity.Job, error) {
	return e.tap.SubmitJob(ctx, query)
}

// Products lists the downloadable products of one observation
func (e *Euclid) Products(ctx context.Context, observationID string) ([]entity.Product, error) {
	if observationID == "" {
		return nil, domain.NewInvalidQueryError("observation id is required")
	}
	if e.desc.ProductsTable == "" {
		return nil, domain.NewInvalidQueryError(
			fmt.Sprintf("archive %s has no product listing", e.desc.Name))
	}

	b, err := adql.NewBuilder(e.desc.ProductsTable).
		Columns("name", "file_name", "size", "mime_type", "access_url").
		WhereCriteria(adql.Criteria{"observation_id": observationID})
	if err != nil {
		return nil, err
	}
	query, err := b.Build()
	if err != nil {
		return nil, err
	}

	table, err := e.tap.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return productsFromTable(table)
}

// CutoutURL builds the URL of a cutout of an image product centered on
// (ra, dec) with the given side length in degrees. The download layer
// fetches it like any other product URL.
func (e *Euclid) CutoutURL(productURL string, ra, dec, size float64) (string, error) {
	if productURL == "" {
		return "", domain.NewInvalidQueryError("product url is required")
	}
	if size <= 0 {
		return "", domain.NewInvalidQueryError("cutout size must be positive")
	}
	u, err := url.Parse(productURL)
	if err != nil {
		return "", domain.NewInvalidQueryError("invalid product url: " + productURL)
	}
	q := u.Query()
	q.Set("CIRCLE", fmt.Sprintf("%g %g %g", ra, dec, size/2))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RunAndWait submits a query and blocks until its results are available
func (e *Euclid) RunAndWait(ctx context.Context, query string, opts tap.WaitOptions) (*entity.Table, error) {
	return e.tap.RunAndWait(ctx, query, opts)
}
