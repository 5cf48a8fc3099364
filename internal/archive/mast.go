package archive

import (
	"context"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/tap"
)

// MAST queries the Mikulski Archive for Space Telescopes
type MAST struct {
	tap  querier
	desc Descriptor
}

// NewMAST creates a MAST client over an existing TAP client
func NewMAST(t querier, desc Descriptor) *MAST {
	return &MAST{tap: t, desc: desc}
}

// CriteriaQuery describes a MAST observation search. Exactly one of
// Criteria or ADQL must be set; Position is optional and requires all
// three of RA, Dec, Radius.
type CriteriaQuery struct {
	Criteria adql.Criteria
	ADQL     string
	Position *ConePosition
	Columns  []string
	Top      int
	OrderBy  string
}

// ConePosition is a positional constraint for a criteria query
type ConePosition struct {
	RA     float64
	Dec    float64
	Radius float64
}

// QueryCriteria searches observations by column criteria, translated to
// an ADQL WHERE clause. Raw ADQL and criteria are mutually exclusive.
func (m *MAST) QueryCriteria(ctx context.Context, q CriteriaQuery) (*entity.Table, error) {
	query, err := m.buildQuery(q)
	if err != nil {
		return nil, err
	}
	return m.tap.Query(ctx, query)
}

// QueryCriteriaAsync submits a criteria search as an asynchronous job
func (m *MAST) QueryCriteriaAsync(ctx context.Context, q CriteriaQuery) (*entity.Job, error) {
	query, err := m.buildQuery(q)
	if err != nil {
		return nil, err
	}
	return m.tap.SubmitJob(ctx, query)
}

func (m *MAST) buildQuery(q CriteriaQuery) (string, error) {
	if q.ADQL != "" && len(q.Criteria) > 0 {
		return "", domain.NewInvalidQueryError(
			"raw ADQL and criteria are mutually exclusive")
	}
	if q.ADQL != "" && q.Position != nil {
		return "", domain.NewInvalidQueryError(
			"raw ADQL and a cone position are mutually exclusive")
	}
	if q.ADQL != "" {
		return q.ADQL, nil
	}
	if len(q.Criteria) == 0 && q.Position == nil {
		return "", domain.NewInvalidQueryError(
			"a criteria query needs criteria, a position, or raw ADQL")
	}

	top := q.Top
	if top <= 0 {
		top = m.desc.RowLimit
	}
	b := adql.NewBuilder(m.desc.DefaultTable).Top(top)
	if len(q.Columns) > 0 {
		b = b.Columns(q.Columns...)
	}
	if q.OrderBy != "" {
		b = b.OrderBy(q.OrderBy)
	}

	if q.Position != nil {
		cone, err := adql.ConeSearch(m.desc.RAColumn, m.desc.DecColumn,
			q.Position.RA, q.Position.Dec, q.Position.Radius)
		if err != nil {
			return "", err
		}
		b = b.Where(cone)
	}
	if len(q.Criteria) > 0 {
		var err error
		b, err = b.WhereCriteria(q.Criteria)
		if err != nil {
			return "", err
		}
	}
	return b.Build()
}

// ConeSearch returns observations within radius degrees of (ra, dec)
func (m *MAST) ConeSearch(ctx context.Context, ra, dec, radius float64) (*entity.Table, error) {
	return m.QueryCriteria(ctx, CriteriaQuery{
		Position: &ConePosition{RA: ra, Dec: dec, Radius: radius},
	})
}

// Products lists the downloadable products of one observation
func (m *MAST) Products(ctx context.Context, obsID string) ([]entity.Product, error) {
	if obsID == "" {
		return nil, domain.NewInvalidQueryError("observation id is required")
	}
	b, err := adql.NewBuilder(m.desc.ProductsTable).
		Columns("name", "file_name", "size", "mime_type", "access_url").
		WhereCriteria(adql.Criteria{"obs_id": obsID})
	if err != nil {
		return nil, err
	}
	query, err := b.Build()
	if err != nil {
		return nil, err
	}
	table, err := m.tap.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return productsFromTable(table)
}

// RunAndWait submits a criteria query and blocks until results arrive
func (m *MAST) RunAndWait(ctx context.Context, q CriteriaQuery, opts tap.WaitOptions) (*entity.Table, error) {
	query, err := m.buildQuery(q)
	if err != nil {
		return nil, err
	}
	return m.tap.RunAndWait(ctx, query, opts)
}
