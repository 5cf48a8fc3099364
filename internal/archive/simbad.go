package archive

import (
	"context"
	"strings"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// Simbad queries the SIMBAD astronomical object database
type Simbad struct {
	tap  querier
	desc Descriptor

	// extraColumns are appended to the default output columns
	extraColumns []string
}

// defaultSimbadColumns are always part of the object output
var defaultSimbadColumns = []string{"main_id", "ra", "dec", "otype"}

// NewSimbad creates a SIMBAD client over an existing TAP client
func NewSimbad(t querier, desc Descriptor) *Simbad {
	return &Simbad{tap: t, desc: desc}
}

// AddOutputColumns requests additional columns in object results, the
// way extra votable fields are requested from SIMBAD
func (s *Simbad) AddOutputColumns(columns ...string) {
	s.extraColumns = append(s.extraColumns, columns...)
}

// OutputColumns returns the effective output column list
func (s *Simbad) OutputColumns() []string {
	out := make([]string, 0, len(defaultSimbadColumns)+len(s.extraColumns))
	out = append(out, defaultSimbadColumns...)
	for _, c := range s.extraColumns {
		duplicate := false
		for _, have := range out {
			if strings.EqualFold(have, c) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, c)
		}
	}
	return out
}

// QueryObject looks up one object by identifier. Any identifier known to
// SIMBAD resolves through the ident table, not just the main one.
func (s *Simbad) QueryObject(ctx context.Context, identifier string) (*entity.Table, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.NewInvalidQueryError("object identifier is required")
	}

	query, err := adql.NewBuilder(s.desc.DefaultTable + " JOIN ident ON oidref = oid").
		Columns(s.OutputColumns()...).
		Where("id = '" + escape(identifier) + "'").
		Build()
	if err != nil {
		return nil, err
	}
	table, err := s.tap.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, domain.NewNotFoundError("object", identifier)
	}
	return table, nil
}

// ConeSearch returns objects within radius degrees of (ra, dec)
func (s *Simbad) ConeSearch(ctx context.Context, ra, dec, radius float64) (*entity.Table, error) {
	cone, err := adql.ConeSearch(s.desc.RAColumn, s.desc.DecColumn, ra, dec, radius)
	if err != nil {
		return nil, err
	}
	query, err := adql.NewBuilder(s.desc.DefaultTable).
		Top(s.desc.RowLimit).
		Columns(s.OutputColumns()...).
		Where(cone).
		Build()
	if err != nil {
		return nil, err
	}
	return s.tap.Query(ctx, query)
}

// QueryCriteria searches objects by column criteria
func (s *Simbad) QueryCriteria(ctx context.Context, criteria adql.Criteria) (*entity.Table, error) {
	if len(criteria) == 0 {
		return nil, domain.NewInvalidQueryError("criteria must not be empty")
	}
	b, err := adql.NewBuilder(s.desc.DefaultTable).
		Top(s.desc.RowLimit).
		Columns(s.OutputColumns()...).
		WhereCriteria(criteria)
	if err != nil {
		return nil, err
	}
	query, err := b.Build()
	if err != nil {
		return nil, err
	}
	return s.tap.Query(ctx, query)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
