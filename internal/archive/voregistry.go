package archive

import (
	"context"
	"strings"

	"github.com/astrolab/voquery/internal/adql"
	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// VORegistry searches the Virtual Observatory registry for services
type VORegistry struct {
	tap  querier
	desc Descriptor
}

// NewVORegistry creates a registry client over an existing TAP client
func NewVORegistry(t querier, desc Descriptor) *VORegistry {
	return &VORegistry{tap: t, desc: desc}
}

// RegistrySearch filters registry resources. Keywords are required;
// service type and waveband narrow the match.
type RegistrySearch struct {
	Keywords    []string
	ServiceType string // e.g. tap, conesearch, sia, ssa
	Waveband    string // e.g. optical, infrared, radio
}

// Search returns registry resources matching the search terms
func (v *VORegistry) Search(ctx context.Context, s RegistrySearch) (*entity.Table, error) {
	if len(s.Keywords) == 0 {
		return nil, domain.NewInvalidQueryError("registry search needs at least one keyword")
	}

	b := adql.NewBuilder(v.desc.DefaultTable).
		Top(v.desc.RowLimit).
		Columns("ivoid", "res_title", "res_description", "waveband")

	// each keyword must match title or description
	for _, kw := range s.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			return nil, domain.NewInvalidQueryError("registry keyword must not be empty")
		}
		pattern := "%" + strings.ToLower(escape(kw)) + "%"
		b = b.Where("(LOWER(res_title) LIKE '" + pattern + "' OR LOWER(res_description) LIKE '" + pattern + "')")
	}

	if s.ServiceType != "" {
		c, err := b.WhereCriteria(adql.Criteria{"res_type": s.ServiceType})
		if err != nil {
			return nil, err
		}
		b = c
	}
	if s.Waveband != "" {
		pattern := "%" + strings.ToLower(escape(s.Waveband)) + "%"
		b = b.Where("LOWER(waveband) LIKE '" + pattern + "'")
	}

	query, err := b.Build()
	if err != nil {
		return nil, err
	}
	return v.tap.Query(ctx, query)
}
