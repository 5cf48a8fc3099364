package adql

import (
	"fmt"
	"strings"

	"github.com/astrolab/voquery/internal/domain"
)

// Builder assembles a SELECT statement piece by piece. Zero value is not
// usable; use NewBuilder with the target table.
type Builder struct {
	table   string
	columns []string
	where   []string
	orderBy string
	top     int
}

// NewBuilder starts a query against the given table
func NewBuilder(table string) *Builder {
	return &Builder{table: table}
}

// Columns sets the output columns; default is *
func (b *Builder) Columns(cols ...string) *Builder {
	b.columns = cols
	return b
}

// Top limits the number of returned rows (TOP n)
func (b *Builder) Top(n int) *Builder {
	b.top = n
	return b
}

// Where appends a raw boolean fragment; fragments are AND-joined
func (b *Builder) Where(fragment string) *Builder {
	if strings.TrimSpace(fragment) != "" {
		b.where = append(b.where, fragment)
	}
	return b
}

// WhereCriteria translates and appends a criteria map
func (b *Builder) WhereCriteria(c Criteria) (*Builder, error) {
	fragment, err := c.Translate()
	if err != nil {
		return nil, err
	}
	return b.Where(fragment), nil
}

// OrderBy sets the sort column; prefix with "-" for descending
func (b *Builder) OrderBy(column string) *Builder {
	b.orderBy = column
	return b
}

// Build renders the final ADQL statement
func (b *Builder) Build() (string, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", domain.NewInvalidQueryError("query table must not be empty")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if b.top > 0 {
		fmt.Fprintf(&sb, "TOP %d ", b.top)
	}
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}

	if b.orderBy != "" {
		col := b.orderBy
		desc := false
		if strings.HasPrefix(col, "-") {
			col = col[1:]
			desc = true
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(col)
		if desc {
			sb.WriteString(" DESC")
		}
	}

	return sb.String(), nil
}

// ConeSearch renders the standard positional containment predicate:
// all rows whose (raColumn, decColumn) lie within radius degrees of
// (ra, dec), both in ICRS.
func ConeSearch(raColumn, decColumn string, ra, dec, radius float64) (string, error) {
	if raColumn == "" || decColumn == "" {
		return "", domain.NewInvalidQueryError("cone search needs ra and dec columns")
	}
	if radius <= 0 {
		return "", domain.NewInvalidQueryError("cone search radius must be positive")
	}
	if dec < -90 || dec > 90 {
		return "", domain.NewInvalidQueryError(
			fmt.Sprintf("cone search dec %g out of range [-90, 90]", dec))
	}
	return fmt.Sprintf(
		"1=CONTAINS(POINT('ICRS', %s, %s), CIRCLE('ICRS', %g, %g, %g))",
		raColumn, decColumn, ra, dec, radius), nil
}
