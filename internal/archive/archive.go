// Package archive provides thin clients for individual astronomical data
// archives. Every client follows the same pattern: build an ADQL query or
// request URL, call the service through the TAP client, and hand back the
// decoded table.
package archive

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/tap"
)

// querier is the slice of the TAP client the archive clients use;
// tests substitute a fake
type querier interface {
	Query(ctx context.Context, adql string) (*entity.Table, error)
	SubmitJob(ctx context.Context, adql string) (*entity.Job, error)
	RunAndWait(ctx context.Context, adql string, opts tap.WaitOptions) (*entity.Table, error)
}

// Descriptor describes one known archive service
type Descriptor struct {
	Name          string `json:"name"`
	BaseURL       string `json:"baseUrl"`
	DefaultTable  string `json:"defaultTable"`
	ProductsTable string `json:"productsTable,omitempty"`
	RAColumn      string `json:"raColumn"`
	DecColumn     string `json:"decColumn"`
	RowLimit      int    `json:"rowLimit"`
	Description   string `json:"description,omitempty"`
}

// Registry maps archive names to their service descriptors
type Registry struct {
	archives map[string]Descriptor
}

// BuiltinRegistry returns the archives the client knows out of the box
func BuiltinRegistry() *Registry {
	r := &Registry{archives: make(map[string]Descriptor)}
	for _, d := range []Descriptor{
		{
			Name:          "euclid",
			BaseURL:       "https://eas.esac.esa.int/tap-server/tap",
			DefaultTable:  "sascat.observation",
			ProductsTable: "sascat.observation_product",
			RAColumn:      "ra",
			DecColumn:     "dec",
			RowLimit:      2000,
			Description:   "ESA Euclid Science Archive",
		},
		{
			Name:          "mast",
			BaseURL:       "https://mast.stsci.edu/vo-tap/api/v0.1/caom",
			DefaultTable:  "dbo.ObsPointing",
			ProductsTable: "dbo.ObsProduct",
			RAColumn:      "s_ra",
			DecColumn:     "s_dec",
			RowLimit:      5000,
			Description:   "Mikulski Archive for Space Telescopes",
		},
		{
			Name:         "simbad",
			BaseURL:      "https://simbad.cds.unistra.fr/simbad/sim-tap",
			DefaultTable: "basic",
			RAColumn:     "ra",
			DecColumn:    "dec",
			RowLimit:     10000,
			Description:  "SIMBAD astronomical object database",
		},
		{
			Name:         "registry",
			BaseURL:      "https://dc.g-vo.org/tap",
			DefaultTable: "rr.resource",
			RAColumn:     "",
			DecColumn:    "",
			RowLimit:     1000,
			Description:  "Virtual Observatory registry (RegTAP)",
		},
	} {
		r.archives[d.Name] = d
	}
	return r
}

// Get returns the descriptor for a named archive
func (r *Registry) Get(name string) (Descriptor, error) {
	d, ok := r.archives[strings.ToLower(name)]
	if !ok {
		return Descriptor{}, domain.NewNotFoundError("archive", name)
	}
	return d, nil
}

// List returns all descriptors sorted by name
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.archives))
	for _, d := range r.archives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Override replaces the base URL of a known archive; used to point a
// client at a mirror or at the local simulator
func (r *Registry) Override(name, baseURL string) error {
	d, err := r.Get(name)
	if err != nil {
		return err
	}
	d.BaseURL = baseURL
	r.archives[d.Name] = d
	return nil
}

// productsFromTable maps a product listing result to product records.
// Column lookup is by name so archives may return extra columns.
func productsFromTable(t *entity.Table) ([]entity.Product, error) {
	idx := func(name string) int { return t.ColumnIndex(name) }
	nameIdx := idx("name")
	fileIdx := idx("file_name")
	sizeIdx := idx("size")
	mimeIdx := idx("mime_type")
	urlIdx := idx("access_url")
	if nameIdx < 0 || urlIdx < 0 {
		return nil, domain.NewInternalError(
			errMissingColumns(t.ColumnNames()))
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	products := make([]entity.Product, 0, t.Len())
	for _, row := range t.Rows {
		p := entity.Product{
			Name:      cell(row, nameIdx),
			FileName:  cell(row, fileIdx),
			MimeType:  cell(row, mimeIdx),
			AccessURL: cell(row, urlIdx),
		}
		if s := cell(row, sizeIdx); s != "" {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				p.Size = n
			}
		}
		if p.FileName == "" {
			p.FileName = p.Name
		}
		products = append(products, p)
	}
	return products, nil
}

type errMissingColumns []string

func (e errMissingColumns) Error() string {
	return "product listing missing name/access_url columns, got: " + strings.Join(e, ", ")
}
