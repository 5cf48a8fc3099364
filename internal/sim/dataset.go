package sim

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/astrolab/voquery/internal/domain/entity"
)

// Dataset answers queries from canned tables. It is not an ADQL engine:
// it routes on the FROM target and honors TOP, which is all the client
// side needs for realistic round trips.
type Dataset struct {
	catalog  *entity.Table
	products *entity.Table
	rowLimit int
}

// NewDataset builds the built-in catalog. rowLimit bounds any result and
// marks overflow the way a real service does.
func NewDataset(rowLimit int) *Dataset {
	if rowLimit <= 0 {
		rowLimit = 1000
	}
	return &Dataset{
		catalog:  builtinCatalog(),
		products: builtinProducts(),
		rowLimit: rowLimit,
	}
}

var topPattern = regexp.MustCompile(`(?i)\bSELECT\s+TOP\s+(\d+)\b`)

// Execute answers one ADQL query
func (d *Dataset) Execute(query string) (*entity.Table, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty query")
	}
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") {
		return nil, fmt.Errorf("only SELECT statements are supported")
	}
	if !strings.Contains(upper, " FROM ") {
		return nil, fmt.Errorf("query has no FROM clause")
	}

	var src *entity.Table
	switch {
	case strings.Contains(upper, "TAP_SCHEMA.TABLES"):
		src = d.schemaTables()
	case strings.Contains(upper, "TAP_SCHEMA.COLUMNS"):
		src = d.schemaColumns()
	case strings.Contains(upper, "PRODUCT"):
		src = d.products
	default:
		src = d.catalog
	}

	limit := d.rowLimit
	if m := topPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n < limit {
			limit = n
		}
	}

	out := &entity.Table{Columns: src.Columns}
	for i, row := range src.Rows {
		if i >= limit {
			out.Truncated = true
			break
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (d *Dataset) schemaTables() *entity.Table {
	return &entity.Table{
		Columns: []entity.Column{
			{Name: "schema_name", Datatype: "char"},
			{Name: "table_name", Datatype: "char"},
			{Name: "description", Datatype: "char"},
		},
		Rows: [][]string{
			{"sascat", "sascat.observation", "simulated observation catalog"},
			{"sascat", "sascat.observation_product", "simulated product listing"},
		},
	}
}

func (d *Dataset) schemaColumns() *entity.Table {
	out := &entity.Table{
		Columns: []entity.Column{
			{Name: "column_name", Datatype: "char"},
			{Name: "datatype", Datatype: "char"},
			{Name: "unit", Datatype: "char"},
			{Name: "ucd", Datatype: "char"},
			{Name: "description", Datatype: "char"},
		},
	}
	for _, col := range d.catalog.Columns {
		out.Rows = append(out.Rows, []string{col.Name, col.Datatype, col.Unit, col.UCD, col.Description})
	}
	return out
}

func builtinCatalog() *entity.Table {
	return &entity.Table{
		Columns: []entity.Column{
			{Name: "observation_id", Datatype: "char", UCD: "meta.id"},
			{Name: "target_name", Datatype: "char", UCD: "meta.id;src"},
			{Name: "ra", Datatype: "double", Unit: "deg", UCD: "pos.eq.ra"},
			{Name: "dec", Datatype: "double", Unit: "deg", UCD: "pos.eq.dec"},
			{Name: "instrument_name", Datatype: "char", UCD: "meta.id;instr"},
			{Name: "t_exptime", Datatype: "double", Unit: "s", UCD: "time.duration;obs.exposure"},
		},
		Rows: [][]string{
			{"00001", "NGC 6543", "269.6392", "66.6330", "VIS", "565"},
			{"00002", "NGC 6543", "269.6392", "66.6330", "NISP", "112"},
			{"00003", "M 31", "10.6847", "41.2687", "VIS", "565"},
			{"00004", "M 31", "10.6847", "41.2687", "NISP", "112"},
			{"00005", "Abell 2390", "328.4034", "17.6955", "VIS", "590"},
			{"00006", "Fornax dSph", "39.9971", "-34.4492", "NISP", "112"},
			{"00007", "SDSS J1004+4112", "151.1421", "41.2122", "VIS", "565"},
			{"00008", "GOODS South", "53.1220", "-27.8050", "NISP", "448"},
		},
	}
}

func builtinProducts() *entity.Table {
	return &entity.Table{
		Columns: []entity.Column{
			{Name: "name", Datatype: "char"},
			{Name: "file_name", Datatype: "char"},
			{Name: "size", Datatype: "long", Unit: "byte"},
			{Name: "mime_type", Datatype: "char"},
			{Name: "access_url", Datatype: "char"},
		},
		Rows: [][]string{
			{"calibrated frame", "EUC_VIS_00001.fits", "1048576", "image/fits", "/data/EUC_VIS_00001.fits"},
			{"catalog", "EUC_MER_00001.fits", "524288", "application/fits", "/data/EUC_MER_00001.fits"},
			{"preview", "EUC_VIS_00001.png", "81920", "image/png", "/data/EUC_VIS_00001.png"},
		},
	}
}
