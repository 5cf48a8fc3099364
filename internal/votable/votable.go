// Package votable decodes and encodes the VOTable XML tabular format used
// by Virtual Observatory services. Only the TABLEDATA serialization is
// supported; BINARY and FITS serializations are out of scope.
package votable

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// xml document shapes; element names match VOTable local names regardless
// of namespace
type document struct {
	XMLName   xml.Name   `xml:"VOTABLE"`
	Version   string     `xml:"version,attr,omitempty"`
	Resources []resource `xml:"RESOURCE"`
}

type resource struct {
	Type   string  `xml:"type,attr,omitempty"`
	Infos  []info  `xml:"INFO"`
	Tables []table `xml:"TABLE"`
}

type info struct {
	Name    string `xml:"name,attr"`
	Value   string `xml:"value,attr"`
	Content string `xml:",chardata"`
}

type table struct {
	Fields []field `xml:"FIELD"`
	Data   *data   `xml:"DATA"`
}

type field struct {
	Name        string `xml:"name,attr"`
	Datatype    string `xml:"datatype,attr"`
	Unit        string `xml:"unit,attr,omitempty"`
	UCD         string `xml:"ucd,attr,omitempty"`
	Description string `xml:"DESCRIPTION,omitempty"`
}

type data struct {
	TableData *tableData `xml:"TABLEDATA"`
}

type tableData struct {
	Rows []row `xml:"TR"`
}

type row struct {
	Cells []string `xml:"TD"`
}

// Decode parses a VOTable document into a table. A QUERY_STATUS=ERROR info
// element becomes an error carrying the service message; an OVERFLOW info
// marks the table truncated.
func Decode(r io.Reader) (*entity.Table, error) {
	var doc document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("malformed votable: %w", err))
	}
	if len(doc.Resources) == 0 {
		return nil, domain.NewInternalError(fmt.Errorf("votable has no RESOURCE element"))
	}

	res := doc.Resources[0]
	truncated := false
	for _, inf := range res.Infos {
		switch strings.ToUpper(inf.Name) {
		case "QUERY_STATUS":
			switch strings.ToUpper(inf.Value) {
			case "ERROR":
				msg := strings.TrimSpace(inf.Content)
				if msg == "" {
					msg = "query failed"
				}
				return nil, domain.NewRemoteError(200, msg)
			case "OVERFLOW":
				truncated = true
			}
		}
	}

	if len(res.Tables) == 0 {
		return nil, domain.NewInternalError(fmt.Errorf("votable has no TABLE element"))
	}
	src := res.Tables[0]

	out := &entity.Table{
		Columns:   make([]entity.Column, len(src.Fields)),
		Truncated: truncated,
	}
	for i, f := range src.Fields {
		out.Columns[i] = entity.Column{
			Name:        f.Name,
			Datatype:    f.Datatype,
			Unit:        f.Unit,
			UCD:         f.UCD,
			Description: strings.TrimSpace(f.Description),
		}
	}

	if src.Data == nil || src.Data.TableData == nil {
		return out, nil
	}
	out.Rows = make([][]string, len(src.Data.TableData.Rows))
	for i, tr := range src.Data.TableData.Rows {
		if len(tr.Cells) != len(src.Fields) {
			return nil, domain.NewInternalError(fmt.Errorf(
				"votable row %d has %d cells, want %d", i, len(tr.Cells), len(src.Fields)))
		}
		out.Rows[i] = tr.Cells
	}
	return out, nil
}

// Encode writes the table as a VOTable document. Used by the simulator to
// serve canned results in the same format real services produce.
func Encode(t *entity.Table, w io.Writer) error {
	doc := document{
		Version: "1.4",
		Resources: []resource{{
			Type:  "results",
			Infos: []info{{Name: "QUERY_STATUS", Value: "OK"}},
		}},
	}
	if t.Truncated {
		doc.Resources[0].Infos = append(doc.Resources[0].Infos,
			info{Name: "QUERY_STATUS", Value: "OVERFLOW"})
	}

	tbl := table{
		Fields: make([]field, len(t.Columns)),
		Data:   &data{TableData: &tableData{}},
	}
	for i, col := range t.Columns {
		tbl.Fields[i] = field{
			Name:        col.Name,
			Datatype:    col.Datatype,
			Unit:        col.Unit,
			UCD:         col.UCD,
			Description: col.Description,
		}
	}
	for _, cells := range t.Rows {
		tbl.Data.TableData.Rows = append(tbl.Data.TableData.Rows, row{Cells: cells})
	}
	doc.Resources[0].Tables = []table{tbl}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}

// ErrorDocument renders a VOTable error response with the given message
func ErrorDocument(message string, w io.Writer) error {
	doc := document{
		Version: "1.4",
		Resources: []resource{{
			Type: "results",
			Infos: []info{{
				Name:    "QUERY_STATUS",
				Value:   "ERROR",
				Content: message,
			}},
			Tables: []table{{}},
		}},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}
