package votable

import (
	"bytes"
	"strings"
	"testing"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

const sampleVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.4" xmlns="http://www.ivoa.net/xml/VOTable/v1.3">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="OK"/>
    <TABLE>
      <FIELD name="main_id" datatype="char" ucd="meta.id;meta.main"/>
      <FIELD name="ra" datatype="double" unit="deg" ucd="pos.eq.ra">
        <DESCRIPTION>Right ascension</DESCRIPTION>
      </FIELD>
      <FIELD name="dec" datatype="double" unit="deg" ucd="pos.eq.dec"/>
      <DATA>
        <TABLEDATA>
          <TR><TD>M  31</TD><TD>10.6847</TD><TD>41.2687</TD></TR>
          <TR><TD>M  33</TD><TD>23.4621</TD><TD>30.6602</TD></TR>
        </TABLEDATA>
      </DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

func TestDecode(t *testing.T) {
	table, err := Decode(strings.NewReader(sampleVOTable))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if got := len(table.Columns); got != 3 {
		t.Fatalf("got %d columns, want 3", got)
	}
	if table.Columns[1].Name != "ra" {
		t.Errorf("column 1 name = %q, want ra", table.Columns[1].Name)
	}
	if table.Columns[1].Unit != "deg" {
		t.Errorf("column 1 unit = %q, want deg", table.Columns[1].Unit)
	}
	if table.Columns[1].Description != "Right ascension" {
		t.Errorf("column 1 description = %q", table.Columns[1].Description)
	}
	if table.Len() != 2 {
		t.Fatalf("got %d rows, want 2", table.Len())
	}
	if table.Rows[0][0] != "M  31" {
		t.Errorf("row 0 cell 0 = %q", table.Rows[0][0])
	}
	if table.Truncated {
		t.Error("table should not be truncated")
	}
}

func TestDecodeErrorStatus(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<VOTABLE version="1.4">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="ERROR">Column 'bogus' does not exist</INFO>
    <TABLE/>
  </RESOURCE>
</VOTABLE>`

	_, err := Decode(strings.NewReader(doc))
	if err == nil {
		t.Fatal("Decode() should fail on QUERY_STATUS=ERROR")
	}
	if !domain.IsRemote(err) {
		t.Errorf("error %v is not ErrRemote", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error %v does not carry service message", err)
	}
}

func TestDecodeOverflow(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<VOTABLE version="1.4">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="OK"/>
    <INFO name="QUERY_STATUS" value="OVERFLOW"/>
    <TABLE>
      <FIELD name="id" datatype="long"/>
      <DATA><TABLEDATA><TR><TD>1</TD></TR></TABLEDATA></DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

	table, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !table.Truncated {
		t.Error("table should be marked truncated on OVERFLOW")
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not xml"},
		{"no resource", `<?xml version="1.0"?><VOTABLE version="1.4"></VOTABLE>`},
		{"no table", `<?xml version="1.0"?><VOTABLE><RESOURCE type="results"/></VOTABLE>`},
		{
			"ragged row",
			`<?xml version="1.0"?><VOTABLE><RESOURCE><TABLE>
			<FIELD name="a" datatype="char"/><FIELD name="b" datatype="char"/>
			<DATA><TABLEDATA><TR><TD>only one</TD></TR></TABLEDATA></DATA>
			</TABLE></RESOURCE></VOTABLE>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.doc)); err == nil {
				t.Error("Decode() should fail")
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	src := &entity.Table{
		Columns: []entity.Column{
			{Name: "obs_id", Datatype: "char"},
			{Name: "s_ra", Datatype: "double", Unit: "deg"},
		},
		Rows: [][]string{
			{"euclid-0001", "150.12"},
			{"euclid-0002", "151.09"},
		},
		Truncated: true,
	}

	var buf bytes.Buffer
	if err := Encode(src, &buf); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(got.Columns) != 2 || got.Columns[1].Unit != "deg" {
		t.Errorf("column metadata lost: %+v", got.Columns)
	}
	if got.Len() != 2 || got.Rows[1][0] != "euclid-0002" {
		t.Errorf("rows lost: %+v", got.Rows)
	}
	if !got.Truncated {
		t.Error("truncated flag lost")
	}
}

func TestErrorDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorDocument("syntax error near 'FRMO'", &buf); err != nil {
		t.Fatalf("ErrorDocument() error: %v", err)
	}
	_, err := Decode(&buf)
	if err == nil {
		t.Fatal("Decode() of error document should fail")
	}
	if !strings.Contains(err.Error(), "FRMO") {
		t.Errorf("error %v does not carry message", err)
	}
}
