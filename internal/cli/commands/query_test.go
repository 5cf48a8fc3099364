package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/astrolab/voquery/internal/domain"
)

func writeQueryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resetQueryFlags(t *testing.T) {
	t.Helper()
	adql, file, criteria := queryADQL, queryFile, queryCriteria
	t.Cleanup(func() {
		queryADQL, queryFile, queryCriteria = adql, file, criteria
	})
	queryADQL, queryFile, queryCriteria = "", "", nil
}

func TestFileArchive(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		spec    string
		want    string
		wantErr bool
	}{
		{name: "file wins when flag unset", flag: "", spec: "mast", want: "mast"},
		{name: "flag kept when file silent", flag: "simbad", spec: "", want: "simbad"},
		{name: "agreement is fine", flag: "mast", spec: "mast", want: "mast"},
		{name: "agreement is case-insensitive", flag: "MAST", spec: "mast", want: "mast"},
		{name: "neither set", flag: "", spec: "", want: ""},
		{name: "mismatch rejected", flag: "euclid", spec: "mast", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fileArchive(tt.flag, tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !domain.IsInvalidQuery(err) {
					t.Errorf("expected an invalid query error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("fileArchive() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("fileArchive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadQueryFileCarriesArchive(t *testing.T) {
	resetQueryFlags(t)
	queryFile = writeQueryFile(t, `
kind: Query
spec:
  archive: mast
  criteria:
    obs_collection: JWST
`)

	qf, err := loadQueryFile()
	if err != nil {
		t.Fatalf("loadQueryFile() error = %v", err)
	}
	if qf == nil || qf.Spec.Archive != "mast" {
		t.Fatalf("loaded file = %+v, want archive mast", qf)
	}

	name, err := fileArchive("", qf.Spec.Archive)
	if err != nil {
		t.Fatalf("fileArchive() error = %v", err)
	}
	if name != "mast" {
		t.Errorf("resolved archive = %q, want mast", name)
	}
}

func TestLoadQueryFileSourceValidation(t *testing.T) {
	tests := []struct {
		name     string
		adql     string
		file     string
		criteria []string
	}{
		{name: "no source"},
		{name: "adql and file", adql: "SELECT 1 FROM t", file: "q.yaml"},
		{name: "adql and criteria", adql: "SELECT 1 FROM t", criteria: []string{"a=b"}},
		{name: "file and criteria", file: "q.yaml", criteria: []string{"a=b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetQueryFlags(t)
			queryADQL, queryFile, queryCriteria = tt.adql, tt.file, tt.criteria

			if _, err := loadQueryFile(); !domain.IsInvalidQuery(err) {
				t.Errorf("expected an invalid query error, got %v", err)
			}
		})
	}
}
