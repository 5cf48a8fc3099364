package adql

import (
	"testing"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

func filterTable() *entity.Table {
	return &entity.Table{
		Columns: []entity.Column{
			{Name: "obs_id"},
			{Name: "target_name"},
			{Name: "instrument_name"},
			{Name: "t_exptime"},
		},
		Rows: [][]string{
			{"00001", "M 31", "VIS", "565"},
			{"00002", "M 31", "NISP", "112"},
			{"00003", "NGC 6543", "VIS", "565"},
			{"00004", "Abell 2390", "NISP", "448"},
		},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		wantRows int
	}{
		{
			name:     "equality",
			criteria: Criteria{"instrument_name": "VIS"},
			wantRows: 2,
		},
		{
			name:     "equality is case-insensitive",
			criteria: Criteria{"instrument_name": "vis"},
			wantRows: 2,
		},
		{
			name:     "numeric range",
			criteria: Criteria{"t_exptime": "100..500"},
			wantRows: 2,
		},
		{
			name:     "negation",
			criteria: Criteria{"instrument_name": "!VIS"},
			wantRows: 2,
		},
		{
			name:     "wildcard",
			criteria: Criteria{"target_name": "M*"},
			wantRows: 2,
		},
		{
			name:     "single char wildcard",
			criteria: Criteria{"instrument_name": "?IS"},
			wantRows: 2,
		},
		{
			name:     "membership list ORs",
			criteria: Criteria{"target_name": []string{"M 31", "NGC 6543"}},
			wantRows: 3,
		},
		{
			name: "columns AND together",
			criteria: Criteria{
				"target_name":     "M 31",
				"instrument_name": "VIS",
			},
			wantRows: 1,
		},
		{
			name:     "numeric equality matches formatted cell",
			criteria: Criteria{"t_exptime": "565.0"},
			wantRows: 2,
		},
		{
			name:     "leading zero id compares as text",
			criteria: Criteria{"obs_id": "00001"},
			wantRows: 1,
		},
		{
			name:     "leading zero id does not match trimmed number",
			criteria: Criteria{"obs_id": "1"},
			wantRows: 0,
		},
		{
			name:     "nothing matches",
			criteria: Criteria{"target_name": "M 101"},
			wantRows: 0,
		},
		{
			name:     "empty criteria keeps everything",
			criteria: nil,
			wantRows: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(filterTable(), tt.criteria)
			if err != nil {
				t.Fatalf("Filter() error = %v", err)
			}
			if got.Len() != tt.wantRows {
				t.Errorf("Filter() kept %d rows, want %d", got.Len(), tt.wantRows)
			}
		})
	}
}

func TestFilterErrors(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
	}{
		{"unknown column", Criteria{"magnitude": "12"}},
		{"empty value", Criteria{"target_name": ""}},
		{"malformed range", Criteria{"t_exptime": "100.."}},
		{"empty list", Criteria{"target_name": []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Filter(filterTable(), tt.criteria)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !domain.IsInvalidQuery(err) {
				t.Errorf("expected an invalid query error, got %v", err)
			}
		})
	}
}

func TestFilterNegationAndPositiveCombine(t *testing.T) {
	// positive list ORs, then the negation must also hold
	got, err := Filter(filterTable(), Criteria{
		"target_name": []string{"M*", "NGC*", "!NGC 6543"},
	})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("kept %d rows, want 2", got.Len())
	}
	for _, row := range got.Rows {
		if row[1] == "NGC 6543" {
			t.Error("negated value survived the filter")
		}
	}
}
