package loader

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/astrolab/voquery/internal/adql"
)

// QueryFile is a query definition loaded from a YAML file
type QueryFile struct {
	// Kind must be "Query"
	Kind string `yaml:"kind" json:"kind"`
	// Spec contains the query specification
	Spec QuerySpec `yaml:"spec" json:"spec"`
}

// QuerySpec defines one archive query. ADQL and Criteria are mutually
// exclusive; Cone may accompany Criteria but not ADQL.
type QuerySpec struct {
	Archive  string         `yaml:"archive,omitempty" json:"archive,omitempty"`
	Table    string         `yaml:"table,omitempty" json:"table,omitempty"`
	ADQL     string         `yaml:"adql,omitempty" json:"adql,omitempty"`
	Criteria map[string]any `yaml:"criteria,omitempty" json:"criteria,omitempty"`
	Columns  []string       `yaml:"columns,omitempty" json:"columns,omitempty"`
	Top      int            `yaml:"top,omitempty" json:"top,omitempty"`
	OrderBy  string         `yaml:"orderBy,omitempty" json:"orderBy,omitempty"`
	Cone     *ConeSpec      `yaml:"cone,omitempty" json:"cone,omitempty"`
	Async    bool           `yaml:"async,omitempty" json:"async,omitempty"`
}

// ConeSpec is a positional constraint
type ConeSpec struct {
	RA     float64 `yaml:"ra" json:"ra"`
	Dec    float64 `yaml:"dec" json:"dec"`
	Radius float64 `yaml:"radius" json:"radius"`
}

// AsCriteria converts the loaded criteria map for the ADQL translator
func (s *QuerySpec) AsCriteria() adql.Criteria {
	if len(s.Criteria) == 0 {
		return nil
	}
	out := make(adql.Criteria, len(s.Criteria))
	for k, v := range s.Criteria {
		out[k] = v
	}
	return out
}

// LoadFromFile loads a query definition from a YAML file
func LoadFromFile(filepath string) (*QueryFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if qf.Kind == "" {
		return nil, fmt.Errorf("'kind' field is required")
	}
	if qf.Kind != "Query" {
		return nil, fmt.Errorf("unsupported kind %q, want Query", qf.Kind)
	}

	if qf.Spec.ADQL != "" && len(qf.Spec.Criteria) > 0 {
		return nil, fmt.Errorf("spec.adql and spec.criteria are mutually exclusive")
	}
	if qf.Spec.ADQL != "" && qf.Spec.Cone != nil {
		return nil, fmt.Errorf("spec.adql and spec.cone are mutually exclusive")
	}
	if qf.Spec.ADQL == "" && len(qf.Spec.Criteria) == 0 && qf.Spec.Cone == nil {
		return nil, fmt.Errorf("spec needs adql, criteria, or cone")
	}
	return &qf, nil
}
