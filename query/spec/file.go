package spec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// Load reads a spec file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Load(fs afero.Fs, path string) (QuerySpec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return QuerySpec{}, fmt.Errorf("failed to read spec file: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses a spec from data. ext selects the format (".json" or a
// YAML extension).
func Decode(data []byte, ext string) (QuerySpec, error) {
	var s QuerySpec
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return QuerySpec{}, fmt.Errorf("invalid spec json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return QuerySpec{}, fmt.Errorf("invalid spec yaml: %w", err)
		}
	}
	s.normalize()
	return s, nil
}

// Save writes the spec as YAML.
func Save(fs afero.Fs, path string, s QuerySpec) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// Warnings lists fields the compiler will pass through or drop without
// complaint. It never blocks compilation.
func (s QuerySpec) Warnings() []string {
	var out []string
	for i, c := range s.Conditions {
		if c.Active() && !c.Operator.Valid() {
			out = append(out, fmt.Sprintf("condition %d: unknown operator %q", i+1, c.Operator))
		}
	}
	if s.Having != "" && s.GroupBy == "" {
		out = append(out, "having is ignored without groupBy")
	}
	if s.Join != nil && !s.Join.Complete() {
		out = append(out, "join is ignored until both table and on are set")
	}
	if (s.AggregateFunction == "") != (s.AggregateColumn == "") {
		out = append(out, "aggregate needs both function and column")
	}
	if s.Direction != "" && s.Direction != Asc && s.Direction != Desc {
		out = append(out, fmt.Sprintf("unknown direction %q", s.Direction))
	}
	return out
}

func (s *QuerySpec) normalize() {
	s.Direction = Direction(strings.ToUpper(string(s.Direction)))
	s.AggregateFunction = AggregateFunc(strings.ToUpper(string(s.AggregateFunction)))
	for i := range s.Conditions {
		if op, ok := ParseOperator(string(s.Conditions[i].Operator)); ok {
			s.Conditions[i].Operator = op
		}
	}
	if s.Join != nil {
		s.Join.Type = JoinType(strings.ToUpper(string(s.Join.Type)))
	}
}
