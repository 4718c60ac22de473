package provider

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/khanglvm/food-search/internal/food"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// catalogFile is the on-disk layout of a static catalog.
type catalogFile struct {
	Foods []food.RawRecord `yaml:"foods"`
}

// Static serves records from an in-memory catalog. A record matches when its
// name contains every word of the query, case-insensitively. Records keep
// catalog order.
type Static struct {
	records []food.RawRecord
	lower   []string
}

// NewStatic creates a provider over records.
func NewStatic(records []food.RawRecord) *Static {
	s := &Static{
		records: append([]food.RawRecord(nil), records...),
		lower:   make([]string, len(records)),
	}
	for i, r := range records {
		s.lower[i] = strings.ToLower(r.Name)
	}
	return s
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) ([]food.RawRecord, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, r := range f.Foods {
		if r.ID == "" {
			return nil, fmt.Errorf("catalog entry %d (%q) has no id", i, r.Name)
		}
	}
	return f.Foods, nil
}

// LoadStatic reads a YAML catalog from path.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	records, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	return NewStatic(records), nil
}

// Builtin returns the bundled sample catalog.
func Builtin() *Static {
	records, err := ParseCatalog(builtinCatalog)
	if err != nil {
		panic(err)
	}
	return NewStatic(records)
}

// Len returns the number of records in the catalog.
func (s *Static) Len() int { return len(s.records) }

// Search implements Provider.
func (s *Static) Search(ctx context.Context, query string, limit int) ([]food.RawRecord, error) {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, ErrEmptyQuery
	}

	var out []food.RawRecord
	for i, name := range s.lower {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !containsAll(name, words) {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
