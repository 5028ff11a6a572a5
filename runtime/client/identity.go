package client

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlstudio/catalog"
)

// IdentifierResolver extracts the identifier used in resource URLs.
type IdentifierResolver interface {
	ResolveIdentifier(table string, rec Record) (string, error)
}

// FirstField treats the first field's value as the identifier.
type FirstField struct{}

// ResolveIdentifier implements IdentifierResolver.
func (FirstField) ResolveIdentifier(table string, rec Record) (string, error) {
	f, ok := rec.First()
	if !ok {
		return "", &MissingIdentifierError{Table: table}
	}
	id := FormatValue(f.Value)
	if strings.TrimSpace(id) == "" {
		return "", &MissingIdentifierError{Table: table, Field: f.Name}
	}
	return id, nil
}

// CatalogKey uses the primary key declared in a catalog and falls back
// to the first field for tables without one.
type CatalogKey struct {
	Catalog *catalog.Catalog
}

// ResolveIdentifier implements IdentifierResolver.
func (k CatalogKey) ResolveIdentifier(table string, rec Record) (string, error) {
	if k.Catalog != nil {
		if pk := k.Catalog.PrimaryKey(table); pk != "" {
			v, _ := rec.Get(pk)
			id := FormatValue(v)
			if strings.TrimSpace(id) == "" {
				return "", &MissingIdentifierError{Table: table, Field: pk}
			}
			return id, nil
		}
	}
	return FirstField{}.ResolveIdentifier(table, rec)
}

// ResolveIdentifier applies the first-field convention.
func ResolveIdentifier(table string, rec Record) (string, error) {
	return FirstField{}.ResolveIdentifier(table, rec)
}

// FormatValue renders a scalar for display and URLs. Nil renders as "".
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// IsAutoField reports whether a field is maintained by the database and
// should be left out of hand-built payloads.
func IsAutoField(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "createdat") ||
		strings.Contains(n, "updatedat") ||
		strings.Contains(n, "timestamp")
}
