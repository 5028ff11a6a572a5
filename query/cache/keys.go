package cache

import (
	"fmt"
	"strings"
)

const listPrefix = "list"

var segmentEscaper = strings.NewReplacer("%", "%25", ":", "%3A", "*", "%2A")

// escapeSegment keeps table names from introducing extra key segments
// or wildcards.
func escapeSegment(s string) string {
	return segmentEscaper.Replace(s)
}

// ListKey is the cache key of one list page: (table, page, limit).
func ListKey(table string, page, limit int) string {
	return fmt.Sprintf("%s:%s:%d:%d", listPrefix, escapeSegment(table), page, limit)
}

// TablePattern matches every list key of table regardless of page and limit.
func TablePattern(table string) string {
	return fmt.Sprintf("%s:%s:*:*", listPrefix, escapeSegment(table))
}

// InvalidateTable drops every cached list page of table and returns how
// many entries were removed.
func InvalidateTable(c Cache, table string) int {
	return c.InvalidatePattern(TablePattern(table))
}
