package gateway

import (
	"database/sql"
	"strings"
	"unicode"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

// scanRecords reads every row into a record, keeping column order.
// Driver byte slices become strings.
func scanRecords(rows *sql.Rows) ([]client.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []client.Record{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		fields := make([]client.Field, len(columns))
		for i, col := range columns {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			fields[i] = client.Field{Name: col, Value: v}
		}
		records = append(records, client.NewRecord(fields...))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// rowKeywords are the leading keywords of statements that return rows.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"PRAGMA":   true,
	"VALUES":   true,
}

// Classify returns the upper-cased leading keyword of query and whether
// the statement produces rows. Leading comments and parentheses are
// skipped.
func Classify(query string) (queryType string, returnsRows bool) {
	s := skipPreamble(query)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	queryType = strings.ToUpper(s[:end])
	return queryType, rowKeywords[queryType]
}

func skipPreamble(s string) string {
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			return s
		}
	}
}
