package filter

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// FilterLexer tokenizes one-line filter expressions.
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords (matched case-insensitively)
	{Name: "Keyword", Pattern: `(?i)\b(?:IS|NOT|NULL|LIKE|IN)\b`},

	{Name: "String", Pattern: `'(?:''|[^'])*'|"(?:\\.|[^"\\])*"`},
	{Name: "List", Pattern: `\([^)]*\)`},
	{Name: "Operator", Pattern: `!=|<>|>=|<=|=|>|<`},

	// Numbers, dates and times written without quotes
	{Name: "Scalar", Pattern: `-?\d[\w.:+-]*`},

	{Name: "Ident", Pattern: "[\\p{L}_][\\p{L}\\p{N}_.$]*|`[^`]+`"},

	{Name: "Whitespace", Pattern: `\s+`},
})
