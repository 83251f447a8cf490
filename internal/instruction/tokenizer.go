package instruction

import "strings"

// Tokenize splits raw on spaces, tabs, line feeds and carriage returns.
// Runs of whitespace never produce empty tokens.
func Tokenize(raw string) []string {
	return strings.FieldsFunc(raw, isSeparator)
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
