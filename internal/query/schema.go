package query

import "strings"

// Schema is the set of columns a predicate may reference: base table
// columns plus any declared join aliases. Compilation rejects leaves that
// fall outside it, so a predicate can never smuggle an unexpected
// identifier into the generated SQL.
type Schema struct {
	columns map[string]struct{}
}

// NewSchema declares the legal column set.
func NewSchema(columns ...string) Schema {
	s := Schema{columns: make(map[string]struct{}, len(columns))}
	for _, c := range columns {
		s.columns[c] = struct{}{}
	}
	return s
}

// With returns a copy of the schema extended with additional columns.
func (s Schema) With(columns ...string) Schema {
	next := Schema{columns: make(map[string]struct{}, len(s.columns)+len(columns))}
	for c := range s.columns {
		next.columns[c] = struct{}{}
	}
	for _, c := range columns {
		next.columns[c] = struct{}{}
	}
	return next
}

// Allows reports whether a column may appear in a predicate leaf. Columns
// under a declared alias prefix are allowed wholesale; the alias's table
// is code-owned, not user input.
func (s Schema) Allows(column string) bool {
	if _, ok := s.columns[column]; ok {
		return true
	}
	if i := strings.IndexByte(column, '.'); i > 0 {
		if _, ok := s.columns[column[:i]+".*"]; ok {
			return true
		}
	}
	return false
}
