package filter

import (
	"strings"
	"testing"
)

func TestEscapeLike(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
		{"", ""},
	}
	for i, tc := range cases {
		if got := EscapeLike(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}

func TestSearchPredicateShape(t *testing.T) {
	p, joins := searchPredicate("babel")
	sql, args, err := p.ToSQL(ExpenseSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	for _, col := range []string{
		"e.description LIKE ?",
		"from_collective.slug LIKE ?",
		"from_collective.name LIKE ?",
		"created_by.slug LIKE ?",
		"created_by.name LIKE ?",
	} {
		if !strings.Contains(sql, col) {
			t.Fatalf("missing clause %q in %q", col, sql)
		}
	}
	if !strings.Contains(sql, "EXISTS (SELECT 1 FROM expense_tags AS st") {
		t.Fatalf("missing tag overlap clause in %q", sql)
	}
	if strings.Contains(sql, "e.id = ?") {
		t.Fatalf("non-numeric term must not add an id clause: %q", sql)
	}
	// Fuzzy clauses share one pattern; the tag clause uses the
	// lower-cased exact term.
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			t.Fatalf("arg %d is %T", i, a)
		}
		if s != "%babel%" && s != "babel" {
			t.Fatalf("unexpected arg %q", s)
		}
	}
	if len(joins) != 2 {
		t.Fatalf("expected 2 search joins, got %+v", joins)
	}
}

func TestSearchPredicateNumericTermAddsIDMatch(t *testing.T) {
	p, _ := searchPredicate("4242")
	sql, args, err := p.ToSQL(ExpenseSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(sql, "e.id = ?") {
		t.Fatalf("numeric term must match on id: %q", sql)
	}
	found := false
	for _, a := range args {
		if a == int64(4242) {
			found = true
		}
	}
	if !found {
		t.Fatalf("id argument missing from %v", args)
	}
}

func TestSearchPredicatePartialNumberIsNotAnID(t *testing.T) {
	p, _ := searchPredicate("42abc")
	sql, _, err := p.ToSQL(ExpenseSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if strings.Contains(sql, "e.id = ?") {
		t.Fatalf("partial numeric prefix must not match on id: %q", sql)
	}
}

func TestSearchPredicateEscapesMetacharacters(t *testing.T) {
	p, _ := searchPredicate("100%_done")
	_, args, err := p.ToSQL(ExpenseSchema)
	if err != nil {
		t.Fatalf("metacharacters must never be an error: %v", err)
	}
	want := `%100\%\_done%`
	found := false
	for _, a := range args {
		if a == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected escaped pattern %q in %v", want, args)
	}
}
