// Package query provides an immutable boolean expression tree over field
// comparisons, compiled to parameterized SQL. Predicates are plain values:
// composing never mutates, equality is structural, and construction never
// fails — validation happens at compile time against a column schema.
package query

// Op is a comparison operator on a single column.
type Op string

const (
	OpEq   Op = "="
	OpNe   Op = "!="
	OpLt   Op = "<"
	OpLte  Op = "<="
	OpGt   Op = ">"
	OpGte  Op = ">="
	OpLike Op = "LIKE"
)

type nodeKind int

const (
	kindAnd nodeKind = iota
	kindOr
	kindNot
	kindCmp
	kindIsNull
	kindExists
)

// Predicate is one node of the expression tree. The zero value is the AND
// identity (always true).
type Predicate struct {
	kind     nodeKind
	children []Predicate

	// cmp / isnull leaves
	field string
	op    Op
	value any

	// exists leaves
	table string
	alias string
	on    string
}

// And combines predicates conjunctively. With no children it is the
// identity element "always true", which matters when folding empty
// exclusion sets.
func And(ps ...Predicate) Predicate {
	return Predicate{kind: kindAnd, children: ps}
}

// Or combines predicates disjunctively. With no children it is the
// identity element "always false": a disjunction built from an empty
// result set matches nothing (closed world).
func Or(ps ...Predicate) Predicate {
	return Predicate{kind: kindOr, children: ps}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return Predicate{kind: kindNot, children: []Predicate{p}}
}

// Cmp compares a column against a bound value.
func Cmp(field string, op Op, value any) Predicate {
	return Predicate{kind: kindCmp, field: field, op: op, value: value}
}

// IsNull matches rows where the column is NULL.
func IsNull(field string) Predicate {
	return Predicate{kind: kindIsNull, field: field}
}

// Exists builds a correlated EXISTS sub-query over table aliased as alias,
// correlated by the raw join condition on (code-owned, never user input)
// and narrowed by where. Columns of the aliased table are implicitly legal
// inside where.
func Exists(table, alias, on string, where Predicate) Predicate {
	return Predicate{kind: kindExists, table: table, alias: alias, on: on, children: []Predicate{where}}
}

// IsAlwaysTrue reports whether the predicate is the bare AND identity.
func (p Predicate) IsAlwaysTrue() bool {
	return p.kind == kindAnd && len(p.children) == 0
}

// IsAlwaysFalse reports whether the predicate is the bare OR identity.
func (p Predicate) IsAlwaysFalse() bool {
	return p.kind == kindOr && len(p.children) == 0
}
