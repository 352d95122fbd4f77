package query

// JoinKind selects inner versus left join semantics. Required filters use
// inner joins; search-only joins are left joins so the disjunction alone
// scopes relevance.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
)

// Join declares one table the predicate needs alongside the base table.
// All parts are code-owned identifiers, never user input.
type Join struct {
	Table string
	Alias string
	On    string
	Kind  JoinKind
}

// SQL renders the join clause.
func (j Join) SQL() string {
	kw := "JOIN "
	if j.Kind == JoinLeft {
		kw = "LEFT JOIN "
	}
	return kw + j.Table + " AS " + j.Alias + " ON " + j.On
}

// MergeJoins appends joins, deduplicating by alias. An inner join wins
// over a left join on the same alias, so a required filter is never
// weakened by a search-only join.
func MergeJoins(joins []Join, more ...Join) []Join {
	for _, j := range more {
		replaced := false
		for i, existing := range joins {
			if existing.Alias != j.Alias {
				continue
			}
			if existing.Kind == JoinLeft && j.Kind == JoinInner {
				joins[i] = j
			}
			replaced = true
			break
		}
		if !replaced {
			joins = append(joins, j)
		}
	}
	return joins
}

// OrderBy is a single ordering term over a schema column.
type OrderBy struct {
	Column string
	Desc   bool
}

// SQL renders the ORDER BY term.
func (o OrderBy) SQL() string {
	if o.Desc {
		return o.Column + " DESC"
	}
	return o.Column + " ASC"
}
