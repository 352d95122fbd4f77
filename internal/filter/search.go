package filter

import (
	"strconv"
	"strings"

	"paydesk/internal/query"
)

// EscapeLike escapes LIKE metacharacters so a user term always matches
// literally. Malformed input is never an error here, only escaped.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// searchPredicate builds the search-term disjunction: description fuzzy
// match, tag overlap on the lower-cased exact term, submitter account and
// submitting user's account slug/name fuzzy matches, plus an exact id
// match when the term is an integer literal. The account joins are left
// joins; the disjunction alone scopes relevance.
func searchPredicate(term string) (query.Predicate, []query.Join) {
	pattern := "%" + EscapeLike(term) + "%"

	clauses := []query.Predicate{
		query.Cmp(colDescription, query.OpLike, pattern),
		query.Exists(tagsTable, "st", "st.expense_id = e.id",
			query.Cmp("st.tag", query.OpEq, strings.ToLower(term))),
		query.Cmp("from_collective.slug", query.OpLike, pattern),
		query.Cmp("from_collective.name", query.OpLike, pattern),
		query.Cmp("created_by.slug", query.OpLike, pattern),
		query.Cmp("created_by.name", query.OpLike, pattern),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(term), 10, 64); err == nil {
		clauses = append(clauses, query.Cmp(colID, query.OpEq, id))
	}

	joins := []query.Join{
		{Table: accountsTable, Alias: "from_collective", On: "from_collective.id = e.from_collective_id", Kind: query.JoinLeft},
		{Table: accountsTable, Alias: "created_by", On: "created_by.id = e.created_by_account_id", Kind: query.JoinLeft},
	}
	return query.Or(clauses...), joins
}
