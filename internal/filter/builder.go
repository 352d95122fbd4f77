// Package filter turns a validated argument set into an immutable
// predicate plus the join set it needs. The builder only composes; it
// never talks to the store itself.
package filter

import (
	"paydesk/internal/core"
	"paydesk/internal/query"
)

// Physical column names for the expense query. The executor selects from
// "expenses AS e"; join aliases declared here are the only ones a
// predicate may reference.
const (
	colID             = "e.id"
	colStatus         = "e.status"
	colDescription    = "e.description"
	colCreatedAt      = "e.created_at"
	colPayoutMethodID = "e.payout_method_id"

	// Exported for the eligibility resolver, which folds its balance and
	// tax-form conditions over the same columns.
	ColFromCollectiveID = "e.from_collective_id"
	ColCollectiveID     = "e.collective_id"
	ColExpenseType      = "e.type"
	ColAmount           = "e.amount_cents"

	accountsTable = "accounts"
	tagsTable     = "expense_tags"
	payoutTable   = "payout_methods"
)

// ExpenseSchema is the column set predicates are compiled against.
var ExpenseSchema = query.NewSchema(
	"e.id", "e.type", "e.status", "e.description", "e.amount_cents",
	"e.created_at", "e.from_collective_id", "e.collective_id",
	"e.created_by_account_id", "e.payout_method_id",
	"collective.*", "from_collective.*", "created_by.*", "pm.*",
)

// Accounts carries the pre-resolved account identities for the reference
// filters. A nil entry means the filter was not supplied.
type Accounts struct {
	FromAccount *core.Account
	Account     *core.Account
	Host        *core.Account
}

// Query is the composed unit the executor runs: predicate, joins,
// ordering and pagination. NeedsEligibility flags a READY_TO_PAY status
// filter that must pass through the eligibility resolver before
// execution.
type Query struct {
	Where            query.Predicate
	Joins            []query.Join
	Order            query.OrderBy
	Limit            int
	Offset           int
	NeedsEligibility bool
}

// Build composes the predicate in a fixed stage order. Every stage is
// independently optional and conjunctive. Args must already be validated;
// account references must already be resolved.
func Build(args Args, accounts Accounts) Query {
	args = args.Normalize()

	var (
		where []query.Predicate
		joins []query.Join
	)

	if accounts.FromAccount != nil {
		where = append(where, query.Cmp(ColFromCollectiveID, query.OpEq, accounts.FromAccount.ID))
	}
	if accounts.Account != nil {
		where = append(where, query.Cmp(ColCollectiveID, query.OpEq, accounts.Account.ID))
	}

	// Host scoping is a required join: expenses whose recipient has no
	// matching fiscal host are excluded outright.
	if accounts.Host != nil {
		joins = query.MergeJoins(joins, query.Join{
			Table: accountsTable, Alias: "collective",
			On: "collective.id = e.collective_id", Kind: query.JoinInner,
		})
		where = append(where, query.Cmp("collective.host_collective_id", query.OpEq, accounts.Host.ID))
	}

	if args.SearchTerm != "" {
		p, searchJoins := searchPredicate(args.SearchTerm)
		where = append(where, p)
		joins = query.MergeJoins(joins, searchJoins...)
	}

	if args.Type != "" {
		where = append(where, query.Cmp(ColExpenseType, query.OpEq, string(args.Type)))
	}

	// Tag filter is contains-ALL-of; one EXISTS per tag. Distinct from
	// the search term's overlaps-ANY semantics above.
	for _, tag := range args.Tags {
		where = append(where, query.Exists(tagsTable, "t", "t.expense_id = e.id",
			query.Cmp("t.tag", query.OpEq, tag)))
	}

	if args.MinAmount != nil {
		where = append(where, query.Cmp(ColAmount, query.OpGte, *args.MinAmount))
	}
	if args.MaxAmount != nil {
		where = append(where, query.Cmp(ColAmount, query.OpLte, *args.MaxAmount))
	}

	if args.DateFrom != nil {
		where = append(where, query.Cmp(colCreatedAt, query.OpGte, args.DateFrom.UTC()))
	}

	if args.PayoutMethodType != "" {
		if args.PayoutMethodType == core.PayoutOther {
			// NULL is treated as OTHER for this filter, so the join
			// must not drop method-less expenses.
			joins = query.MergeJoins(joins, query.Join{
				Table: payoutTable, Alias: "pm",
				On: "pm.id = e.payout_method_id", Kind: query.JoinLeft,
			})
			where = append(where, query.Or(
				query.IsNull(colPayoutMethodID),
				query.Cmp("pm.type", query.OpEq, string(core.PayoutOther)),
			))
		} else {
			joins = query.MergeJoins(joins, query.Join{
				Table: payoutTable, Alias: "pm",
				On: "pm.id = e.payout_method_id", Kind: query.JoinInner,
			})
			where = append(where, query.Cmp("pm.type", query.OpEq, string(args.PayoutMethodType)))
		}
	}

	needsEligibility := false
	switch args.Status {
	case "":
	case core.StatusReadyToPay:
		// Only approved expenses are candidates; the resolver narrows
		// the set further with balance and tax-form conditions.
		where = append(where, query.Cmp(colStatus, query.OpEq, string(core.StatusApproved)))
		needsEligibility = true
	default:
		where = append(where, query.Cmp(colStatus, query.OpEq, string(args.Status)))
	}

	return Query{
		Where:            query.And(where...),
		Joins:            joins,
		Order:            orderColumn(args.OrderBy),
		Limit:            args.Limit,
		Offset:           args.Offset,
		NeedsEligibility: needsEligibility,
	}
}

func orderColumn(ob OrderBy) query.OrderBy {
	col := colCreatedAt
	if ob.Field == OrderByAmount {
		col = ColAmount
	}
	return query.OrderBy{Column: col, Desc: ob.Direction == DirectionDesc}
}
