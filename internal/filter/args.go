package filter

import (
	"fmt"
	"strings"
	"time"

	"paydesk/internal/core"
)

const (
	// MaxLimit caps page size; larger requests are rejected before any
	// store access.
	MaxLimit     = 100
	DefaultLimit = 20
)

const (
	OrderByCreatedAt OrderField = "CREATED_AT"
	OrderByAmount    OrderField = "AMOUNT"
)

const (
	DirectionAsc  Direction = "ASC"
	DirectionDesc Direction = "DESC"
)

type (
	OrderField string
	Direction  string

	OrderBy struct {
		Field     OrderField
		Direction Direction
	}

	// Args is the validated argument record for one expense query. All
	// filter fields are optional; zero values mean "not supplied".
	Args struct {
		FromAccount core.AccountRef
		Account     core.AccountRef
		Host        core.AccountRef

		Status           core.ExpenseStatus
		Type             core.ExpenseType
		Tags             []string
		MinAmount        *int64
		MaxAmount        *int64
		PayoutMethodType core.PayoutMethodType
		DateFrom         *time.Time
		SearchTerm       string

		OrderBy OrderBy
		Limit   int
		Offset  int
	}
)

// DefaultOrderBy is creation time, newest first.
func DefaultOrderBy() OrderBy {
	return OrderBy{Field: OrderByCreatedAt, Direction: DirectionDesc}
}

// ParseOrderBy reads "field:direction", e.g. "created_at:desc".
func ParseOrderBy(s string) (OrderBy, error) {
	field, dir, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		dir = string(DirectionDesc)
	}
	ob := OrderBy{
		Field:     OrderField(strings.ToUpper(field)),
		Direction: Direction(strings.ToUpper(dir)),
	}
	switch ob.Field {
	case OrderByCreatedAt, OrderByAmount:
	default:
		return OrderBy{}, fmt.Errorf("invalid orderBy field %q", field)
	}
	switch ob.Direction {
	case DirectionAsc, DirectionDesc:
	default:
		return OrderBy{}, fmt.Errorf("invalid orderBy direction %q", dir)
	}
	return ob, nil
}

// Normalize fills defaults for pagination and ordering.
func (a Args) Normalize() Args {
	if a.Limit == 0 {
		a.Limit = DefaultLimit
	}
	if a.OrderBy == (OrderBy{}) {
		a.OrderBy = DefaultOrderBy()
	}
	return a
}

// Validate rejects malformed argument sets. It runs before any account
// resolution or store access.
func (a Args) Validate() error {
	if a.Limit > MaxLimit {
		return core.NewLimitError(a.Limit, MaxLimit)
	}
	if a.Limit < 0 {
		return &core.ValidationError{Msg: fmt.Sprintf("limit %d is negative", a.Limit)}
	}
	if a.Offset < 0 {
		return &core.ValidationError{Msg: fmt.Sprintf("offset %d is negative", a.Offset)}
	}
	if a.Status != "" && !a.Status.Valid() {
		return &core.ValidationError{Msg: fmt.Sprintf("invalid status %q", a.Status)}
	}
	if a.Type != "" && !a.Type.Valid() {
		return &core.ValidationError{Msg: fmt.Sprintf("invalid type %q", a.Type)}
	}
	if a.PayoutMethodType != "" && !a.PayoutMethodType.Valid() {
		return &core.ValidationError{Msg: fmt.Sprintf("invalid payout method type %q", a.PayoutMethodType)}
	}
	return nil
}
