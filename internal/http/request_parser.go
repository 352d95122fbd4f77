// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request
// data. Malformed parameters become ValidationErrors so the caller sees a
// 400 with the offending parameter named, and no store access happens.
package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"paydesk/internal/core"
	"paydesk/internal/filter"
)

// ParseExpenseArgs maps the query string of a list request onto filter
// arguments. Absent parameters stay at their zero values; Normalize fills
// the defaults later.
func ParseExpenseArgs(query url.Values) (filter.Args, error) {
	var args filter.Args

	args.FromAccount = core.AccountRef(strings.TrimSpace(query.Get("fromAccount")))
	args.Account = core.AccountRef(strings.TrimSpace(query.Get("account")))
	args.Host = core.AccountRef(strings.TrimSpace(query.Get("host")))
	args.SearchTerm = sanitizeInput(query.Get("searchTerm"))

	if v := strings.TrimSpace(query.Get("status")); v != "" {
		status, err := core.ParseExpenseStatus(v)
		if err != nil {
			return filter.Args{}, invalidParam("status", v)
		}
		args.Status = status
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		typ, err := core.ParseExpenseType(v)
		if err != nil {
			return filter.Args{}, invalidParam("type", v)
		}
		args.Type = typ
	}
	if v := strings.TrimSpace(query.Get("payoutMethodType")); v != "" {
		pm, err := core.ParsePayoutMethodType(v)
		if err != nil {
			return filter.Args{}, invalidParam("payoutMethodType", v)
		}
		args.PayoutMethodType = pm
	}

	for _, tag := range strings.Split(query.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			args.Tags = append(args.Tags, tag)
		}
	}

	var err error
	if args.MinAmount, err = parseOptionalInt64(query, "minAmount"); err != nil {
		return filter.Args{}, err
	}
	if args.MaxAmount, err = parseOptionalInt64(query, "maxAmount"); err != nil {
		return filter.Args{}, err
	}

	if v := strings.TrimSpace(query.Get("dateFrom")); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return filter.Args{}, invalidParam("dateFrom", v)
		}
		args.DateFrom = &t
	}

	if v := strings.TrimSpace(query.Get("orderBy")); v != "" {
		ob, err := filter.ParseOrderBy(v)
		if err != nil {
			return filter.Args{}, invalidParam("orderBy", v)
		}
		args.OrderBy = ob
	}

	if args.Limit, err = parseOptionalInt(query, "limit"); err != nil {
		return filter.Args{}, err
	}
	if args.Offset, err = parseOptionalInt(query, "offset"); err != nil {
		return filter.Args{}, err
	}

	return args, nil
}

// parseTimestamp accepts RFC 3339 or a bare date, which reads as midnight
// UTC of that day.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseOptionalInt(query url.Values, name string) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam(name, v)
	}
	return n, nil
}

func parseOptionalInt64(query url.Values, name string) (*int64, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, invalidParam(name, v)
	}
	return &n, nil
}

func invalidParam(name, value string) *core.ValidationError {
	return &core.ValidationError{Msg: fmt.Sprintf("invalid %s parameter: %q", name, value)}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
