package repository

import (
	"fmt"
	"strings"

	"leadedge_backend/internal/leads/intake"
	"leadedge_backend/platform/httpkit"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// LeadFilter holds the raw list query parameters.
type LeadFilter struct {
	Q      string
	Source string
	City   string
	Limit  string
	Offset string
}

// FilterQuery is a parameterized WHERE clause plus pagination. Args holds
// the filter values in placeholder order followed by limit and offset.
type FilterQuery struct {
	Where  string
	Page   string
	Args   []any
	Limit  int
	Offset int
}

// BuildLeadFilter assembles the lead list filter. Predicates are ANDed in the
// order source, city, q; q matches name, email or phone by substring.
func BuildLeadFilter(f LeadFilter) FilterQuery {
	return buildFilter(f, true)
}

// buildEventFilter is the lead_events variant, which has no name, email or
// phone columns to search.
func buildEventFilter(f LeadFilter) FilterQuery {
	return buildFilter(f, false)
}

func buildFilter(f LeadFilter, withSearch bool) FilterQuery {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 7)
	argIdx := 1

	addEquals := func(column, value string) {
		if value == "" {
			return
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	addEquals("source", strings.TrimSpace(f.Source))
	addEquals("city", strings.TrimSpace(f.City))

	if q := strings.TrimSpace(f.Q); q != "" && withSearch {
		pattern := "%" + q + "%"
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)", argIdx, argIdx+1, argIdx+2))
		args = append(args, pattern, pattern, pattern)
		argIdx += 3
	}

	limit := httpkit.ParseLimit(f.Limit, defaultListLimit, maxListLimit)
	offset := httpkit.ParseOffset(f.Offset)

	q := FilterQuery{
		Page:   fmt.Sprintf("LIMIT $%d OFFSET $%d", argIdx, argIdx+1),
		Args:   append(args, limit, offset),
		Limit:  limit,
		Offset: offset,
	}
	if len(clauses) > 0 {
		q.Where = "WHERE " + strings.Join(clauses, " AND ")
	}
	return q
}

// listLeadsSQL returns the lead list statement, its arguments and the
// resolved page size.
func listLeadsSQL(f LeadFilter) (string, []any, int) {
	q := BuildLeadFilter(f)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY id DESC %s`, leadColumns, q.Where, q.Page)
	return strings.Join(strings.Fields(query), " "), q.Args, q.Limit
}

// listLeadEventsSQL is the lead_events fallback for listLeadsSQL. Only
// LeadSubmitted rows are listed.
func listLeadEventsSQL(f LeadFilter) (string, []any, int) {
	q := buildEventFilter(f)
	where := fmt.Sprintf("WHERE type = '%s'", intake.TypeLeadSubmitted)
	if rest, ok := strings.CutPrefix(q.Where, "WHERE "); ok {
		where += " AND " + rest
	}
	query := fmt.Sprintf(`SELECT %s FROM lead_events %s ORDER BY id DESC %s`, eventColumns, where, q.Page)
	return strings.Join(strings.Fields(query), " "), q.Args, q.Limit
}
