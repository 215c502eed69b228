package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Filter matches one column against a value. String columns match by
// case-insensitive substring, dates by expression, everything else by
// equality.
type Filter struct {
	Column string
	Value  any
}

const dayLayout = "2006-01-02"

func applyFilter(rows []Row, f Filter) ([]Row, error) {
	if f.Column == ColPurchased {
		expr, ok := f.Value.(string)
		if !ok {
			return nil, fmt.Errorf("date filter on %s requires a string expression", f.Column)
		}
		return applyDateFilter(rows, f.Column, expr)
	}

	out := rows[:0]
	for _, row := range rows {
		if cellMatches(row[f.Column], f.Value) {
			out = append(out, row)
		}
	}
	return out, nil
}

func cellMatches(cell, want any) bool {
	switch c := cell.(type) {
	case string:
		w, ok := want.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(c), strings.ToLower(w))
	case decimal.Decimal:
		switch w := want.(type) {
		case decimal.Decimal:
			return c.Equal(w)
		case string:
			d, err := decimal.NewFromString(strings.ReplaceAll(w, ",", "."))
			return err == nil && c.Equal(d)
		}
		return false
	case nil:
		return false
	default:
		return fmt.Sprintf("%v", cell) == fmt.Sprintf("%v", want)
	}
}

// applyDateFilter understands "> YYYY-MM-DD" (exclusive), "< YYYY-MM-DD"
// (exclusive), "YYYY-MM-DD to YYYY-MM-DD" (both boundaries inclusive) and a
// bare date (exact day).
func applyDateFilter(rows []Row, col, expr string) ([]Row, error) {
	expr = strings.TrimSpace(expr)

	var keep func(t time.Time) bool
	switch {
	case strings.HasPrefix(expr, ">"):
		after, err := parseDay(strings.TrimPrefix(expr, ">"))
		if err != nil {
			return nil, err
		}
		keep = func(t time.Time) bool { return t.After(after) }
	case strings.HasPrefix(expr, "<"):
		before, err := parseDay(strings.TrimPrefix(expr, "<"))
		if err != nil {
			return nil, err
		}
		keep = func(t time.Time) bool { return t.Before(before) }
	case strings.Contains(expr, " to "):
		from, to, _ := strings.Cut(expr, " to ")
		start, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		end, err := parseDay(to)
		if err != nil {
			return nil, err
		}
		keep = func(t time.Time) bool { return !t.Before(start) && !t.After(end) }
	default:
		day, err := parseDay(expr)
		if err != nil {
			return nil, err
		}
		keep = func(t time.Time) bool { return t.Equal(day) }
	}

	out := rows[:0]
	for _, row := range rows {
		if t, ok := row[col].(time.Time); ok && keep(t) {
			out = append(out, row)
		}
	}
	return out, nil
}

func parseDay(value string) (time.Time, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", value, err)
	}
	return t, nil
}
