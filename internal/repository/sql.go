package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates positional-parameter predicates.
type whereBuilder struct {
	clauses []string
	args    []any
}

// arg registers a value and returns its placeholder.
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// add appends a predicate; every %s in format receives the same placeholder.
func (w *whereBuilder) add(format string, v any) {
	placeholder := w.arg(v)
	w.clauses = append(w.clauses, strings.ReplaceAll(format, "%s", placeholder))
}

func (w *whereBuilder) addRaw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func limitOffset(limit, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return fmt.Sprintf(" OFFSET %d", offset)
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func likePattern(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(term) + "%"
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
