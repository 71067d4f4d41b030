package database

import (
	"fmt"
	"strings"

	"github.com/unifi-tools/threatwatch/pkg/models"
)

// ValidateEventFilter rejects malformed filters before anything touches the
// store. Validation, predicate compilation and execution are separate stages.
func ValidateEventFilter(filter models.EventFilter) error {
	if filter.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1", InvalidFilter)
	}

	if filter.PageSize < 1 {
		return fmt.Errorf("%w: page_size must be >= 1", InvalidFilter)
	}

	if filter.PageSize > models.MaxPageSize {
		return fmt.Errorf("%w: page_size must be <= %d", InvalidFilter, models.MaxPageSize)
	}

	if filter.Severity != nil && !models.KnownSeverity(*filter.Severity) {
		return fmt.Errorf("%w: severity must be one of 1, 2, 3", InvalidFilter)
	}

	if filter.StartTime != nil && filter.EndTime != nil && filter.EndTime.Before(*filter.StartTime) {
		return fmt.Errorf("%w: end_time is before start_time", InvalidFilter)
	}

	return nil
}

type eventPredicates struct {
	conditions []string
	args       []any
}

func (p *eventPredicates) add(condition string, args ...any) {
	p.conditions = append(p.conditions, condition)
	p.args = append(p.args, args...)
}

func handleTimeFilters(filter models.EventFilter, p *eventPredicates) {
	if filter.StartTime != nil {
		p.add("ts >= ?", filter.StartTime.UnixMilli())
	}

	if filter.EndTime != nil {
		p.add("ts < ?", filter.EndTime.UnixMilli())
	}
}

func handleEqualityFilters(filter models.EventFilter, p *eventPredicates) {
	if filter.Severity != nil {
		p.add("severity = ?", *filter.Severity)
	}

	if filter.Category != "" {
		p.add("category = ?", filter.Category)
	}

	if filter.Action != "" {
		p.add("action = ?", filter.Action)
	}

	if filter.SrcIP != "" {
		p.add("src_ip = ?", filter.SrcIP)
	}

	if filter.DestIP != "" {
		p.add("dest_ip = ?", filter.DestIP)
	}
}

func handleSearchFilter(filter models.EventFilter, p *eventPredicates) {
	if filter.Search == "" {
		return
	}

	needle := "%" + strings.ToLower(filter.Search) + "%"
	p.add("(LOWER(signature) LIKE ? OR LOWER(message) LIKE ?)", needle, needle)
}

// compileEventFilter turns a filter into a WHERE clause and its arguments.
// The same clause is used for both the page query and the total count, so
// they always agree.
func compileEventFilter(filter models.EventFilter) (string, []any) {
	p := &eventPredicates{}

	handleTimeFilters(filter, p)
	handleEqualityFilters(filter, p)
	handleSearchFilter(filter, p)

	if len(p.conditions) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(p.conditions, " AND "), p.args
}
