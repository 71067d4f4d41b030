package models

import "time"

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// EventFilter describes one events query. All constraints combine with AND;
// a zero field means no constraint on that dimension. The value is never
// mutated once built.
type EventFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Severity  *int
	Category  string
	Action    string
	SrcIP     string
	DestIP    string
	// Search matches case-insensitively against signature or message.
	Search   string
	Page     int
	PageSize int
}

func NewEventFilter() EventFilter {
	return EventFilter{
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Offset returns the row offset implied by the pagination fields.
func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
