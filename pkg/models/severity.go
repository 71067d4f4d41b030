package models

import "fmt"

const (
	SeverityHigh   = 1
	SeverityMedium = 2
	SeverityLow    = 3
)

var severityLabels = map[int]string{
	SeverityHigh:   "High",
	SeverityMedium: "Medium",
	SeverityLow:    "Low",
}

// SeverityLabel returns the display label for a severity code. Unknown codes
// pass through as "Severity N".
func SeverityLabel(severity int) string {
	if label, ok := severityLabels[severity]; ok {
		return label
	}

	return fmt.Sprintf("Severity %d", severity)
}

// KnownSeverity tells whether a severity code belongs to the recognized set.
func KnownSeverity(severity int) bool {
	_, ok := severityLabels[severity]
	return ok
}
