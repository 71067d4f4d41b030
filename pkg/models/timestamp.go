package models

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp is a time.Time that serializes as ISO-8601 with an explicit UTC
// "Z" suffix. Zone-less input is assumed to be UTC rather than converted.
type Timestamp time.Time

const naiveLayout = "2006-01-02T15:04:05.999999999"

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if time.Time(t).IsZero() {
		return []byte("null"), nil
	}

	return []byte(`"` + t.String() + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*t = Timestamp(time.Time{})
		return nil
	}

	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		*t = Timestamp(parsed)
		return nil
	}

	// no zone information: assume UTC
	parsed, err := time.ParseInLocation(naiveLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("unable to parse timestamp '%s': %w", s, err)
	}

	*t = Timestamp(parsed)

	return nil
}
