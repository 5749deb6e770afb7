package core

import (
	"fmt"
	"time"
)

// Month identifies a calendar month. The wrapped time is always truncated to
// 00:00 UTC on the first day of the month, so Month values compare and hash
// cleanly as envelope keys.
type Month struct {
	time.Time
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Time: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// NewMonth returns the Month for the given year and calendar month (1-12).
func NewMonth(year, month int) Month {
	return Month{Time: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}
}

// ParseMonth parses "YYYY-MM" or "YYYY-MM-DD" (the day is discarded).
func ParseMonth(s string) (Month, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("parse month %q: %w", s, ErrInvalidMonth)
}

// Next returns the following month.
func (m Month) Next() Month {
	return MonthOf(m.AddDate(0, 1, 0))
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return m.Format("2006-01")
}

// Key formats the month as stored in the envelopes table ("YYYY-MM-01").
func (m Month) Key() string {
	return m.Format("2006-01-02")
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return MonthOf(t).Equal(m.Time)
}

// Validate rejects the zero value.
func (m Month) Validate() error {
	if m.IsZero() {
		return ErrInvalidMonth
	}
	return nil
}
