package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is an explicit calendar date (year/month/day). Collaborator APIs send
// both plain dates and full RFC3339 timestamps; either way only the calendar
// date is kept, so month bucketing does not depend on the client timezone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrEmptyDate
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
	}
	return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	if d.Month < 1 || d.Month > 12 {
		return ErrInvalidMonth
	}
	if d.Day < 1 || d.Day > 31 {
		return ErrInvalidDay
	}
	return nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Compare returns -1 if d is before other, +1 if after, 0 if equal.
func (d Date) Compare(other Date) int {
	a := d.Year*10000 + d.Month*100 + d.Day
	b := other.Year*10000 + other.Month*100 + other.Day
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MonthLabel returns the display bucket for month grouping, e.g. "Jan 2024".
func (d Date) MonthLabel() string {
	return time.Month(d.Month).String()[:3] + " " + fmt.Sprintf("%d", d.Year)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON encodes the date as "2006-01-02", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes either "2006-01-02" or an RFC3339 timestamp.
// A JSON null leaves the date unset.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
