package record

import (
	"strings"
	"time"
)

// dateFormats is the fixed ordered list of accepted transcript date formats.
// First successful parse wins.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"02/01/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Date is a calendar date (no time component). The zero value means absent.
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate tries each accepted format in order. Total failure returns the
// zero Date, never an error; format problems surface later as validation
// findings, not parse failures.
func ParseDate(raw string) Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Date{}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{t}
		}
	}
	return Date{}
}

// Today returns the current date at midnight UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// DateOf truncates a time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when absent.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" or null. Anything unparseable decodes to
// the zero Date rather than failing the whole record.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	*d = ParseDate(s)
	return nil
}
