package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// Date is a calendar date with no time-of-day component. It is stored at
// UTC midnight so day arithmetic never crosses a DST boundary.
type Date struct {
	time.Time
}

var ErrInvalidDate = errors.New("invalid date")

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.ParseInLocation(isoDate, s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date in the instant's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date in the local timezone.
func Today() Date {
	return DateOf(time.Now())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO formats the date as YYYY-MM-DD. The zero date formats as "".
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(isoDate)
}

// InMonth reports whether the date falls in the given calendar month.
func (d Date) InMonth(year, month int) bool {
	return !d.IsZero() && d.Year() == year && d.Month() == month
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysBetween returns the number of whole days from a to b. Both dates
// sit at UTC midnight, so the division is exact.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time) / (24 * time.Hour))
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

// MarshalJSON encodes the date as an ISO string, the zero date as "".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ISO())
}

// UnmarshalJSON accepts an ISO date string; "" and null decode to the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
