package database

import (
	"database/sql/driver"
	"strings"
	"time"
)

// TimeLayout is the layout timestamps are written with.
// It sorts lexicographically in chronological order.
const TimeLayout = "2006-01-02 15:04:05.000000"

// readLayouts are tried in order when scanning a stored timestamp.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// NullTime is a nullable timestamp stored as text.
// Values that cannot be parsed are read as an absent time instead of failing the query,
// so legacy or partially written rows never break a listing.
type NullTime struct {
	Time  time.Time
	Valid bool
}

// NewNullTime returns a valid NullTime for t.
func NewNullTime(t time.Time) NullTime {
	return NullTime{Time: t, Valid: true}
}

// NullTimeFromPtr converts an optional time into a NullTime.
func NullTimeFromPtr(t *time.Time) NullTime {
	if t == nil {
		return NullTime{}
	}
	return NewNullTime(*t)
}

// Ptr returns the time or nil when the value is absent.
func (n NullTime) Ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// Scan implements sql.Scanner.
func (n *NullTime) Scan(value any) error {
	n.Time, n.Valid = time.Time{}, false

	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		n.Time, n.Valid = v, true
		return nil
	case string:
		n.Time, n.Valid = ParseTime(v)
	case []byte:
		n.Time, n.Valid = ParseTime(string(v))
	}
	return nil
}

// Value implements driver.Valuer.
func (n NullTime) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Time.UTC().Format(TimeLayout), nil
}

// ParseTime parses s with every accepted layout.
// The boolean is false when s is empty or matches none of them.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
