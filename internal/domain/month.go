package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidMonth = errors.New("invalid month label")

var monthAbbrev = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// Month identifies a reporting period such as "Apr-24".
// The zero value is not a valid month.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth returns the month for the given calendar year and month.
func NewMonth(year int, m time.Month) Month {
	return Month{Year: year, Month: m}
}

// ParseMonth parses labels of the form "Apr-24" or "Apr-2024".
// Two-digit years are read as 2000+yy.
func ParseMonth(label string) (Month, error) {
	s := strings.TrimSpace(label)
	abbr, yy, ok := strings.Cut(s, "-")
	if !ok || len(abbr) != 3 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	m, ok := monthAbbrev[strings.ToLower(abbr)]
	if !ok {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	if len(yy) != 2 && len(yy) != 4 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	year, err := strconv.Atoi(yy)
	if err != nil || year < 0 {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, label)
	}
	if len(yy) == 2 {
		year += 2000
	}
	return Month{Year: year, Month: m}, nil
}

// MustParseMonth is ParseMonth for literals known to be valid.
func MustParseMonth(label string) Month {
	m, err := ParseMonth(label)
	if err != nil {
		panic(err)
	}
	return m
}

// Key orders months chronologically: year*12 + zero-based month.
func (m Month) Key() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m Month) Before(o Month) bool { return m.Key() < o.Key() }

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

// Start is midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the canonical label, e.g. "Jan-25".
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s-%02d", m.Month.String()[:3], m.Year%100)
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Labels renders months as their canonical labels.
func Labels(months []Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	return out
}
