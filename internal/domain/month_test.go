package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth_OK(t *testing.T) {
	t.Parallel()

	cases := map[string]Month{
		"Apr-24":   {Year: 2024, Month: time.April},
		"jan-25":   {Year: 2025, Month: time.January},
		" Dec-25 ": {Year: 2025, Month: time.December},
		"Feb-2026": {Year: 2026, Month: time.February},
	}
	for label, want := range cases {
		got, err := ParseMonth(label)
		if err != nil {
			t.Fatalf("ParseMonth(%q): %v", label, err)
		}
		if got != want {
			t.Fatalf("ParseMonth(%q)=%v want %v", label, got, want)
		}
	}
}

func TestParseMonth_Invalid(t *testing.T) {
	t.Parallel()

	for _, label := range []string{"", "Jan", "January-25", "Foo-25", "Jan-2", "Jan-xx", "2025-01"} {
		if _, err := ParseMonth(label); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("ParseMonth(%q) err=%v want ErrInvalidMonth", label, err)
		}
	}
}

func TestMonth_KeyIsChronological(t *testing.T) {
	t.Parallel()

	jan25 := MustParseMonth("Jan-25")
	feb24 := MustParseMonth("Feb-24")
	dec25 := MustParseMonth("Dec-25")

	// Lexically "Feb-24" < "Jan-25" happens to hold, but "Dec-25" < "Jan-25" would not.
	if !feb24.Before(jan25) {
		t.Fatalf("expected Feb-24 before Jan-25")
	}
	if !jan25.Before(dec25) {
		t.Fatalf("expected Jan-25 before Dec-25")
	}
	if got, want := dec25.Key()-jan25.Key(), 11; got != want {
		t.Fatalf("key distance=%d want %d", got, want)
	}
}

func TestMonth_StringRoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMonth(2024, time.September)
	if got, want := m.String(), "Sep-24"; got != want {
		t.Fatalf("String()=%q want %q", got, want)
	}
	var back Month
	if err := back.UnmarshalText([]byte(m.String())); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != m {
		t.Fatalf("round trip=%v want %v", back, m)
	}
}

func TestCatalog_ValidateRejectsDuplicateAccounts(t *testing.T) {
	t.Parallel()

	c := Catalog{Meters: []Meter{
		{ID: "a", AccountNumber: "100"},
		{ID: "b", AccountNumber: "100"},
	}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected duplicate account error")
	}
}

func TestParseUtility(t *testing.T) {
	t.Parallel()

	if u, err := ParseUtility("Water"); err != nil || u != Water {
		t.Fatalf("ParseUtility(Water)=%q,%v", u, err)
	}
	if _, err := ParseUtility("gas"); !errors.Is(err, ErrUnknownUtility) {
		t.Fatalf("expected ErrUnknownUtility, got %v", err)
	}
}

func TestMonth_Start(t *testing.T) {
	t.Parallel()

	got := MustParseMonth("Feb-25").Start()
	if want := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Start=%v want %v", got, want)
	}
}
