package csvrepo

import (
	"strings"
	"testing"

	"github.com/muscatbay/meterbalance/internal/domain"
)

func TestParseMetersCSV_OK(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
account,label,level,zone,type,parent,Jan-25,Feb-25
C43659,Main Bulk,L1,,Main BULK,,1000,
4300178,D-44 Building Bulk Meter,L3,Zone_03_(A),D_Building_Bulk,4300343,60,70
4300030,"Z3-44(1A), Building",L4,Zone_03_(A),Residential (Apart),4300178,30.5,40
`))

	meters, err := ParseMetersCSV(csv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := len(meters), 3; got != want {
		t.Fatalf("len(meters)=%d want %d", got, want)
	}

	jan, feb := domain.MustParseMonth("Jan-25"), domain.MustParseMonth("Feb-25")
	main := meters[0]
	if got, want := main.ID, "C43659"; got != want {
		t.Fatalf("id=%q want %q", got, want)
	}
	if _, ok := main.Readings[feb]; ok {
		t.Fatalf("empty cell produced a reading")
	}
	if got, want := main.Reading(jan), 1000.0; got != want {
		t.Fatalf("reading=%v want %v", got, want)
	}
	if !meters[1].BulkReaggregator {
		t.Fatalf("Building_Bulk type not flagged as re-aggregator")
	}
	if meters[2].BulkReaggregator {
		t.Fatalf("L4 flagged as re-aggregator")
	}
	if got, want := meters[2].Label, "Z3-44(1A), Building"; got != want {
		t.Fatalf("label=%q want %q", got, want)
	}
	if got, want := meters[2].ParentAccount, "4300178"; got != want {
		t.Fatalf("parent=%q want %q", got, want)
	}
}

func TestParseMetersCSV_ExplicitBulkColumn(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
account,label,level,type,bulk,Jan-25
1,Tower,L3,Residential (Villa),true,5
2,Block,L3,D_Building_Bulk,false,5
3,Block 2,L3,D_Building_Bulk,,5
`))

	meters, err := ParseMetersCSV(csv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, false, true}
	for i, w := range want {
		if got := meters[i].BulkReaggregator; got != w {
			t.Fatalf("meter %d bulk=%v want %v", i, got, w)
		}
	}
}

func TestParseMetersCSV_SkipsInvalidRows(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
account,label,level,Jan-25
1,ok,L3,10
2,bad level,L9,10
3,bad reading,L3,abc
4,negative,L3,-1
,no account,L3,1
5,flat,,NaN
6,ok too,DC,7
`))

	meters, err := ParseMetersCSV(csv)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if got, want := len(meters), 2; got != want {
		t.Fatalf("len(meters)=%d want %d", got, want)
	}
	if got, want := meters[1].Level, domain.LevelDC; got != want {
		t.Fatalf("level=%s want %s", got, want)
	}
}

func TestParseMetersCSV_BadHeader(t *testing.T) {
	t.Parallel()

	for _, header := range []string{
		"label,Jan-25",
		"account,label,Month-25",
		"account,label,zone,zone",
	} {
		if _, err := ParseMetersCSV(strings.NewReader(header + "\n")); err == nil {
			t.Fatalf("header %q: expected error", header)
		}
	}
}

func TestParseZonesCSV(t *testing.T) {
	t.Parallel()

	csv := strings.NewReader(strings.TrimSpace(`
code,name,bulk_account
Zone_05,Zone 5,4300345
,Nameless,1
Zone_VS,Village Square,4300335
`))

	zones, err := ParseZonesCSV(csv)
	if err == nil {
		t.Fatalf("expected error for empty code")
	}
	if got, want := len(zones), 2; got != want {
		t.Fatalf("len(zones)=%d want %d", got, want)
	}
	if got, want := zones[1], (domain.Zone{Code: "Zone_VS", Name: "Village Square", BulkAccount: "4300335"}); got != want {
		t.Fatalf("zone=%+v want %+v", got, want)
	}
}
