package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownUtility = errors.New("unknown utility")

// Utility selects which network a catalog describes. Each keeps its own
// level and unit semantics.
type Utility string

const (
	Water       Utility = "water"
	Electricity Utility = "electricity"
	STP         Utility = "stp"
)

var Utilities = []Utility{Water, Electricity, STP}

func ParseUtility(s string) (Utility, error) {
	u := Utility(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case Water, Electricity, STP:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUtility, s)
}

// Unit is the reading unit for the utility.
func (u Utility) Unit() string {
	switch u {
	case Electricity:
		return "kWh"
	default:
		return "m³"
	}
}

// Level is a meter's position in the supply hierarchy, coarsest first.
type Level string

const (
	LevelL1   Level = "L1" // main source
	LevelL2   Level = "L2" // zone bulk
	LevelL3   Level = "L3" // building or villa
	LevelL4   Level = "L4" // apartment
	LevelDC   Level = "DC" // direct connection from the main source
	LevelFlat Level = "N/A"
)

// HierarchyLevels lists the water levels in reporting order.
var HierarchyLevels = []Level{LevelL1, LevelL2, LevelL3, LevelL4, LevelDC}

func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelL1, LevelL2, LevelL3, LevelL4, LevelDC:
		return l, nil
	case "", "N/A", "NA", "FLAT":
		return LevelFlat, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// Meter is a metered point in the network. Readings are sparse: a month
// without a key has no reading and counts as zero in every aggregate.
type Meter struct {
	ID            string
	Label         string
	AccountNumber string
	Level         Level
	Zone          string
	Type          string
	ParentAccount string

	// BulkReaggregator marks an L3 meter that re-meters a building whose
	// L4 children are metered individually. Set at ingestion.
	BulkReaggregator bool

	Readings map[Month]float64
}

// Reading returns the quantity for m, or 0 when there is none.
func (mt Meter) Reading(m Month) float64 {
	return mt.Readings[m]
}

// Zone maps a zone code to its display name and designated bulk meter.
type Zone struct {
	Code        string
	Name        string
	BulkAccount string
}

// Catalog is a read-only snapshot of one utility's meters.
type Catalog struct {
	Utility Utility
	Meters  []Meter
	Zones   []Zone
}

// Zone looks up a zone by code.
func (c Catalog) Zone(code string) (Zone, bool) {
	for _, z := range c.Zones {
		if z.Code == code {
			return z, true
		}
	}
	return Zone{}, false
}

// MeterByAccount finds a meter by its billing account number.
func (c Catalog) MeterByAccount(account string) (Meter, bool) {
	if account == "" {
		return Meter{}, false
	}
	for _, m := range c.Meters {
		if m.AccountNumber == account {
			return m, true
		}
	}
	return Meter{}, false
}

// Validate checks that ids and account numbers are unique within the snapshot.
func (c Catalog) Validate() error {
	var errs []error
	ids := make(map[string]struct{}, len(c.Meters))
	accounts := make(map[string]struct{}, len(c.Meters))
	for _, m := range c.Meters {
		if m.ID != "" {
			if _, dup := ids[m.ID]; dup {
				errs = append(errs, fmt.Errorf("duplicate meter id %q", m.ID))
			}
			ids[m.ID] = struct{}{}
		}
		if m.AccountNumber != "" {
			if _, dup := accounts[m.AccountNumber]; dup {
				errs = append(errs, fmt.Errorf("duplicate account number %q", m.AccountNumber))
			}
			accounts[m.AccountNumber] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// Aggregate is a range-bounded total with its per-month breakdown.
type Aggregate struct {
	Total   float64           `json:"total"`
	ByMonth map[Month]float64 `json:"byMonth"`
}
