package engine

import (
	"github.com/samber/lo"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// AtLevel returns the meters tagged with any of levels, in catalog order.
func AtLevel(meters []domain.Meter, levels ...domain.Level) []domain.Meter {
	return lo.Filter(meters, func(m domain.Meter, _ int) bool {
		return lo.Contains(levels, m.Level)
	})
}

// InZone returns the meters in zone. An empty zone matches everything.
func InZone(meters []domain.Meter, zone string) []domain.Meter {
	if zone == "" {
		return meters
	}
	return lo.Filter(meters, func(m domain.Meter, _ int) bool { return m.Zone == zone })
}

// OfType returns the meters of the given usage type. An empty type matches everything.
func OfType(meters []domain.Meter, typ string) []domain.Meter {
	if typ == "" {
		return meters
	}
	return lo.Filter(meters, func(m domain.Meter, _ int) bool { return m.Type == typ })
}

// Individual returns the meters that measure end consumption: L3 meters that
// are not building re-aggregators, every L4, and every direct connection.
func Individual(meters []domain.Meter) []domain.Meter {
	return lo.Filter(meters, func(m domain.Meter, _ int) bool {
		switch m.Level {
		case domain.LevelL3:
			return !m.BulkReaggregator
		case domain.LevelL4, domain.LevelDC:
			return true
		}
		return false
	})
}
