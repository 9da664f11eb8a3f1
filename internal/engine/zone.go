package engine

import (
	"github.com/samber/lo"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// ZoneBalance reconciles a zone's bulk meter against the individual meters
// inside the zone.
type ZoneBalance struct {
	Zone            string  `json:"zone"`
	ZoneName        string  `json:"zoneName"`
	BulkReading     float64 `json:"bulkReading"`
	IndividualTotal float64 `json:"individualTotal"`
	Loss            float64 `json:"loss"`
	LossPct         float64 `json:"lossPct"`
	EfficiencyPct   float64 `json:"efficiencyPct"`
	MeterCount      int     `json:"meterCount"`
}

// ComputeZoneBalance sums the zone's bulk meter and its individual L3/L4
// meters across months. A single month is the one-element case.
//
// An unknown zone code, or a bulk account missing from the catalog, yields
// an all-zero balance with MeterCount 0.
func ComputeZoneBalance(c domain.Catalog, zoneCode string, months []domain.Month) ZoneBalance {
	out := ZoneBalance{Zone: zoneCode, ZoneName: zoneCode}
	zone, ok := c.Zone(zoneCode)
	if !ok {
		return out
	}
	out.ZoneName = zone.Name
	bulk, ok := c.MeterByAccount(zone.BulkAccount)
	if !ok {
		return out
	}

	members := AtLevel(InZone(c.Meters, zoneCode), domain.LevelL3, domain.LevelL4)
	individual := lo.Filter(members, func(m domain.Meter, _ int) bool {
		return m.Level == domain.LevelL4 || !m.BulkReaggregator
	})

	out.BulkReading = MeterTotal(bulk, months)
	out.IndividualTotal = Sum(individual, months)
	out.Loss = out.BulkReading - out.IndividualTotal
	out.LossPct = Percent(out.Loss, out.BulkReading)
	out.EfficiencyPct = Percent(out.IndividualTotal, out.BulkReading)
	out.MeterCount = len(members)
	return out
}

// AllZones reconciles every configured zone, in configuration order.
func AllZones(c domain.Catalog, months []domain.Month) []ZoneBalance {
	out := make([]ZoneBalance, 0, len(c.Zones))
	for _, z := range c.Zones {
		out = append(out, ComputeZoneBalance(c, z.Code, months))
	}
	return out
}

// BuildingBalance reconciles a building re-aggregator against the
// apartments metered beneath it.
type BuildingBalance struct {
	Building       string  `json:"building"`
	Account        string  `json:"account"`
	Zone           string  `json:"zone"`
	BulkReading    float64 `json:"bulkReading"`
	ApartmentTotal float64 `json:"apartmentTotal"`
	Loss           float64 `json:"loss"`
	LossPct        float64 `json:"lossPct"`
	ApartmentCount int     `json:"apartmentCount"`
}

// ComputeBuildingBalance compares the meter with the given account to its
// children (by parent account). An unknown account yields a zero balance.
func ComputeBuildingBalance(c domain.Catalog, account string, months []domain.Month) BuildingBalance {
	bulk, ok := c.MeterByAccount(account)
	if !ok {
		return BuildingBalance{Account: account}
	}
	children := lo.Filter(c.Meters, func(m domain.Meter, _ int) bool {
		return m.ParentAccount == bulk.AccountNumber
	})
	out := BuildingBalance{
		Building:       bulk.Label,
		Account:        bulk.AccountNumber,
		Zone:           bulk.Zone,
		BulkReading:    MeterTotal(bulk, months),
		ApartmentTotal: Sum(children, months),
		ApartmentCount: len(children),
	}
	out.Loss = out.BulkReading - out.ApartmentTotal
	out.LossPct = Percent(out.Loss, out.BulkReading)
	return out
}

// AllBuildings reconciles every building re-aggregator in catalog order.
func AllBuildings(c domain.Catalog, months []domain.Month) []BuildingBalance {
	bulks := lo.Filter(c.Meters, func(m domain.Meter, _ int) bool { return m.BulkReaggregator })
	return lo.Map(bulks, func(m domain.Meter, _ int) BuildingBalance {
		return ComputeBuildingBalance(c, m.AccountNumber, months)
	})
}
