package engine

import (
	"github.com/shopspring/decimal"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// DefaultElectricityRate is the flat electricity tariff in OMR per kWh.
var DefaultElectricityRate = decimal.RequireFromString("0.025")

// Consumer identifies a single meter and its total.
type Consumer struct {
	Label   string  `json:"label"`
	Account string  `json:"account"`
	Total   float64 `json:"total"`
}

// FleetSummary describes a flat, type-tagged fleet such as electricity.
type FleetSummary struct {
	Total      float64         `json:"total"`
	Cost       decimal.Decimal `json:"cost"`
	Average    float64         `json:"average"`
	MeterCount int             `json:"meterCount"`
	Highest    Consumer        `json:"highest"`
}

// Fleet totals meters over months and prices the total at tariff. The first
// meter with the largest positive total is the highest consumer; when no meter
// consumed anything the label is "N/A".
func Fleet(meters []domain.Meter, months []domain.Month, tariff decimal.Decimal) FleetSummary {
	out := FleetSummary{
		MeterCount: len(meters),
		Highest:    Consumer{Label: "N/A"},
	}
	for _, m := range meters {
		t := MeterTotal(m, months)
		out.Total += t
		if t > out.Highest.Total {
			out.Highest = Consumer{Label: m.Label, Account: m.AccountNumber, Total: t}
		}
	}
	out.Cost = decimal.NewFromFloat(out.Total).Mul(tariff).Round(3)
	if len(meters) > 0 {
		out.Average = out.Total / float64(len(meters))
	}
	return out
}
