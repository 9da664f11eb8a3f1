package engine

import (
	"github.com/shopspring/decimal"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// Sewage treatment plant series types.
const (
	TypeInletSewage   = "Inlet Sewage"
	TypeTSEIrrigation = "TSE Irrigation"
	TypeTankerTrips   = "Tanker Trips"
)

// TreatmentTariffs prices the plant's economic outputs.
type TreatmentTariffs struct {
	// TankerFee is the income per tanker discharge, OMR.
	TankerFee decimal.Decimal
	// TSESavingRate is the saving per m³ of treated effluent reused, OMR.
	TSESavingRate decimal.Decimal
}

func DefaultTreatmentTariffs() TreatmentTariffs {
	return TreatmentTariffs{
		TankerFee:     decimal.RequireFromString("4.50"),
		TSESavingRate: decimal.RequireFromString("1.32"),
	}
}

// TreatmentSummary describes the sewage treatment plant over a range.
type TreatmentSummary struct {
	Inlet          float64         `json:"inlet"`
	TSE            float64         `json:"tse"`
	TankerTrips    float64         `json:"tankerTrips"`
	EfficiencyPct  float64         `json:"efficiencyPct"`
	Income         decimal.Decimal `json:"income"`
	Savings        decimal.Decimal `json:"savings"`
	EconomicImpact decimal.Decimal `json:"economicImpact"`
}

// Treatment sums the plant series by type. Efficiency is treated effluent
// over inlet volume and is 0 when nothing entered the plant.
func Treatment(meters []domain.Meter, months []domain.Month, tariffs TreatmentTariffs) TreatmentSummary {
	out := TreatmentSummary{
		Inlet:       Sum(OfType(meters, TypeInletSewage), months),
		TSE:         Sum(OfType(meters, TypeTSEIrrigation), months),
		TankerTrips: Sum(OfType(meters, TypeTankerTrips), months),
	}
	out.EfficiencyPct = Percent(out.TSE, out.Inlet)
	out.Income = decimal.NewFromFloat(out.TankerTrips).Mul(tariffs.TankerFee).Round(3)
	out.Savings = decimal.NewFromFloat(out.TSE).Mul(tariffs.TSESavingRate).Round(3)
	out.EconomicImpact = out.Income.Add(out.Savings)
	return out
}
