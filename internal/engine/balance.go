package engine

import (
	"github.com/muscatbay/meterbalance/internal/domain"
)

// Balance is the level-by-level water balance over a month range.
//
// A1 is the main source, A2 the zone bulks plus direct connections, A3 the
// individual consumption (see Individual). A3Bulk counts every L3 meter plus
// direct connections, so Stage3Loss isolates building re-metering loss.
// Losses are not clamped: a negative loss is a data-quality signal.
type Balance struct {
	A1            float64 `json:"a1"`
	A2            float64 `json:"a2"`
	A3            float64 `json:"a3"`
	A3Bulk        float64 `json:"a3Bulk"`
	Stage1Loss    float64 `json:"stage1Loss"`
	Stage2Loss    float64 `json:"stage2Loss"`
	Stage3Loss    float64 `json:"stage3Loss"`
	TotalLoss     float64 `json:"totalLoss"`
	EfficiencyPct float64 `json:"efficiencyPct"`
	LossPct       float64 `json:"lossPct"`
}

// ComputeBalance derives the hierarchy balance for meters over months.
func ComputeBalance(meters []domain.Meter, months []domain.Month) Balance {
	dc := Sum(AtLevel(meters, domain.LevelDC), months)

	b := Balance{
		A1:     Sum(AtLevel(meters, domain.LevelL1), months),
		A2:     Sum(AtLevel(meters, domain.LevelL2), months) + dc,
		A3:     Sum(Individual(meters), months),
		A3Bulk: Sum(AtLevel(meters, domain.LevelL3), months) + dc,
	}
	b.Stage1Loss = b.A1 - b.A2
	b.Stage2Loss = b.A2 - b.A3
	b.Stage3Loss = b.A3Bulk - b.A3
	b.TotalLoss = b.A1 - b.A3
	b.LossPct = Percent(b.TotalLoss, b.A1)
	b.EfficiencyPct = Percent(b.A3, b.A1)
	return b
}

// MonthlyBalance pairs a month with its single-month balance.
type MonthlyBalance struct {
	Month domain.Month `json:"month"`
	Balance
}

// MonthlyBalances returns one balance per month, in the order given.
func MonthlyBalances(meters []domain.Meter, months []domain.Month) []MonthlyBalance {
	out := make([]MonthlyBalance, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyBalance{
			Month:   m,
			Balance: ComputeBalance(meters, []domain.Month{m}),
		})
	}
	return out
}

// LevelCount is the number of meters tagged with a level.
type LevelCount struct {
	Level domain.Level `json:"level"`
	Count int          `json:"count"`
}

// CountByLevel counts meters per hierarchy level, in hierarchy order.
func CountByLevel(meters []domain.Meter) []LevelCount {
	out := make([]LevelCount, 0, len(domain.HierarchyLevels))
	for _, l := range domain.HierarchyLevels {
		out = append(out, LevelCount{Level: l, Count: len(AtLevel(meters, l))})
	}
	return out
}

// Rating grades a loss percentage for display.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingAverage   Rating = "Average"
	RatingPoor      Rating = "Poor"
)

func Rate(lossPct float64) Rating {
	switch {
	case lossPct < 10:
		return RatingExcellent
	case lossPct < 20:
		return RatingGood
	case lossPct < 30:
		return RatingAverage
	default:
		return RatingPoor
	}
}
