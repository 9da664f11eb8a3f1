package engine

import (
	"github.com/muscatbay/meterbalance/internal/domain"
)

// Sum adds every requested month's reading across meters. Missing readings
// count as zero; empty inputs sum to zero.
func Sum(meters []domain.Meter, months []domain.Month) float64 {
	var total float64
	for _, m := range meters {
		total += MeterTotal(m, months)
	}
	return total
}

// MeterTotal sums a single meter over months.
func MeterTotal(m domain.Meter, months []domain.Month) float64 {
	var total float64
	for _, month := range months {
		total += m.Readings[month]
	}
	return total
}

// Aggregate is Sum with a per-month breakdown. Every requested month is
// present in ByMonth, zero when nothing was read.
func Aggregate(meters []domain.Meter, months []domain.Month) domain.Aggregate {
	agg := domain.Aggregate{ByMonth: make(map[domain.Month]float64, len(months))}
	for _, month := range months {
		var v float64
		for _, m := range meters {
			v += m.Readings[month]
		}
		agg.ByMonth[month] += v
		agg.Total += v
	}
	return agg
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}
