package influx

import (
	"sort"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/engine"
	"github.com/muscatbay/meterbalance/internal/service"
)

// Measurement names written by the exporter.
const (
	MeasurementConsumption = "consumption"
	MeasurementBalance     = "water_balance"
	MeasurementZone        = "zone_balance"
	MeasurementFleet       = "electricity_fleet"
	MeasurementTreatment   = "stp_treatment"
)

// Points converts a report into line-protocol points. Monthly series are
// stamped at the start of their month; range summaries at the period end.
func Points(rep service.Report) []*write.Point {
	utility := string(rep.Utility)
	var points []*write.Point

	months := make([]domain.Month, 0, len(rep.Consumption.ByMonth))
	for m := range rep.Consumption.ByMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	for _, m := range months {
		points = append(points, influxdb2.NewPoint(MeasurementConsumption,
			map[string]string{"utility": utility, "unit": rep.Unit},
			map[string]interface{}{"total": rep.Consumption.ByMonth[m]},
			m.Start(),
		))
	}

	for _, mb := range rep.Monthly {
		points = append(points, influxdb2.NewPoint(MeasurementBalance,
			map[string]string{"utility": utility, "rating": string(engine.Rate(mb.LossPct))},
			map[string]interface{}{
				"a1":             mb.A1,
				"a2":             mb.A2,
				"a3":             mb.A3,
				"a3_bulk":        mb.A3Bulk,
				"stage1_loss":    mb.Stage1Loss,
				"stage2_loss":    mb.Stage2Loss,
				"stage3_loss":    mb.Stage3Loss,
				"total_loss":     mb.TotalLoss,
				"efficiency_pct": mb.EfficiencyPct,
				"loss_pct":       mb.LossPct,
			},
			mb.Month.Start(),
		))
	}

	if rep.Period.End.IsZero() {
		return points
	}
	ts := rep.Period.End.Start()

	for _, z := range rep.Zones {
		points = append(points, influxdb2.NewPoint(MeasurementZone,
			map[string]string{"utility": utility, "zone": z.Zone},
			map[string]interface{}{
				"bulk_reading":     z.BulkReading,
				"individual_total": z.IndividualTotal,
				"loss":             z.Loss,
				"loss_pct":         z.LossPct,
				"meter_count":      z.MeterCount,
				"months":           len(rep.Period.Months),
			},
			ts,
		))
	}

	if f := rep.Fleet; f != nil {
		points = append(points, influxdb2.NewPoint(MeasurementFleet,
			map[string]string{"utility": utility},
			map[string]interface{}{
				"total":       f.Total,
				"cost":        f.Cost.InexactFloat64(),
				"average":     f.Average,
				"meter_count": f.MeterCount,
				"months":      len(rep.Period.Months),
			},
			ts,
		))
	}

	if tr := rep.Treatment; tr != nil {
		points = append(points, influxdb2.NewPoint(MeasurementTreatment,
			map[string]string{"utility": utility},
			map[string]interface{}{
				"inlet":           tr.Inlet,
				"tse":             tr.TSE,
				"tanker_trips":    tr.TankerTrips,
				"efficiency_pct":  tr.EfficiencyPct,
				"income":          tr.Income.InexactFloat64(),
				"savings":         tr.Savings.InexactFloat64(),
				"economic_impact": tr.EconomicImpact.InexactFloat64(),
				"months":          len(rep.Period.Months),
			},
			ts,
		))
	}
	return points
}
