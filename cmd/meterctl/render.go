package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/muscatbay/meterbalance/internal/repo/sqliterepo"
	"github.com/muscatbay/meterbalance/internal/service"
)

// renderReport prints a compact, human-readable summary of rep.
func renderReport(w io.Writer, rep service.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Utility\t%s (%s)\n", rep.Utility, rep.Unit)
	fmt.Fprintf(tw, "Period\t%s .. %s (%d months)\n", rep.Period.Start, rep.Period.End, len(rep.Period.Months))
	if rep.Fallback {
		fmt.Fprintf(tw, "\trequested range not found, showing all months\n")
	}
	if rep.Previous != nil {
		fmt.Fprintf(tw, "Previous\t%s .. %s\n", rep.Previous.Start, rep.Previous.End)
	}
	if rep.Filter.Zone != "" || rep.Filter.Type != "" {
		fmt.Fprintf(tw, "Filter\tzone=%q type=%q\n", rep.Filter.Zone, rep.Filter.Type)
	}
	fmt.Fprintf(tw, "Meters\t%d\n", rep.MeterCount)
	fmt.Fprintf(tw, "Consumption\t%.2f\n", rep.Consumption.Total)

	if len(rep.Trends) > 0 {
		keys := make([]string, 0, len(rep.Trends))
		for k := range rep.Trends {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t := rep.Trends[k]
			fmt.Fprintf(tw, "Trend %s\t%s %s\n", k, t.Direction, t.MagnitudePct)
		}
	}

	if b := rep.Balance; b != nil {
		fmt.Fprintf(tw, "\n")
		fmt.Fprintf(tw, "A1 main bulk\t%.2f\n", b.A1)
		fmt.Fprintf(tw, "A2 zone bulks + DC\t%.2f\n", b.A2)
		fmt.Fprintf(tw, "A3 individual + DC\t%.2f\n", b.A3)
		fmt.Fprintf(tw, "Loss stage 1/2/3\t%.2f / %.2f / %.2f\n", b.Stage1Loss, b.Stage2Loss, b.Stage3Loss)
		fmt.Fprintf(tw, "Total loss\t%.2f (%.1f%%, %s)\n", b.TotalLoss, b.LossPct, rep.Rating)
	}
	if f := rep.Fleet; f != nil {
		fmt.Fprintf(tw, "\n")
		fmt.Fprintf(tw, "Cost (OMR)\t%s\n", f.Cost.StringFixed(3))
		fmt.Fprintf(tw, "Average per meter\t%.2f\n", f.Average)
		fmt.Fprintf(tw, "Highest\t%s %.2f\n", f.Highest.Label, f.Highest.Total)
	}
	if t := rep.Treatment; t != nil {
		fmt.Fprintf(tw, "\n")
		fmt.Fprintf(tw, "Inlet / TSE\t%.2f / %.2f (%.1f%%)\n", t.Inlet, t.TSE, t.EfficiencyPct)
		fmt.Fprintf(tw, "Tanker trips\t%.0f\n", t.TankerTrips)
		fmt.Fprintf(tw, "Economic impact (OMR)\t%s\n", t.EconomicImpact.StringFixed(3))
	}

	if len(rep.Zones) > 0 {
		fmt.Fprintf(tw, "\nZONE\tBULK\tINDIVIDUAL\tLOSS\tLOSS %%\tMETERS\n")
		for _, z := range rep.Zones {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.1f\t%d\n",
				z.ZoneName, z.BulkReading, z.IndividualTotal, z.Loss, z.LossPct, z.MeterCount)
		}
	}

	if len(rep.TopConsumers) > 0 {
		fmt.Fprintf(tw, "\nTOP CONSUMER\tACCOUNT\tTOTAL\tSHARE %%\n")
		for _, r := range rep.TopConsumers {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.1f\n", r.Label, r.Key, r.Total, r.Percentage)
		}
	}
	return tw.Flush()
}

func renderImports(w io.Writer, imports []sqliterepo.ImportInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "UTILITY\tMETERS\tIMPORTED AT\n")
	for _, i := range imports {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", i.Utility, i.MeterCount, i.ImportedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
