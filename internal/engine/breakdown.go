package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// Row is one entry of a breakdown or ranking.
type Row struct {
	Key        string  `json:"key"`
	Label      string  `json:"label,omitempty"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// KeyFunc assigns a meter to a breakdown category.
type KeyFunc func(domain.Meter) string

func ByType(m domain.Meter) string { return m.Type }

func ByZone(m domain.Meter) string {
	if m.Zone == "" {
		return "Main"
	}
	return m.Zone
}

func ByLevel(m domain.Meter) string { return string(m.Level) }

// OtherCategory collects types not listed in a category table.
const OtherCategory = "Other"

// WaterTypeCategories groups water usage types for the type breakdown.
var WaterTypeCategories = map[string][]string{
	"Commercial":  {"Retail", "Building"},
	"Residential": {"Residential (Villa)", "Residential (Apart)", "D_Building_Bulk", "D_Building_Common"},
	"Irrigation":  {"IRR_Servies"},
	"Common":      {"MB_Common", "Zone Bulk", "Main BULK"},
}

// ByTypeCategory maps a meter's type through categories. Types found in no
// category fall under OtherCategory.
func ByTypeCategory(categories map[string][]string) KeyFunc {
	index := make(map[string]string)
	for category, types := range categories {
		for _, t := range types {
			index[t] = category
		}
	}
	return func(m domain.Meter) string {
		if c, ok := index[m.Type]; ok {
			return c
		}
		return OtherCategory
	}
}

// ByCategory totals meters per key over months. Rows are ordered by total
// descending; equal totals keep the order in which their key first appeared.
func ByCategory(meters []domain.Meter, months []domain.Month, key KeyFunc) []Row {
	var (
		rows  []Row
		index = make(map[string]int)
		grand float64
	)
	for _, m := range meters {
		k := key(m)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, Row{Key: k})
		}
		t := MeterTotal(m, months)
		rows[i].Total += t
		grand += t
	}
	for i := range rows {
		rows[i].Percentage = Percent(rows[i].Total, grand)
	}
	sortRows(rows)
	return rows
}

// TopN returns the first n rows. n <= 0 returns every row.
func TopN(rows []Row, n int) []Row {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// TopConsumers ranks individual meters by their total over months and keeps
// the n largest. Meters with a zero total are not ranked.
func TopConsumers(meters []domain.Meter, months []domain.Month, n int) []Row {
	var grand float64
	rows := lo.FilterMap(meters, func(m domain.Meter, _ int) (Row, bool) {
		t := MeterTotal(m, months)
		grand += t
		return Row{Key: m.AccountNumber, Label: m.Label, Total: t}, t > 0
	})
	for i := range rows {
		rows[i].Percentage = Percent(rows[i].Total, grand)
	}
	sortRows(rows)
	return TopN(rows, n)
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
}
