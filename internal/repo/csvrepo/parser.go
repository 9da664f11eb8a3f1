package csvrepo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// Known meter columns. Every other header cell must be a month label.
const (
	colID      = "id"
	colAccount = "account"
	colLabel   = "label"
	colLevel   = "level"
	colZone    = "zone"
	colType    = "type"
	colParent  = "parent"
	colBulk    = "bulk"
)

// bulkTypeTag marks building re-aggregators in catalogs without a bulk column.
const bulkTypeTag = "Building_Bulk"

type meterHeader struct {
	cols   map[string]int
	months []monthCol
}

type monthCol struct {
	idx   int
	month domain.Month
}

func parseMeterHeader(header []string) (meterHeader, error) {
	h := meterHeader{cols: make(map[string]int)}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch name {
		case colID, colAccount, colLabel, colLevel, colZone, colType, colParent, colBulk:
			if _, dup := h.cols[name]; dup {
				return h, fmt.Errorf("duplicate column %q", name)
			}
			h.cols[name] = i
			continue
		}
		m, err := domain.ParseMonth(cell)
		if err != nil {
			return h, fmt.Errorf("column %d: %w", i+1, err)
		}
		h.months = append(h.months, monthCol{idx: i, month: m})
	}
	for _, required := range []string{colAccount, colLabel} {
		if _, ok := h.cols[required]; !ok {
			return h, fmt.Errorf("missing required column %q", required)
		}
	}
	return h, nil
}

func (h meterHeader) get(row []string, name string) string {
	i, ok := h.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseMetersCSV parses a wide meter table from r.
//
// Expected header: account,label[,id,level,zone,type,parent,bulk],<month>...
// where each month column is labelled like "Jan-25". An empty cell means no
// reading for that month. When the bulk column is absent or empty, an L3
// meter whose type contains "Building_Bulk" is flagged as a re-aggregator.
//
// Invalid rows are skipped and returned as a joined error (errors.Join).
func ParseMetersCSV(r io.Reader) ([]domain.Meter, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // be permissive; validate ourselves
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := parseMeterHeader(header)
	if err != nil {
		return nil, fmt.Errorf("unexpected header %q: %w", strings.Join(header, ","), err)
	}

	var (
		meters  []domain.Meter
		rowErrs []error
		rowNum  = 1 // header
	)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: read: %w", rowNum, err))
			continue
		}

		m, err := parseMeterRow(h, row)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: %w", rowNum, err))
			continue
		}
		meters = append(meters, m)
	}

	if meters == nil {
		meters = []domain.Meter{}
	}
	return meters, errors.Join(rowErrs...)
}

func parseMeterRow(h meterHeader, row []string) (domain.Meter, error) {
	m := domain.Meter{
		ID:            h.get(row, colID),
		AccountNumber: h.get(row, colAccount),
		Label:         h.get(row, colLabel),
		Zone:          h.get(row, colZone),
		Type:          h.get(row, colType),
		ParentAccount: h.get(row, colParent),
		Readings:      make(map[domain.Month]float64, len(h.months)),
	}
	if m.AccountNumber == "" {
		return m, errors.New("empty account")
	}
	if m.ID == "" {
		m.ID = m.AccountNumber
	}

	level, err := domain.ParseLevel(h.get(row, colLevel))
	if err != nil {
		return m, err
	}
	m.Level = level

	switch raw := h.get(row, colBulk); raw {
	case "":
		m.BulkReaggregator = m.Level == domain.LevelL3 && strings.Contains(m.Type, bulkTypeTag)
	default:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return m, fmt.Errorf("parse bulk %q: %w", raw, err)
		}
		m.BulkReaggregator = b
	}

	for _, mc := range h.months {
		if mc.idx >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[mc.idx])
		if cell == "" {
			continue
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return m, fmt.Errorf("parse %s reading %q: %w", mc.month, cell, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return m, fmt.Errorf("invalid %s reading %v", mc.month, f)
		}
		m.Readings[mc.month] = f
	}
	return m, nil
}

// ParseZonesCSV parses the zone configuration.
//
// Expected header: code,name,bulk_account
func ParseZonesCSV(r io.Reader) ([]domain.Zone, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 3 ||
		strings.ToLower(strings.TrimSpace(header[0])) != "code" ||
		strings.ToLower(strings.TrimSpace(header[1])) != "name" ||
		strings.ToLower(strings.TrimSpace(header[2])) != "bulk_account" {
		return nil, fmt.Errorf("unexpected header %q (want %q)", strings.Join(header, ","), "code,name,bulk_account")
	}

	var (
		zones   []domain.Zone
		rowErrs []error
		rowNum  = 1
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: read: %w", rowNum, err))
			continue
		}
		if len(row) < 3 {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: expected 3 columns, got %d", rowNum, len(row)))
			continue
		}
		z := domain.Zone{
			Code:        strings.TrimSpace(row[0]),
			Name:        strings.TrimSpace(row[1]),
			BulkAccount: strings.TrimSpace(row[2]),
		}
		if z.Code == "" {
			rowErrs = append(rowErrs, fmt.Errorf("row %d: empty zone code", rowNum))
			continue
		}
		zones = append(zones, z)
	}
	return zones, errors.Join(rowErrs...)
}
