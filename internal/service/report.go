package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/muscatbay/meterbalance/internal/domain"
	"github.com/muscatbay/meterbalance/internal/engine"
	"github.com/muscatbay/meterbalance/internal/repo"
)

var ErrInvalidRequest = errors.New("invalid report request")

// ErrUnknownUtility is returned for utilities outside domain.Utilities.
var ErrUnknownUtility = domain.ErrUnknownUtility

// MaxTopN is a guardrail against unbounded ranking lists.
const MaxTopN = 500

type Options struct {
	// DefaultTopN applies when a request leaves TopN at 0. Zero ranks every meter.
	DefaultTopN      int
	ElectricityRate  decimal.Decimal
	TreatmentTariffs engine.TreatmentTariffs
}

func DefaultOptions() Options {
	return Options{
		DefaultTopN:      10,
		ElectricityRate:  engine.DefaultElectricityRate,
		TreatmentTariffs: engine.DefaultTreatmentTariffs(),
	}
}

// ReportRequest selects a utility, a month range and optional filters.
// An empty Start or End defaults to the first or last indexed month.
type ReportRequest struct {
	Utility string
	Start   string
	End     string
	Zone    string
	Type    string
	TopN    int
}

type Period struct {
	Start  domain.Month   `json:"start"`
	End    domain.Month   `json:"end"`
	Months []domain.Month `json:"months"`
}

type Filter struct {
	Zone string `json:"zone,omitempty"`
	Type string `json:"type,omitempty"`
}

// Report is the full dashboard payload for one utility and range. Sections
// that do not apply to the utility are nil.
type Report struct {
	Utility domain.Utility `json:"utility"`
	Unit    string         `json:"unit"`
	Period  Period         `json:"period"`
	// Fallback is true when the requested range could not be resolved and
	// the whole month index was used instead.
	Fallback   bool    `json:"fallback"`
	Previous   *Period `json:"previous,omitempty"`
	Filter     Filter  `json:"filter"`
	MeterCount int     `json:"meterCount"`

	Consumption domain.Aggregate             `json:"consumption"`
	Trends      map[string]engine.TrendResult `json:"trends,omitempty"`

	Balance     *engine.Balance          `json:"balance,omitempty"`
	Rating      engine.Rating            `json:"rating,omitempty"`
	MeterCounts []engine.LevelCount      `json:"meterCounts,omitempty"`
	Monthly     []engine.MonthlyBalance  `json:"monthly,omitempty"`
	Zones       []engine.ZoneBalance     `json:"zones,omitempty"`
	Buildings   []engine.BuildingBalance `json:"buildings,omitempty"`

	Fleet     *engine.FleetSummary     `json:"fleet,omitempty"`
	Treatment *engine.TreatmentSummary `json:"treatment,omitempty"`

	ByType       []engine.Row `json:"byType"`
	ByZone       []engine.Row `json:"byZone"`
	ByCategory   []engine.Row `json:"byCategory,omitempty"`
	TopConsumers []engine.Row `json:"topConsumers"`
}

type ReportService struct {
	repo repo.CatalogRepository
	opts Options
}

func NewReportService(r repo.CatalogRepository, opts Options) *ReportService {
	return &ReportService{repo: r, opts: opts}
}

// Months returns the utility's ordered month index.
func (s *ReportService) Months(ctx context.Context, utility string) ([]domain.Month, error) {
	c, err := s.load(ctx, utility)
	if err != nil {
		return nil, err
	}
	return engine.OrderedMonths(c.Meters), nil
}

func (s *ReportService) Report(ctx context.Context, req ReportRequest) (Report, error) {
	start, end, err := parseBounds(req.Start, req.End)
	if err != nil {
		return Report{}, err
	}
	topN, err := s.topN(req.TopN)
	if err != nil {
		return Report{}, err
	}
	c, err := s.load(ctx, req.Utility)
	if err != nil {
		return Report{}, err
	}

	// The range is resolved over the whole catalog so filters cannot shift it.
	ordered := engine.OrderedMonths(c.Meters)
	start, end = openBounds(ordered, start, end)
	r, exact := engine.Resolve(ordered, start, end)
	months := engine.Months(ordered, r)

	selected := engine.OfType(engine.InZone(c.Meters, req.Zone), req.Type)
	consumers := consumptionMeters(c.Utility, selected)

	rep := Report{
		Utility:      c.Utility,
		Unit:         c.Utility.Unit(),
		Period:       period(months),
		Fallback:     !exact && !(start.IsZero() && end.IsZero()),
		Filter:       Filter{Zone: req.Zone, Type: req.Type},
		MeterCount:   len(selected),
		Consumption:  engine.Aggregate(consumers, months),
		ByType:       engine.ByCategory(consumers, months, engine.ByType),
		ByZone:       engine.ByCategory(consumers, months, engine.ByZone),
		TopConsumers: engine.TopConsumers(consumers, months, topN),
	}

	var prevMonths []domain.Month
	if prev, ok := engine.PreviousPeriod(r); ok && len(months) > 0 {
		prevMonths = engine.Months(ordered, prev)
		p := period(prevMonths)
		rep.Previous = &p
		rep.Trends = map[string]engine.TrendResult{
			"consumption": engine.Trend(rep.Consumption.Total, engine.Sum(consumers, prevMonths)),
		}
	}

	switch c.Utility {
	case domain.Water:
		s.water(&rep, c, months, prevMonths, req.Zone)
	case domain.Electricity:
		s.electricity(&rep, selected, months, prevMonths)
	case domain.STP:
		s.treatment(&rep, selected, months, prevMonths)
	}
	return rep, nil
}

func (s *ReportService) water(rep *Report, c domain.Catalog, months, prevMonths []domain.Month, zone string) {
	b := engine.ComputeBalance(c.Meters, months)
	rep.Balance = &b
	rep.Rating = engine.Rate(b.LossPct)
	rep.MeterCounts = engine.CountByLevel(c.Meters)
	rep.Monthly = engine.MonthlyBalances(c.Meters, months)
	rep.ByCategory = engine.ByCategory(consumptionMeters(c.Utility, engine.InZone(c.Meters, zone)), months,
		engine.ByTypeCategory(engine.WaterTypeCategories))

	if zone != "" {
		rep.Zones = []engine.ZoneBalance{engine.ComputeZoneBalance(c, zone, months)}
	} else {
		rep.Zones = engine.AllZones(c, months)
	}
	for _, bb := range engine.AllBuildings(c, months) {
		if zone == "" || bb.Zone == zone {
			rep.Buildings = append(rep.Buildings, bb)
		}
	}

	if rep.Trends != nil {
		pb := engine.ComputeBalance(c.Meters, prevMonths)
		rep.Trends["a1"] = engine.Trend(b.A1, pb.A1)
		rep.Trends["a2"] = engine.Trend(b.A2, pb.A2)
		rep.Trends["a3"] = engine.Trend(b.A3, pb.A3)
		rep.Trends["efficiency"] = engine.Trend(b.EfficiencyPct, pb.EfficiencyPct)
		rep.Trends["stage1Loss"] = engine.Trend(b.Stage1Loss, pb.Stage1Loss)
		rep.Trends["stage2Loss"] = engine.Trend(b.Stage2Loss, pb.Stage2Loss)
		// Losses can be negative; against a negative previous loss the direction is inverted.
		rep.Trends["totalLoss"] = engine.Trend(b.TotalLoss, pb.TotalLoss)
	}
}

func (s *ReportService) electricity(rep *Report, selected []domain.Meter, months, prevMonths []domain.Month) {
	f := engine.Fleet(selected, months, s.opts.ElectricityRate)
	rep.Fleet = &f
	if rep.Trends != nil {
		pf := engine.Fleet(selected, prevMonths, s.opts.ElectricityRate)
		rep.Trends["cost"] = engine.Trend(f.Cost.InexactFloat64(), pf.Cost.InexactFloat64())
	}
}

func (s *ReportService) treatment(rep *Report, selected []domain.Meter, months, prevMonths []domain.Month) {
	t := engine.Treatment(selected, months, s.opts.TreatmentTariffs)
	rep.Treatment = &t
	if rep.Trends != nil {
		pt := engine.Treatment(selected, prevMonths, s.opts.TreatmentTariffs)
		rep.Trends["inlet"] = engine.Trend(t.Inlet, pt.Inlet)
		rep.Trends["tse"] = engine.Trend(t.TSE, pt.TSE)
		rep.Trends["tankerTrips"] = engine.Trend(t.TankerTrips, pt.TankerTrips)
		rep.Trends["efficiency"] = engine.Trend(t.EfficiencyPct, pt.EfficiencyPct)
		rep.Trends["income"] = engine.Trend(t.Income.InexactFloat64(), pt.Income.InexactFloat64())
		rep.Trends["savings"] = engine.Trend(t.Savings.InexactFloat64(), pt.Savings.InexactFloat64())
		rep.Trends["economicImpact"] = engine.Trend(t.EconomicImpact.InexactFloat64(), pt.EconomicImpact.InexactFloat64())
	}
}

func (s *ReportService) load(ctx context.Context, utility string) (domain.Catalog, error) {
	u, err := domain.ParseUtility(utility)
	if err != nil {
		return domain.Catalog{}, err
	}
	c, err := s.repo.Load(ctx, u)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load %s catalog: %w", u, err)
	}
	// A superseded request must not publish a result.
	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

func (s *ReportService) topN(n int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: top must be >= 0", ErrInvalidRequest)
	case n > MaxTopN:
		return 0, fmt.Errorf("%w: top too large (max %d)", ErrInvalidRequest, MaxTopN)
	case n == 0:
		return s.opts.DefaultTopN, nil
	}
	return n, nil
}

func parseBounds(start, end string) (domain.Month, domain.Month, error) {
	var s, e domain.Month
	var err error
	if strings.TrimSpace(start) != "" {
		if s, err = domain.ParseMonth(start); err != nil {
			return s, e, fmt.Errorf("%w: start: %w", ErrInvalidRequest, err)
		}
	}
	if strings.TrimSpace(end) != "" {
		if e, err = domain.ParseMonth(end); err != nil {
			return s, e, fmt.Errorf("%w: end: %w", ErrInvalidRequest, err)
		}
	}
	return s, e, nil
}

// openBounds fills an omitted bound with the first or last indexed month, so
// a one-sided range runs to the edge of the index.
func openBounds(ordered []domain.Month, start, end domain.Month) (domain.Month, domain.Month) {
	if len(ordered) == 0 || start.IsZero() == end.IsZero() {
		return start, end
	}
	if start.IsZero() {
		return ordered[0], end
	}
	return start, ordered[len(ordered)-1]
}

// consumptionMeters picks the meters whose readings are end consumption.
// Water hierarchy levels would double count; the plant's trip and effluent
// series are not inflow.
func consumptionMeters(u domain.Utility, meters []domain.Meter) []domain.Meter {
	switch u {
	case domain.Water:
		return engine.Individual(meters)
	case domain.STP:
		return engine.OfType(meters, engine.TypeInletSewage)
	default:
		return meters
	}
}

func period(months []domain.Month) Period {
	p := Period{Months: months}
	if len(months) > 0 {
		p.Start, p.End = months[0], months[len(months)-1]
	}
	return p
}
