package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Neutral Direction = "neutral"
)

// trendDeadZonePct is the smallest absolute change, in percent, reported as a direction.
const trendDeadZonePct = 0.5

// TrendResult describes the change from a previous period to the current one.
type TrendResult struct {
	Direction    Direction `json:"direction"`
	MagnitudePct string    `json:"magnitudePct"`
}

var flat = TrendResult{Direction: Neutral, MagnitudePct: "0%"}

// Trend classifies current against previous. A zero previous value cannot
// anchor a percentage and is reported as neutral.
func Trend(current, previous float64) TrendResult {
	if previous == 0 {
		return flat
	}
	change := (current - previous) / previous * 100
	if math.IsNaN(change) || math.Abs(change) < trendDeadZonePct {
		return flat
	}
	dir := Down
	if change > 0 {
		dir = Up
	}
	return TrendResult{
		Direction:    dir,
		MagnitudePct: decimal.NewFromFloat(math.Abs(change)).StringFixed(1) + "%",
	}
}

// ChangePct is the raw percentage change, zero-guarded on previous.
func ChangePct(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
