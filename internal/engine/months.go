// Package engine implements metering aggregation and loss reconciliation.
//
// Every function is a pure transformation of its arguments: no I/O, no
// package-level mutable state, and inputs are never modified. Missing
// readings count as zero and zero denominators yield zero percentages.
package engine

import (
	"sort"

	"github.com/muscatbay/meterbalance/internal/domain"
)

// OrderedMonths returns every month referenced by any meter's readings,
// deduplicated and sorted chronologically.
func OrderedMonths(meters []domain.Meter) []domain.Month {
	seen := make(map[domain.Month]struct{})
	out := make([]domain.Month, 0, 24)
	for _, m := range meters {
		for month := range m.Readings {
			if _, ok := seen[month]; ok {
				continue
			}
			seen[month] = struct{}{}
			out = append(out, month)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Range is an inclusive pair of indexes into an ordered month sequence.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start + 1 }

// Resolve locates start and end in ordered. When either endpoint is
// missing, or start falls after end, the range covers the whole index.
// ok reports whether the requested endpoints were used as given.
func Resolve(ordered []domain.Month, start, end domain.Month) (r Range, ok bool) {
	full := Range{Start: 0, End: len(ordered) - 1}
	si, ei := indexOf(ordered, start), indexOf(ordered, end)
	if si < 0 || ei < 0 || si > ei {
		return full, false
	}
	return Range{Start: si, End: ei}, true
}

// Slice returns the inclusive run between start and end, degrading to the
// full sequence when the endpoints cannot be resolved.
func Slice(ordered []domain.Month, start, end domain.Month) []domain.Month {
	r, _ := Resolve(ordered, start, end)
	return Months(ordered, r)
}

// Months returns the months covered by r. Out-of-bounds ranges yield nil.
func Months(ordered []domain.Month, r Range) []domain.Month {
	if r.Start < 0 || r.End >= len(ordered) || r.Start > r.End {
		return nil
	}
	out := make([]domain.Month, r.Len())
	copy(out, ordered[r.Start:r.End+1])
	return out
}

// PreviousPeriod returns the equal-length run immediately preceding r,
// truncated at the start of the index. It reports false when r already
// starts at the first month.
func PreviousPeriod(r Range) (Range, bool) {
	if r.Start <= 0 {
		return Range{}, false
	}
	return Range{Start: max(0, r.Start-r.Len()), End: r.Start - 1}, true
}

func indexOf(ordered []domain.Month, m domain.Month) int {
	if m.IsZero() {
		return -1
	}
	for i, o := range ordered {
		if o == m {
			return i
		}
	}
	return -1
}
