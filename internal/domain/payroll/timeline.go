package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Window is a closed date range [Start, End] priced at a single hourly rate.
type Window struct {
	Start time.Time
	End   time.Time
	Rate  decimal.Decimal
}

// WindowHours is a window together with the hours worked inside it.
type WindowHours struct {
	Window
	Hours decimal.Decimal
}

// SortEntries orders entries by effective date, oldest first.
func SortEntries(entries []RateEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].EffectiveFrom.Before(entries[j].EffectiveFrom)
	})
}

// EffectiveRate returns the rate of the latest entry with EffectiveFrom on or
// before date, or fallback when none qualifies. entries must be sorted.
func EffectiveRate(entries []RateEntry, fallback decimal.Decimal, date time.Time) decimal.Decimal {
	day := Day(date)
	rate := fallback
	for _, e := range entries {
		if e.EffectiveFrom.After(day) {
			break
		}
		rate = e.Rate
	}
	return rate
}

// PartitionMonth splits month into consecutive non-overlapping windows, each
// priced with the rate EffectiveRate resolves for every day inside it. The
// windows cover the whole month. entries must be sorted.
func PartitionMonth(month Month, entries []RateEntry, fallback decimal.Decimal) []Window {
	first, last := month.First(), month.Last()

	var relevant []RateEntry
	for _, e := range entries {
		if !e.EffectiveFrom.After(last) {
			relevant = append(relevant, e)
		}
	}

	if len(relevant) == 0 {
		return []Window{{Start: first, End: last, Rate: fallback}}
	}

	var windows []Window
	if relevant[0].EffectiveFrom.After(first) {
		windows = append(windows, Window{
			Start: first,
			End:   relevant[0].EffectiveFrom.AddDate(0, 0, -1),
			Rate:  fallback,
		})
	}

	for i, e := range relevant {
		start := e.EffectiveFrom
		if start.Before(first) {
			start = first
		}
		end := last
		if i+1 < len(relevant) {
			end = relevant[i+1].EffectiveFrom.AddDate(0, 0, -1)
		}
		if end.Before(start) {
			continue
		}
		windows = append(windows, Window{Start: start, End: end, Rate: e.Rate})
	}
	return windows
}
