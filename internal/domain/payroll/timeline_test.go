package payroll

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(rate string, from time.Time) RateEntry {
	return RateEntry{EmployeeID: "emp-1", Rate: decimal.RequireFromString(rate), EffectiveFrom: from}
}

func TestEffectiveRate(t *testing.T) {
	fallback := decimal.RequireFromString("50")
	entries := []RateEntry{
		entry("100", date(2026, 3, 1)),
		entry("200", date(2026, 3, 15)),
	}

	tests := []struct {
		name string
		on   time.Time
		want string
	}{
		{"before any entry falls back", date(2026, 2, 28), "50"},
		{"on first entry", date(2026, 3, 1), "100"},
		{"day before change", date(2026, 3, 14), "100"},
		{"on change", date(2026, 3, 15), "200"},
		{"open ended", date(2027, 1, 1), "200"},
		{"time of day ignored", time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC), "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRate(entries, fallback, tt.on)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	assert.True(t, fallback.Equal(EffectiveRate(nil, fallback, date(2026, 3, 1))))
}

func TestPartitionMonth_NoEntries(t *testing.T) {
	month := NewMonth(2026, time.March)
	windows := PartitionMonth(month, nil, decimal.RequireFromString("100"))

	require.Len(t, windows, 1)
	assert.Equal(t, month.First(), windows[0].Start)
	assert.Equal(t, month.Last(), windows[0].End)
	assert.Equal(t, "100", windows[0].Rate.String())
}

func TestPartitionMonth_TwoEntriesInMonth(t *testing.T) {
	month := NewMonth(2026, time.March)
	windows := PartitionMonth(month, []RateEntry{
		entry("100", date(2026, 3, 1)),
		entry("200", date(2026, 3, 15)),
	}, decimal.Zero)

	require.Len(t, windows, 2)
	assert.Equal(t, date(2026, 3, 1), windows[0].Start)
	assert.Equal(t, date(2026, 3, 14), windows[0].End)
	assert.Equal(t, "100", windows[0].Rate.String())
	assert.Equal(t, date(2026, 3, 15), windows[1].Start)
	assert.Equal(t, date(2026, 3, 31), windows[1].End)
	assert.Equal(t, "200", windows[1].Rate.String())
}

func TestPartitionMonth_EntriesBeforeAndAfter(t *testing.T) {
	month := NewMonth(2026, time.March)
	windows := PartitionMonth(month, []RateEntry{
		entry("80", date(2025, 12, 1)),
		entry("90", date(2026, 2, 10)),
		entry("120", date(2026, 3, 10)),
		entry("500", date(2026, 4, 1)),
	}, decimal.Zero)

	require.Len(t, windows, 2)
	assert.Equal(t, date(2026, 3, 1), windows[0].Start)
	assert.Equal(t, date(2026, 3, 9), windows[0].End)
	assert.Equal(t, "90", windows[0].Rate.String())
	assert.Equal(t, date(2026, 3, 10), windows[1].Start)
	assert.Equal(t, date(2026, 3, 31), windows[1].End)
	assert.Equal(t, "120", windows[1].Rate.String())
}

func TestPartitionMonth_LeadingDaysUseFallback(t *testing.T) {
	month := NewMonth(2026, time.March)
	windows := PartitionMonth(month, []RateEntry{entry("200", date(2026, 3, 15))}, decimal.RequireFromString("100"))

	require.Len(t, windows, 2)
	assert.Equal(t, date(2026, 3, 1), windows[0].Start)
	assert.Equal(t, date(2026, 3, 14), windows[0].End)
	assert.Equal(t, "100", windows[0].Rate.String())
	assert.Equal(t, date(2026, 3, 15), windows[1].Start)
}

func TestPartitionMonth_CoversMonthAndMatchesEffectiveRate(t *testing.T) {
	month := NewMonth(2026, time.February)
	fallback := decimal.RequireFromString("10")
	entries := []RateEntry{
		entry("20", date(2026, 2, 3)),
		entry("30", date(2026, 2, 4)),
		entry("40", date(2026, 2, 28)),
	}
	windows := PartitionMonth(month, entries, fallback)

	day := month.First()
	for _, w := range windows {
		require.Equal(t, day, w.Start, "windows must be contiguous")
		for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
			assert.True(t, EffectiveRate(entries, fallback, d).Equal(w.Rate), "rate mismatch on %s", d)
		}
		day = w.End.AddDate(0, 0, 1)
	}
	assert.Equal(t, month.Last().AddDate(0, 0, 1), day)
}

func TestSortEntries(t *testing.T) {
	entries := []RateEntry{
		entry("3", date(2026, 3, 3)),
		entry("1", date(2026, 3, 1)),
		entry("2", date(2026, 3, 2)),
	}
	SortEntries(entries)
	assert.Equal(t, "1", entries[0].Rate.String())
	assert.Equal(t, "2", entries[1].Rate.String())
	assert.Equal(t, "3", entries[2].Rate.String())
}
