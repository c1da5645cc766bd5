// Package aggregate reduces log sheets into per-track, per-artist and
// per-company counts, daily time series and histograms.
//
// Every function is pure: inputs are never mutated, outputs are freshly
// allocated and deterministic for a given input.
package aggregate

import (
	"slices"
	"strconv"
	"time"
)

const (
	// TopN is how many entries the Top helpers keep.
	TopN = 10
	// TimelineDays is how many of the most recent days a timeline keeps.
	TimelineDays = 30
	// SongBins and CompanyBins are the bin counts of the distribution charts.
	SongBins    = 10
	CompanyBins = 8
	// UnknownCompany labels selections on sheets without a company in the
	// per-song report.
	UnknownCompany = "Unknown"
)

type (
	// SongCount is the selection tally of one work.
	SongCount struct {
		Key             string
		ID              int64
		Title           string
		ArtistName      string
		OwnerID         int64
		TotalSelections int
		Companies       map[string]int
		companyOrder    []string
	}

	NamedCount struct {
		Name  string
		Count int
	}

	CompanyCount struct {
		Company       string
		Sheets        int
		SelectedMusic int
	}

	TimeSeriesPoint struct {
		Date  string // YYYY-MM-DD
		Count int
	}

	HistogramBin struct {
		Range string
		Min   float64
		Max   float64
		Count int
	}

	// SongReport is the result of BySong.
	SongReport struct {
		TopTracks       []SongCount
		AllTracks       []SongCount
		CompanyData     []NamedCount
		TimelineData    []TimeSeriesPoint
		HistogramData   []HistogramBin
		TotalSelections int
	}

	// Share splits selections between one artist and everybody else.
	Share struct {
		ArtistTotal int
		OthersTotal int
	}
)

// CompanyList returns the per-company counts in first-seen order.
func (s SongCount) CompanyList() []NamedCount {
	out := make([]NamedCount, 0, len(s.companyOrder))
	for _, name := range s.companyOrder {
		out = append(out, NamedCount{Name: name, Count: s.Companies[name]})
	}
	return out
}

func (s Share) Total() int { return s.ArtistTotal + s.OthersTotal }

// Percent returns the artist's share of all selections, 0 when there are none.
func (s Share) Percent() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.ArtistTotal) * 100 / float64(s.Total())
}

// Top returns at most n leading items of an already sorted slice.
func Top[T any](items []T, n int) []T {
	return slices.Clone(items[:min(n, len(items))])
}

// dayKey is the calendar day of t in its own location. Zero times have no day.
func dayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// counter tallies string keys while remembering first-seen order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

func (c *counter) list() []NamedCount {
	out := make([]NamedCount, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, NamedCount{Name: k, Count: c.counts[k]})
	}
	return out
}

// sortedDesc returns the list stably sorted by count, highest first.
func sortedDesc(items []NamedCount) []NamedCount {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b NamedCount) int { return b.Count - a.Count })
	return out
}

// timeline sorts day counts ascending and keeps the most recent days.
func (c *counter) timeline(days int) []TimeSeriesPoint {
	keys := slices.Clone(c.order)
	slices.Sort(keys)
	if len(keys) > days {
		keys = keys[len(keys)-days:]
	}
	out := make([]TimeSeriesPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, TimeSeriesPoint{Date: k, Count: c.counts[k]})
	}
	return out
}

func itoa(n int) string { return strconv.Itoa(n) }
