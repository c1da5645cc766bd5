package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinValuesIdentical(t *testing.T) {
	bins := BinValues([]int{5, 5, 5}, 10)
	require.Len(t, bins, 10)
	require.Equal(t, 3, bins[0].Count)
	for _, b := range bins[1:] {
		require.Zero(t, b.Count)
	}
}

func TestBinValuesSpread(t *testing.T) {
	bins := BinValues([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, 5)
	require.Len(t, bins, 5)
	require.Equal(t, "0-2", bins[0].Range)
	require.Equal(t, "8-10", bins[4].Range)
	counts := make([]int, len(bins))
	total := 0
	for i, b := range bins {
		counts[i] = b.Count
		total += b.Count
	}
	require.Equal(t, []int{2, 2, 2, 2, 2}, counts)
	require.Equal(t, 10, total)
}

func TestBinValuesMaxInLastBin(t *testing.T) {
	bins := BinValues([]int{1, 4}, 3)
	require.Equal(t, 1, bins[0].Count)
	require.Equal(t, 1, bins[2].Count)
}

func TestBinValuesEmpty(t *testing.T) {
	require.Empty(t, BinValues([]int{}, 10))
	require.Empty(t, BinValues([]int{1, 2}, 0))
}

func TestBinValuesIgnoresNonFinite(t *testing.T) {
	bins := BinValues([]float64{1, 2, math.Inf(1), math.NaN(), math.Inf(-1)}, 4)
	require.Len(t, bins, 4)
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	require.Equal(t, 2, total)
	require.Equal(t, 1, bins[0].Count)
	require.Equal(t, 1, bins[3].Count)

	require.Empty(t, BinValues([]float64{math.NaN()}, 4))
	require.Len(t, BinValues([]float64{-math.MaxFloat64, math.MaxFloat64}, 4), 4)
}

func TestAutoBinCount(t *testing.T) {
	cases := map[int]int{0: 6, 1: 6, 30: 6, 31: 7, 50: 10, 60: 12, 500: 12}
	for n, want := range cases {
		require.Equal(t, want, AutoBinCount(n), "n=%d", n)
	}
}

func TestDistributions(t *testing.T) {
	songs := []SongCount{{TotalSelections: 1}, {TotalSelections: 9}, {TotalSelections: 5}}
	bins := SongDistribution(songs, SongBins)
	require.Len(t, bins, SongBins)
	sum := 0
	for _, b := range bins {
		sum += b.Count
	}
	require.Equal(t, 3, sum)

	require.Len(t, CompanyDistribution([]NamedCount{{"a", 2}, {"b", 3}}, CompanyBins), CompanyBins)
}
