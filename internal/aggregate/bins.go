package aggregate

import (
	"fmt"
	"math"
)

type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// BinValues buckets values into binCount equal-width bins spanning
// [min, max]. A zero bin width is treated as 1 so identical values land in
// the first bin; the maximum lands in the last bin. NaN and infinite values
// are ignored.
func BinValues[N Number](values []N, binCount int) []HistogramBin {
	if binCount <= 0 {
		return []HistogramBin{}
	}

	finite := make([]float64, 0, len(values))
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		finite = append(finite, f)
	}
	if len(finite) == 0 {
		return []HistogramBin{}
	}

	lo, hi := finite[0], finite[0]
	for _, f := range finite[1:] {
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	size := (hi - lo) / float64(binCount)
	if size == 0 || math.IsInf(size, 0) {
		size = 1
	}

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		from := lo + float64(i)*size
		to := lo + float64(i+1)*size
		bins[i] = HistogramBin{
			Range: fmt.Sprintf("%d-%d", int64(math.Round(from)), int64(math.Round(to))),
			Min:   from,
			Max:   to,
		}
	}
	for _, f := range finite {
		i := int(math.Floor((f - lo) / size))
		bins[max(0, min(i, binCount-1))].Count++
	}
	return bins
}

// AutoBinCount picks a bin count for n values: ceil(n/5) bounded to [6, 12].
func AutoBinCount(n int) int {
	return min(12, max(6, (n+4)/5))
}
