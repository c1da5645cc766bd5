package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"royalties/internal/aggregate"
	"royalties/internal/core"
	applog "royalties/internal/log"
	"royalties/internal/table"
)

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	"money":    func(m core.Money) string { return m.String() },
	"date":     formatDate,
	"percent":  func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) + "%" },
	"tableURL": tableURL,
	"barWidth": barWidth,
	"binMax":   binMax,
	"add":      func(a, b int) int { return a + b },
	"sub":      func(a, b int) int { return a - b },
	"pair":     func(a, b any) []any { return []any{a, b} },
	"seq":      seq,
}

// seq returns 0..n-1 for ranging a fixed number of times.
func seq(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

// sanitizeInput strips control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(stripControl(s))
}

// stripControl removes control characters except tab, newline and carriage
// return. Whitespace is kept, so a search term matches literally.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// logError logs a failed request with the request-scoped logger.
func logError(r *http.Request, msg string, err error, operation string, fields applog.LogFields) {
	if fields == nil {
		fields = applog.NewFields()
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, applog.ComponentHTTP, operation, fields)
}

// ParseRowID converts a table row id back to a record id. Synthetic ids are
// rendered as "s<n>".
func ParseRowID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "s")
	if neg {
		s = s[1:]
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid row id %q", s)
	}
	if neg {
		return -id, nil
	}
	return id, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(table.DateLayout)
}

// tableURL is the partial URL for a table in the given state.
func tableURL(endpoint string, s table.State, vp table.Viewport) string {
	q := s.Query()
	if vp == table.Mobile {
		if q != "" {
			q += "&"
		}
		q += "viewport=mobile"
	}
	if q == "" {
		return endpoint
	}
	if strings.Contains(endpoint, "?") {
		return endpoint + "&" + q
	}
	return endpoint + "?" + q
}

// barWidth scales n against max to a percentage, keeping non-zero values
// visible.
func barWidth(n, max int) int {
	if max <= 0 || n <= 0 {
		return 0
	}
	width := (n*100 + max/2) / max
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func binMax(bins []aggregate.HistogramBin) int {
	m := 0
	for _, b := range bins {
		m = max(m, b.Count)
	}
	return m
}
