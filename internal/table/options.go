package table

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize          = 10
	DefaultSearchPlaceholder = "Search..."
	DefaultEmptyMessage      = "No data available"

	// MobilePageSizeCap bounds the page size on narrow viewports.
	MobilePageSizeCap = 6
	// MobileBreakpoint is the viewport width in pixels below which cards are used.
	MobileBreakpoint = 768
	// SkeletonRows is the number of placeholder rows shown while loading.
	SkeletonRows = 5
)

// Options configure a table. Use DefaultOptions as the starting point since
// Searchable, Pagination and ShowPagination default to true.
type Options[T Record] struct {
	Actions           []Action[T]
	Loading           bool
	Searchable        bool
	SearchPlaceholder string
	Filterable        bool // affordance only
	Exportable        bool // affordance only
	Pagination        bool
	ShowPagination    bool
	PageSize          int
	Title             string
	Description       string
	EmptyMessage      string
}

func DefaultOptions[T Record]() Options[T] {
	return Options[T]{
		Searchable:        true,
		SearchPlaceholder: DefaultSearchPlaceholder,
		Pagination:        true,
		ShowPagination:    true,
		PageSize:          DefaultPageSize,
		EmptyMessage:      DefaultEmptyMessage,
	}
}

func (o Options[T]) withDefaults() Options[T] {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}
	if o.SearchPlaceholder == "" {
		o.SearchPlaceholder = DefaultSearchPlaceholder
	}
	if o.EmptyMessage == "" {
		o.EmptyMessage = DefaultEmptyMessage
	}
	return o
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// State is the per-view interaction state: search term, sort and page. It is
// carried in the request so no view state is shared between clients.
type State struct {
	Search  string
	SortKey string
	SortDir Direction
	Page    int
}

// Sorted reports whether a sort column has been chosen.
func (s State) Sorted() bool {
	return s.SortKey != ""
}

// ToggleSort applies a header click. A new key sorts ascending and the same
// key flips direction. There is no transition back to unsorted.
func (s State) ToggleSort(key string) State {
	if s.SortKey == key && s.SortDir == Asc {
		s.SortDir = Desc
	} else {
		s.SortKey = key
		s.SortDir = Asc
	}
	return s
}

// WithSearch replaces the search term. The page is kept and clamped by Build.
func (s State) WithSearch(term string) State {
	s.Search = term
	return s
}

func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

// Query encodes the state as URL query parameters.
func (s State) Query() string {
	var parts []string
	if s.Search != "" {
		parts = append(parts, "q="+url.QueryEscape(s.Search))
	}
	if s.SortKey != "" {
		parts = append(parts, "sort="+url.QueryEscape(s.SortKey), "dir="+string(s.SortDir))
	}
	if s.Page > 1 {
		parts = append(parts, "page="+strconv.Itoa(s.Page))
	}
	return strings.Join(parts, "&")
}

// Viewport classifies the client's screen.
type Viewport int

const (
	Desktop Viewport = iota
	Mobile
)

// ViewportForWidth classifies a viewport width in CSS pixels. Unknown widths
// (zero or negative) are treated as desktop.
func ViewportForWidth(width int) Viewport {
	if width > 0 && width < MobileBreakpoint {
		return Mobile
	}
	return Desktop
}

func ParseViewport(s string) Viewport {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mobile", "narrow", "sm":
		return Mobile
	}
	if w, err := strconv.Atoi(s); err == nil {
		return ViewportForWidth(w)
	}
	return Desktop
}

func (v Viewport) String() string {
	if v == Mobile {
		return "mobile"
	}
	return "desktop"
}

// EffectivePageSize applies the viewport cap to the requested page size.
func EffectivePageSize(pageSize int, vp Viewport) int {
	p := max(1, pageSize)
	if vp == Mobile {
		return min(p, MobilePageSizeCap)
	}
	return p
}
