package table

import (
	"slices"
	"strconv"
	"strings"
)

type Layout string

const (
	LayoutTable Layout = "table"
	LayoutCards Layout = "cards"
)

type Header struct {
	Key      string
	Label    string
	Sortable bool
	Active   bool
	Dir      Direction
	// Next is the state a click on this header leads to.
	Next State
}

// ActionView is an action as rendered for one row.
type ActionView struct {
	ID       string
	Label    string
	Icon     string
	Variant  Variant
	Button   string // button style on the inline mobile row
	Disabled bool
}

type LabeledCell struct {
	Label string
	Cell  Cell
}

type Row[T Record] struct {
	ID      string
	Record  T
	Cells   []Cell
	Primary Cell
	Fields  []LabeledCell
	Actions []ActionView
}

// View is the fully computed table.
type View[T Record] struct {
	Title             string
	Description       string
	Searchable        bool
	SearchPlaceholder string
	Filterable        bool
	Exportable        bool
	Viewport          Viewport
	Layout            Layout

	Loading  bool
	Skeleton int

	Empty        bool
	EmptyMessage string

	Headers []Header
	Rows    []Row[T]

	State          State
	Total          int
	PageSize       int
	TotalPages     int
	ShowPagination bool
	HasActions     bool
}

// HasPrev and HasNext drive the pagination controls.
func (v View[T]) HasPrev() bool { return v.State.Page > 1 }
func (v View[T]) HasNext() bool { return v.State.Page < v.TotalPages }

// Pages returns up to five page numbers centred on the current page.
func (v View[T]) Pages() []int {
	const window = 5
	start := max(1, v.State.Page-window/2)
	end := min(v.TotalPages, start+window-1)
	start = max(1, end-window+1)
	pages := make([]int, 0, window)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Filter keeps the records where any column's resolved value contains term,
// case-insensitively. An empty term keeps everything.
func Filter[T Record](data []T, columns []Column[T], term string) []T {
	kept := filterIndexed(indexAll(data), columns, term)
	out := make([]T, len(kept))
	for i, it := range kept {
		out[i] = it.rec
	}
	return out
}

// Sort returns a stably sorted copy ordered by the raw field at key.
func Sort[T Record](data []T, key string, dir Direction) []T {
	out := slices.Clone(data)
	if key == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := Compare(a.Field(key), b.Field(key))
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// TotalPages is max(1, ceil(n/pageSize)).
func TotalPages(n, pageSize int) int {
	pageSize = max(1, pageSize)
	return max(1, (n+pageSize-1)/pageSize)
}

// ClampPage bounds page to [1, total]. Pages are only ever clamped down to
// the total; anything below 1 becomes 1.
func ClampPage(page, total int) int {
	if page > total {
		page = total
	}
	return max(1, page)
}

// Paginate returns the 1-indexed page of data.
func Paginate[T Record](data []T, page, pageSize int) []T {
	pageSize = max(1, pageSize)
	start := (page - 1) * pageSize
	if start < 0 || start >= len(data) {
		return []T{}
	}
	end := min(start+pageSize, len(data))
	return slices.Clone(data[start:end])
}

// Build computes the view for data under the given options, state and viewport.
func Build[T Record](data []T, columns []Column[T], opts Options[T], state State, vp Viewport) View[T] {
	opts = opts.withDefaults()

	v := View[T]{
		Title:             opts.Title,
		Description:       opts.Description,
		Searchable:        opts.Searchable,
		SearchPlaceholder: opts.SearchPlaceholder,
		Filterable:        opts.Filterable,
		Exportable:        opts.Exportable,
		Viewport:          vp,
		Layout:            LayoutTable,
		EmptyMessage:      opts.EmptyMessage,
		HasActions:        len(opts.Actions) > 0,
	}
	if vp == Mobile {
		v.Layout = LayoutCards
	}
	if !opts.Searchable {
		state.Search = ""
	}
	v.Headers = headers(columns, state)

	if opts.Loading {
		v.Loading = true
		v.Skeleton = SkeletonRows
		v.State = state
		v.TotalPages = 1
		return v
	}

	filtered := filterIndexed(indexAll(data), columns, state.Search)
	if state.Sorted() {
		slices.SortStableFunc(filtered, func(a, b indexed[T]) int {
			c := Compare(a.rec.Field(state.SortKey), b.rec.Field(state.SortKey))
			if state.SortDir == Desc {
				return -c
			}
			return c
		})
	}

	v.Total = len(filtered)
	visible := filtered
	if opts.Pagination {
		v.PageSize = EffectivePageSize(opts.PageSize, vp)
		v.TotalPages = TotalPages(len(filtered), v.PageSize)
		state.Page = ClampPage(state.Page, v.TotalPages)
		start := min((state.Page-1)*v.PageSize, len(filtered))
		end := min(start+v.PageSize, len(filtered))
		visible = filtered[start:end]
	} else {
		v.PageSize = len(filtered)
		v.TotalPages = 1
		state.Page = 1
	}
	v.State = state
	v.ShowPagination = opts.Pagination && opts.ShowPagination && v.TotalPages > 1

	v.Rows = make([]Row[T], 0, len(visible))
	for _, it := range visible {
		v.Rows = append(v.Rows, buildRow(it.rec, rowID(it.rec, it.pos), columns, opts.Actions, vp))
	}
	v.Empty = len(v.Rows) == 0
	return v
}

type indexed[T Record] struct {
	rec T
	pos int
}

func indexAll[T Record](data []T) []indexed[T] {
	out := make([]indexed[T], len(data))
	for i, rec := range data {
		out[i] = indexed[T]{rec: rec, pos: i}
	}
	return out
}

func filterIndexed[T Record](data []indexed[T], columns []Column[T], term string) []indexed[T] {
	out := make([]indexed[T], 0, len(data))
	needle := strings.ToLower(term)
	for _, it := range data {
		if needle == "" {
			out = append(out, it)
			continue
		}
		for _, col := range columns {
			if strings.Contains(strings.ToLower(Stringify(col.resolve(it.rec))), needle) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func rowID[T Record](rec T, pos int) string {
	if id, ok := any(rec).(Identifier); ok {
		if s := id.RowID(); s != "" {
			return s
		}
	}
	return "row-" + strconv.Itoa(pos)
}

func headers[T Record](columns []Column[T], state State) []Header {
	hs := make([]Header, len(columns))
	for i, col := range columns {
		h := Header{Key: col.Key, Label: col.Header, Sortable: col.Sortable}
		if col.Sortable {
			h.Active = state.SortKey == col.Key
			if h.Active {
				h.Dir = state.SortDir
			}
			h.Next = state.ToggleSort(col.Key)
		}
		hs[i] = h
	}
	return hs
}

func buildRow[T Record](rec T, id string, columns []Column[T], actions []Action[T], vp Viewport) Row[T] {
	row := Row[T]{ID: id, Record: rec, Cells: make([]Cell, len(columns))}
	for i, col := range columns {
		row.Cells[i] = RenderCell(col, rec)
	}
	if len(columns) > 0 {
		row.Primary = row.Cells[0]
		row.Fields = make([]LabeledCell, 0, len(columns)-1)
		for i := 1; i < len(columns); i++ {
			row.Fields = append(row.Fields, LabeledCell{Label: columns[i].Header, Cell: row.Cells[i]})
		}
	}
	for _, a := range actions {
		if !a.visible(rec) {
			continue
		}
		variant := a.Variant
		if variant == "" {
			variant = VariantDefault
		}
		row.Actions = append(row.Actions, ActionView{
			ID:       a.ID,
			Label:    a.Label,
			Icon:     a.Icon,
			Variant:  variant,
			Button:   mobileButton(variant),
			Disabled: a.disabled(rec),
		})
	}
	return row
}

func mobileButton(v Variant) string {
	switch v {
	case VariantDestructive:
		return "destructive"
	case VariantSuccess:
		return "secondary"
	}
	return "outline"
}
