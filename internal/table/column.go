// Package table turns a slice of records plus column and action descriptors
// into a searched, sorted, paginated view ready for the templates.
//
// Everything here is synchronous and allocation-fresh: inputs are never
// mutated and the same inputs always produce the same View.
package table

import "context"

// Record is a row that exposes its fields by name.
type Record interface {
	Field(key string) any
}

// Identifier is implemented by records that carry a stable id. Records that
// do not are keyed by their position in the input slice.
type Identifier interface {
	RowID() string
}

// Accessor resolves the value a column displays and searches on. It is either
// a named field or a pure function of the record.
type Accessor[T Record] struct {
	field string
	fn    func(T) any
}

// Field reads the named field through Record.Field.
func Field[T Record](name string) Accessor[T] {
	return Accessor[T]{field: name}
}

// Func computes the value from the record. fn must not mutate rec.
func Func[T Record](fn func(T) any) Accessor[T] {
	return Accessor[T]{fn: fn}
}

// IsZero reports whether neither a field name nor a function was set.
func (a Accessor[T]) IsZero() bool {
	return a.fn == nil && a.field == ""
}

func (a Accessor[T]) Resolve(rec T) any {
	if a.fn != nil {
		return a.fn(rec)
	}
	return rec.Field(a.field)
}

// Column describes one column. A zero Accessor reads the field named Key.
type Column[T Record] struct {
	Key        string
	Header     string
	Accessor   Accessor[T]
	Render     func(value any, rec T) Cell
	Sortable   bool
	Filterable bool
}

func (c Column[T]) resolve(rec T) any {
	if c.Accessor.IsZero() {
		return rec.Field(c.Key)
	}
	return c.Accessor.Resolve(rec)
}

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
	VariantSuccess     Variant = "success"
	VariantWarning     Variant = "warning"
)

// Action is a per-row operation. Show defaults to true and Disabled to false
// when nil.
type Action[T Record] struct {
	ID       string
	Label    string
	Icon     string
	Variant  Variant
	OnClick  func(ctx context.Context, rec T) error
	Disabled func(rec T) bool
	Show     func(rec T) bool
}

func (a Action[T]) visible(rec T) bool {
	return a.Show == nil || a.Show(rec)
}

func (a Action[T]) disabled(rec T) bool {
	return a.Disabled != nil && a.Disabled(rec)
}

// Invoke runs OnClick for rec. Hidden or disabled actions are a no-op.
func (a Action[T]) Invoke(ctx context.Context, rec T) error {
	if a.OnClick == nil || !a.visible(rec) || a.disabled(rec) {
		return nil
	}
	return a.OnClick(ctx, rec)
}

// FindAction returns the action with the given id.
func FindAction[T Record](actions []Action[T], id string) (Action[T], bool) {
	for _, a := range actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action[T]{}, false
}
