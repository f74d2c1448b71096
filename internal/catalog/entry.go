// Package catalog holds the in-memory model of an OPDS catalog page:
// entries, pagination and the search description reference.
package catalog

import (
	"fmt"
	"strings"
)

// Record is a plain key/value item as handed over by a producer.
type Record map[string]any

// Field names an entry attribute recognized by the catalog.
type Field string

// Recognized entry fields.
const (
	FieldURN       Field = "urn"
	FieldURL       Field = "url"
	FieldTitle     Field = "title"
	FieldUpdated   Field = "updated"
	FieldDate      Field = "date"
	FieldSubject   Field = "subject"
	FieldPublisher Field = "publisher"
	FieldLanguage  Field = "language"
	FieldContent   Field = "content"
)

var fields = []Field{
	FieldURN,
	FieldURL,
	FieldTitle,
	FieldUpdated,
	FieldDate,
	FieldSubject,
	FieldPublisher,
	FieldLanguage,
	FieldContent,
}

// Fields returns the fixed enumeration of recognized fields, in display
// order. The slice is a copy.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

var fieldIndex = func() map[Field]int {
	m := make(map[Field]int, len(fields))
	for i, f := range fields {
		m[f] = i
	}
	return m
}()

// IsList reports whether the field holds an ordered list of strings.
func (f Field) IsList() bool {
	switch f {
	case FieldSubject, FieldPublisher, FieldLanguage:
		return true
	}
	return false
}

// Value is an entry field that may be absent. The zero Value is absent.
type Value struct {
	set    bool
	list   bool
	scalar string
	items  []string
}

// IsSet reports whether the field was supplied.
func (v Value) IsSet() bool { return v.set }

// IsList reports whether the value is a list.
func (v Value) IsList() bool { return v.list }

// String returns the scalar value, or the list joined with ", ".
// It returns "" for an absent value.
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.scalar
}

// Strings returns a copy of the list items. A scalar value yields a
// single-element slice; an absent value yields nil.
func (v Value) Strings() []string {
	if !v.set {
		return nil
	}
	if !v.list {
		return []string{v.scalar}
	}
	return append([]string(nil), v.items...)
}

// Entry is one catalog item. It is never modified after NewEntry returns.
type Entry struct {
	values []Value
}

// NewEntry builds an Entry from a producer record. Keys that are not
// recognized fields are dropped. List fields accept a single string or a
// sequence and are always stored as a sequence.
func NewEntry(record Record) (*Entry, error) {
	e := &Entry{values: make([]Value, len(fields))}
	for key, raw := range record {
		f := Field(key)
		i, ok := fieldIndex[f]
		if !ok || raw == nil {
			continue
		}
		if f.IsList() {
			items, err := toStrings(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidEntry, key, err)
			}
			if len(items) == 0 {
				continue
			}
			e.values[i] = Value{set: true, list: true, items: items}
			continue
		}
		s, err := toString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidEntry, key, err)
		}
		e.values[i] = Value{set: true, scalar: s}
	}
	if e.URN() == "" {
		return nil, fmt.Errorf("%w: missing urn", ErrInvalidEntry)
	}
	return e, nil
}

func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []string, []any:
		return "", fmt.Errorf("expected a single value, got %T", raw)
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

// Get returns the named field. Unknown names yield an absent Value.
func (e *Entry) Get(name string) Value {
	i, ok := fieldIndex[Field(name)]
	if !ok || i >= len(e.values) {
		return Value{}
	}
	return e.values[i]
}

// Value returns the given recognized field.
func (e *Entry) Value(f Field) Value {
	return e.Get(string(f))
}

func (e *Entry) URN() string     { return e.Value(FieldURN).String() }
func (e *Entry) URL() string     { return e.Value(FieldURL).String() }
func (e *Entry) Title() string   { return e.Value(FieldTitle).String() }
func (e *Entry) Updated() string { return e.Value(FieldUpdated).String() }

// Date returns the raw date string and whether it was supplied.
func (e *Entry) Date() (string, bool) {
	v := e.Value(FieldDate)
	return v.String(), v.IsSet()
}

// Content returns the content and whether it was supplied.
func (e *Entry) Content() (string, bool) {
	v := e.Value(FieldContent)
	return v.String(), v.IsSet()
}

func (e *Entry) Subjects() []string   { return e.Value(FieldSubject).Strings() }
func (e *Entry) Publishers() []string { return e.Value(FieldPublisher).Strings() }
func (e *Entry) Languages() []string  { return e.Value(FieldLanguage).Strings() }
