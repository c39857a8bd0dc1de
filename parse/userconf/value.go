package userconf

import (
	"iter"
	"slices"
)

// =========================
// Value Definitions
// =========================

type ValueKind string

var Kinds = struct {
	String ValueKind
	Record ValueKind
	Array  ValueKind
}{
	String: "string",
	Record: "record",
	Array:  "array",
}

// Value is one of String, *Record or *Array. The set is closed.
type Value interface {
	Kind() ValueKind
	Value() any
	isValue()
}

// -------- String --------

type String struct {
	Text string
}

func NewString(s string) String { return String{Text: s} }

func (String) Kind() ValueKind { return Kinds.String }

func (s String) Value() any { return s.Text }

func (String) isValue() {}

// -------- Record --------

// Field is a single key/value pair of a Record.
type Field struct {
	Key   string
	Value Value
}

// Record is an ordered mapping with unique keys. Insertion order is kept.
type Record struct {
	keys  []string
	items map[string]Value
}

// NewRecord builds a record from fields. A repeated key replaces the earlier
// value in place.
func NewRecord(fields ...Field) *Record {
	r := newRecord()
	for _, f := range fields {
		r.set(f.Key, f.Value)
	}
	return r
}

func newRecord() *Record {
	return &Record{items: make(map[string]Value)}
}

func (*Record) Kind() ValueKind { return Kinds.Record }

func (r *Record) Value() any { return r.Entries() }

func (*Record) isValue() {}

// set stores v under key and reports whether key already existed.
func (r *Record) set(key string, v Value) bool {
	_, exists := r.items[key]
	if !exists {
		r.keys = append(r.keys, key)
	}
	r.items[key] = v
	return exists
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.keys)
}

func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.items[key]
	return v, ok
}

func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Entries returns the fields in insertion order.
func (r *Record) Entries() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Field{Key: k, Value: r.items[k]})
	}
	return out
}

func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil {
			return
		}
		for _, k := range r.keys {
			if !yield(k, r.items[k]) {
				return
			}
		}
	}
}

// -------- Array --------

type Array struct {
	elems []Value
}

func NewArray(values ...Value) *Array {
	return &Array{elems: slices.Clone(values)}
}

func (*Array) Kind() ValueKind { return Kinds.Array }

func (a *Array) Value() any { return a.Values() }

func (*Array) isValue() {}

func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.elems)
}

func (a *Array) At(i int) Value {
	return a.elems[i]
}

func (a *Array) Values() []Value {
	if a == nil {
		return nil
	}
	return slices.Clone(a.elems)
}

func (a *Array) All() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if a == nil {
			return
		}
		for i, v := range a.elems {
			if !yield(i, v) {
				return
			}
		}
	}
}

// =========================
// Structural Equality
// =========================

// Equal reports whether a and b hold the same tree. Record key order is not
// significant; array order is.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x.Text == y.Text
	case *Record:
		y, ok := b.(*Record)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for k, xv := range x.All() {
			yv, ok := y.Get(k)
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, xv := range x.All() {
			if !Equal(xv, y.At(i)) {
				return false
			}
		}
		return true
	default:
		return a == nil && b == nil
	}
}
