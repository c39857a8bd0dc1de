package userconf

import (
	"strconv"
	"strings"
)

// =========================
// Safe Access Helpers
// =========================

// Get walks path from root. Record segments are keys; array segments are
// decimal indexes.
func Get(root *Record, path ...string) (Value, bool) {
	var cur Value = root
	for _, p := range path {
		switch c := cur.(type) {
		case *Record:
			v, ok := c.Get(p)
			if !ok {
				return nil, false
			}
			cur = v
		case *Array:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= c.Len() {
				return nil, false
			}
			cur = c.At(i)
		default:
			return nil, false
		}
	}
	return cur, true
}

// Lookup is Get with a dotted path such as "server.listen.0". A segment in
// double quotes is taken literally, so `hosts."example.com".port` reaches a key
// containing dots. An empty path returns root.
func Lookup(root *Record, dotted string) (Value, bool) {
	if dotted == "" {
		return root, true
	}
	path, ok := SplitPath(dotted)
	if !ok {
		return nil, false
	}
	return Get(root, path...)
}

// SplitPath splits a dotted path into segments. It reports false for an
// unclosed quote or a quoted segment not followed by a dot.
func SplitPath(dotted string) ([]string, bool) {
	var path []string
	for {
		var seg string
		if strings.HasPrefix(dotted, `"`) {
			end := strings.IndexByte(dotted[1:], '"')
			if end < 0 {
				return nil, false
			}
			seg, dotted = dotted[1:end+1], dotted[end+2:]
			if dotted != "" && dotted[0] != '.' {
				return nil, false
			}
		} else {
			i := strings.IndexByte(dotted, '.')
			if i < 0 {
				i = len(dotted)
			}
			seg, dotted = dotted[:i], dotted[i:]
		}
		path = append(path, seg)
		if dotted == "" {
			return path, true
		}
		dotted = dotted[1:]
	}
}

func GetString(root *Record, path ...string) (string, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return s.Text, ok
}

func GetRecord(root *Record, path ...string) (*Record, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	r, ok := v.(*Record)
	return r, ok
}

func GetArray(root *Record, path ...string) (*Array, bool) {
	v, ok := Get(root, path...)
	if !ok {
		return nil, false
	}
	a, ok := v.(*Array)
	return a, ok
}

// ToUntyped converts a value to string, []any and map[string]any. Record key
// order is lost.
func ToUntyped(v Value) any {
	switch x := v.(type) {
	case String:
		return x.Text
	case *Array:
		out := make([]any, 0, x.Len())
		for _, child := range x.All() {
			out = append(out, ToUntyped(child))
		}
		return out
	case *Record:
		m := make(map[string]any, x.Len())
		for k, child := range x.All() {
			m[k] = ToUntyped(child)
		}
		return m
	default:
		return nil
	}
}

func MustString(v Value) string {
	return v.(String).Text
}
