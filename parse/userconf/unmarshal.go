package userconf

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// =========================
// Binding
// =========================

// Unmarshal parses data and stores the document in the struct or map pointed
// to by v.
//
// Struct fields are matched by the `uc` tag:
//   - `uc:"name"` reads key "name"
//   - `uc:"name,required"` fails when the key is missing
//   - `uc:"-"` skips the field
//
// Untagged fields match their name case-insensitively. Userconf only has
// strings, so numeric, boolean and duration fields are converted here with
// strconv and time.ParseDuration. Fields of type Value receive the raw tree.
//
// Example:
//
//	type Server struct {
//	    Host    string        `uc:"host"`
//	    Port    int           `uc:"port"`
//	    Timeout time.Duration `uc:"timeout"`
//	    Tags    []string      `uc:"tags"`
//	}
func Unmarshal(data []byte, v any) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	return UnmarshalValue(doc, v)
}

// UnmarshalValue binds an already parsed value into v.
func UnmarshalValue(val Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("userconf: unmarshal target must be a non-nil pointer")
	}
	return setField(rv.Elem(), val, "")
}

var (
	valueType           = reflect.TypeFor[Value]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func setField(field reflect.Value, val Value, path string) error {
	if field.Type() == valueType {
		field.Set(reflect.ValueOf(val))
		return nil
	}
	if val != nil && field.Kind() != reflect.Interface && reflect.TypeOf(val).AssignableTo(field.Type()) {
		field.Set(reflect.ValueOf(val))
		return nil
	}
	if field.Kind() != reflect.Pointer && field.CanAddr() && field.Addr().Type().Implements(textUnmarshalerType) {
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		if err := field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return fmt.Errorf("%s: %w", pathName(path), err)
		}
		return nil
	}
	if field.Type() == durationType {
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%s: %w", pathName(path), err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Bool:
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		b, err := parseBool(s)
		if err != nil {
			return fmt.Errorf("%s: %w", pathName(path), err)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		i, err := strconv.ParseInt(s, 0, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%s: cannot parse %q as int: %w", pathName(path), s, err)
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		u, err := strconv.ParseUint(s, 0, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%s: cannot parse %q as uint: %w", pathName(path), s, err)
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		s, err := expectString(val, path)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%s: cannot parse %q as float: %w", pathName(path), s, err)
		}
		field.SetFloat(f)
	case reflect.Slice:
		arr, ok := val.(*Array)
		if !ok {
			return typeMismatch(path, "array", val)
		}
		slice := reflect.MakeSlice(field.Type(), arr.Len(), arr.Len())
		for i, item := range arr.All() {
			if err := setField(slice.Index(i), item, joinPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		field.Set(slice)
	case reflect.Array:
		arr, ok := val.(*Array)
		if !ok {
			return typeMismatch(path, "array", val)
		}
		if arr.Len() != field.Len() {
			return fmt.Errorf("%s: expected %d items, found %d", pathName(path), field.Len(), arr.Len())
		}
		for i, item := range arr.All() {
			if err := setField(field.Index(i), item, joinPath(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	case reflect.Map:
		rec, ok := val.(*Record)
		if !ok {
			return typeMismatch(path, "record", val)
		}
		if field.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%s: map key type must be string, got %s", pathName(path), field.Type().Key())
		}
		m := reflect.MakeMapWithSize(field.Type(), rec.Len())
		for k, item := range rec.All() {
			elem := reflect.New(field.Type().Elem()).Elem()
			if err := setField(elem, item, joinPath(path, k)); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(field.Type().Key()), elem)
		}
		field.Set(m)
	case reflect.Struct:
		rec, ok := val.(*Record)
		if !ok {
			return typeMismatch(path, "record", val)
		}
		return unmarshalStruct(rec, field, path)
	case reflect.Pointer:
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), val, path); err != nil {
			return err
		}
		field.Set(ptr)
	case reflect.Interface:
		if field.Type().NumMethod() != 0 {
			return fmt.Errorf("%s: unsupported interface type %s", pathName(path), field.Type())
		}
		field.Set(reflect.ValueOf(ToUntyped(val)))
	default:
		return fmt.Errorf("%s: unsupported field type %s", pathName(path), field.Type())
	}
	return nil
}

func unmarshalStruct(rec *Record, v reflect.Value, path string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)
		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("uc")
		if tag == "-" {
			continue
		}
		name, opts := parseTag(tag)
		if name == "" && hasOption(opts, "required") {
			name = field.Name
		}

		var (
			item  Value
			found bool
			key   string
		)
		if name != "" {
			key = name
			item, found = rec.Get(name)
		} else {
			for k, candidate := range rec.All() {
				if strings.EqualFold(k, field.Name) {
					key, item, found = k, candidate, true
					break
				}
			}
		}
		if !found {
			if hasOption(opts, "required") {
				return fmt.Errorf("%s: required key not found", pathName(joinPath(path, name)))
			}
			continue
		}

		if err := setField(fieldValue, item, joinPath(path, key)); err != nil {
			return err
		}
	}
	return nil
}

func expectString(val Value, path string) (string, error) {
	s, ok := val.(String)
	if !ok {
		return "", typeMismatch(path, "string", val)
	}
	return s.Text, nil
}

func typeMismatch(path, want string, got Value) error {
	kind := ValueKind("nothing")
	if got != nil {
		kind = got.Kind()
	}
	return fmt.Errorf("%s: expected %s, found %s", pathName(path), want, kind)
}

func joinPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}

func pathName(path string) string {
	if path == "" {
		return "userconf: document"
	}
	return "userconf: " + path
}

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", s)
	}
}
