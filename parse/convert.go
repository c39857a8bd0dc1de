// Package parse converts Userconf documents to and from other configuration
// formats.
//
// Export (ToJSON, ToYAML, ToTOML) keeps every scalar a string; Userconf has no
// other scalar type. Import (FromJSON, FromYAML, FromTOML) renders numbers,
// booleans and datetimes in their canonical text form and null as "".
// Record key order is kept wherever the source library exposes it.
package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dzjyyds666/userconf/parse/userconf"
	"gopkg.in/yaml.v3"
)

type Format string

var Formats = struct {
	Userconf Format
	JSON     Format
	YAML     Format
	TOML     Format
}{
	Userconf: "uc",
	JSON:     "json",
	YAML:     "yaml",
	TOML:     "toml",
}

var ErrUnknownFormat = errors.New("unknown format")

var errTooDeep = fmt.Errorf("nesting exceeds %d levels", userconf.DefaultMaxDepth)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uc", "userconf":
		return Formats.Userconf, nil
	case "json":
		return Formats.JSON, nil
	case "yaml", "yml":
		return Formats.YAML, nil
	case "toml":
		return Formats.TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// =========================
// Export
// =========================

func Convert(doc *userconf.Record, f Format) ([]byte, error) {
	switch f {
	case Formats.Userconf:
		return userconf.Marshal(doc)
	case Formats.JSON:
		return ToJSON(doc, "  ")
	case Formats.YAML:
		return ToYAML(doc)
	case Formats.TOML:
		return ToTOML(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func ToJSON(doc *userconf.Record, indent string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if indent == "" {
		out, err = json.Marshal(doc)
	} else {
		out, err = json.MarshalIndent(doc, "", indent)
	}
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func ToYAML(doc *userconf.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(doc)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlNode(v userconf.Value) *yaml.Node {
	switch x := v.(type) {
	case userconf.String:
		// The explicit tag keeps values such as "true" or "8080" strings.
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.Text}
	case *userconf.Record:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, child := range x.All() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(child))
		}
		return n
	case *userconf.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, child := range x.All() {
			n.Content = append(n.Content, yamlNode(child))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// ToTOML encodes doc with TOML tables. TOML keys come out sorted, and arrays
// mixing strings with records or arrays are rejected.
func ToTOML(doc *userconf.Record) ([]byte, error) {
	if err := checkTOMLArrays(doc, ""); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = "  "
	if err := enc.Encode(userconf.ToUntyped(doc)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func checkTOMLArrays(v userconf.Value, path string) error {
	switch x := v.(type) {
	case *userconf.Record:
		for k, child := range x.All() {
			if err := checkTOMLArrays(child, joinKey(path, k)); err != nil {
				return err
			}
		}
	case *userconf.Array:
		var first userconf.ValueKind
		for i, child := range x.All() {
			if i == 0 {
				first = child.Kind()
			} else if child.Kind() != first && (first == userconf.Kinds.String || child.Kind() == userconf.Kinds.String) {
				return fmt.Errorf("toml: array %q mixes strings with %ss", path, nonString(first, child.Kind()))
			}
			if err := checkTOMLArrays(child, joinKey(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}
	return nil
}

func nonString(a, b userconf.ValueKind) userconf.ValueKind {
	if a == userconf.Kinds.String {
		return b
	}
	return a
}

func joinKey(path, k string) string {
	if path == "" {
		return k
	}
	return path + "." + k
}

// =========================
// Import
// =========================

func Import(data []byte, f Format) (*userconf.Record, error) {
	switch f {
	case Formats.Userconf:
		return userconf.Parse(data)
	case Formats.JSON:
		return FromJSON(data)
	case Formats.YAML:
		return FromYAML(data)
	case Formats.TOML:
		return FromTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// FromJSON reads a JSON object, keeping member order.
func FromJSON(data []byte) (*userconf.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec, 0)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("json: trailing data after top-level value")
	}
	rec, ok := v.(*userconf.Record)
	if !ok {
		return nil, fmt.Errorf("json: top-level value must be an object, found %s", v.Kind())
	}
	return rec, nil
}

func decodeJSON(dec *json.Decoder, depth int) (userconf.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth >= userconf.DefaultMaxDepth {
			return nil, errTooDeep
		}
		switch t {
		case '{':
			var fields []userconf.Field
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				fields = append(fields, userconf.Field{Key: kt.(string), Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return userconf.NewRecord(fields...), nil
		case '[':
			var items []userconf.Value
			for dec.More() {
				v, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return userconf.NewArray(items...), nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return userconf.NewString(t), nil
	case json.Number:
		return userconf.NewString(t.String()), nil
	case bool:
		return userconf.NewString(strconv.FormatBool(t)), nil
	case nil:
		return userconf.NewString(""), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", t)
	}
}

// FromYAML reads the first YAML document, which must be a mapping.
func FromYAML(data []byte) (*userconf.Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if root.Kind == 0 {
		return userconf.NewRecord(), nil
	}
	v, err := fromYAMLNode(&root, 0)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	rec, ok := v.(*userconf.Record)
	if !ok {
		return nil, fmt.Errorf("yaml: top-level value must be a mapping, found %s", v.Kind())
	}
	return rec, nil
}

func fromYAMLNode(n *yaml.Node, depth int) (userconf.Value, error) {
	// aliases may refer back to an enclosing node
	if depth > userconf.DefaultMaxDepth {
		return nil, errTooDeep
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return userconf.NewRecord(), nil
		}
		return fromYAMLNode(n.Content[0], depth)
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, depth)
	case yaml.MappingNode:
		fields := make([]userconf.Field, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			child, err := fromYAMLNode(v, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, userconf.Field{Key: k.Value, Value: child})
		}
		return userconf.NewRecord(fields...), nil
	case yaml.SequenceNode:
		items := make([]userconf.Value, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := fromYAMLNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return userconf.NewArray(items...), nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return userconf.NewString(""), nil
		}
		return userconf.NewString(n.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

// FromTOML reads a TOML document. Key order follows the order in which keys
// first appear in the source.
func FromTOML(data []byte) (*userconf.Record, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}

	order := make(map[string][]string)
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		for i := range key {
			full := strings.Join(key[:i+1], "\x00")
			if seen[full] {
				continue
			}
			seen[full] = true
			parent := strings.Join(key[:i], "\x00")
			order[parent] = append(order[parent], key[i])
		}
	}

	return fromTOMLTable(raw, nil, order), nil
}

func fromTOMLTable(m map[string]any, path []string, order map[string][]string) *userconf.Record {
	keys := make([]string, 0, len(m))
	for _, k := range order[strings.Join(path, "\x00")] {
		if _, ok := m[k]; ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range m {
		if !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	keys = append(keys, rest...)

	fields := make([]userconf.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, userconf.Field{Key: k, Value: fromTOMLValue(m[k], append(slices.Clip(path), k), order)})
	}
	return userconf.NewRecord(fields...)
}

func fromTOMLValue(v any, path []string, order map[string][]string) userconf.Value {
	switch x := v.(type) {
	case map[string]any:
		return fromTOMLTable(x, path, order)
	case []map[string]any:
		items := make([]userconf.Value, 0, len(x))
		for _, t := range x {
			items = append(items, fromTOMLTable(t, path, order))
		}
		return userconf.NewArray(items...)
	case []any:
		items := make([]userconf.Value, 0, len(x))
		for _, item := range x {
			items = append(items, fromTOMLValue(item, path, order))
		}
		return userconf.NewArray(items...)
	case string:
		return userconf.NewString(x)
	case int64:
		return userconf.NewString(strconv.FormatInt(x, 10))
	case float64:
		return userconf.NewString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		return userconf.NewString(strconv.FormatBool(x))
	case time.Time:
		return userconf.NewString(x.Format(time.RFC3339Nano))
	default:
		return userconf.NewString(fmt.Sprint(x))
	}
}
