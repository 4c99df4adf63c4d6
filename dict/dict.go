// Package dict implements an ordered JSON dictionary: a string-keyed object
// whose values are arbitrary JSON (null, bool, number, string, array or a
// nested object) and whose keys keep the order they had in the source file.
//
// i18n resource files are read into a Dictionary so that batching is
// deterministic and the translated file comes back in the original key order.
// Nested structures are carried opaquely; nothing here interprets i18n
// conventions such as plural suffixes or namespaces.
package dict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrEmptyInput indicates the input contained no JSON at all.
	ErrEmptyInput = errors.New("no content")
	// ErrNotObject indicates the top-level JSON value is not an object.
	ErrNotObject = errors.New("top-level JSON value is not an object")
)

// Kind identifies the JSON type held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the literal text of a number
	arr  []Value
	obj  *Dictionary
}

// NullValue returns a JSON null.
func NullValue() Value { return Value{} }

// BoolValue returns a JSON boolean.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue returns a JSON number. The literal is kept verbatim so that
// values like 1.50 or 1e3 survive a round trip unchanged.
func NumberValue(n json.Number) Value { return Value{kind: Number, s: string(n)} }

// StringValue returns a JSON string.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// ArrayValue returns a JSON array holding items.
func ArrayValue(items ...Value) Value { return Value{kind: Array, arr: items} }

// ObjectValue returns a JSON object backed by d.
func ObjectValue(d *Dictionary) Value { return Value{kind: Object, obj: d} }

// Kind reports the JSON type of v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the contents of a string value.
func (v Value) Str() (string, bool) { return v.s, v.kind == String }

// Bool returns the contents of a boolean value.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Number returns the literal of a number value.
func (v Value) Number() (json.Number, bool) { return json.Number(v.s), v.kind == Number }

// Items returns the elements of an array value.
func (v Value) Items() []Value { return v.arr }

// Object returns the dictionary of an object value, or nil.
func (v Value) Object() *Dictionary { return v.obj }

// Equal reports whether a and b hold the same JSON, including key order of
// nested objects.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Number, String:
		return a.s == b.s
	case Array:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case Object:
		return a.obj.Equal(b.obj)
	}
	return false
}

// Dictionary is an insertion-ordered JSON object.
type Dictionary struct {
	keys   []string
	values map[string]Value
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in order. The returned slice is a copy.
func (d *Dictionary) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get returns the value stored under key.
func (d *Dictionary) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Set stores v under key. A key that already exists keeps its position and
// only has its value replaced.
func (d *Dictionary) Set(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// Slice returns a new Dictionary holding the keys at positions [from, to).
// Values are shared with d, not copied.
func (d *Dictionary) Slice(from, to int) *Dictionary {
	out := &Dictionary{
		keys:   make([]string, 0, to-from),
		values: make(map[string]Value, to-from),
	}
	for _, k := range d.keys[from:to] {
		out.keys = append(out.keys, k)
		out.values[k] = d.values[k]
	}
	return out
}

// Equal reports whether d and other hold the same keys, in the same order,
// with equal values.
func (d *Dictionary) Equal(other *Dictionary) bool {
	if d.Len() != other.Len() {
		return false
	}
	if d.Len() == 0 {
		return true
	}
	for i, k := range d.keys {
		if other.keys[i] != k {
			return false
		}
		if !Equal(d.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// ParseFile reads and parses a JSON object file.
func ParseFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse parses data as a single JSON object, preserving key order at every
// nesting level. Duplicate keys keep their first position and last value.
func Parse(data []byte) (*Dictionary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	d, err := decodeObject(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if t, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return nil, fmt.Errorf("parsing JSON: unexpected %v after top-level object", t)
	}

	return d, nil
}

func decodeValue(dec *json.Decoder, t json.Token) (Value, error) {
	switch tok := t.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(tok), nil
	case json.Number:
		return NumberValue(tok), nil
	case string:
		return StringValue(tok), nil
	case json.Delim:
		switch tok {
		case '{':
			d, err := decodeObject(dec)
			if err != nil {
				return Value{}, err
			}
			return ObjectValue(d), nil
		case '[':
			return decodeArray(dec)
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", t)
}

// decodeObject consumes tokens up to and including the closing brace.
func decodeObject(dec *json.Decoder) (*Dictionary, error) {
	d := New()
	for {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if delim, ok := kt.(json.Delim); ok && delim == '}' {
			return d, nil
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		v, err := decodeValue(dec, vt)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		d.Set(key, v)
	}
}

// decodeArray consumes tokens up to and including the closing bracket.
func decodeArray(dec *json.Decoder) (Value, error) {
	items := []Value{}
	for {
		t, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		if delim, ok := t.(json.Delim); ok && delim == ']' {
			return ArrayValue(items...), nil
		}
		v, err := decodeValue(dec, t)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Bytes returns the compact JSON encoding of d. HTML characters are written
// as-is so markup inside translations stays readable.
func (d *Dictionary) Bytes() []byte {
	var buf bytes.Buffer
	d.writeTo(&buf)
	return buf.Bytes()
}

// MarshalIndent returns the JSON encoding of d with one element per line,
// each line beginning with prefix and nested by indent.
func (d *Dictionary) MarshalIndent(prefix, indent string) ([]byte, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, d.Bytes(), prefix, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalJSON implements json.Marshaler. Note that encoding/json escapes
// HTML characters in marshaler output; use Bytes or MarshalIndent to keep
// them literal.
func (d *Dictionary) MarshalJSON() ([]byte, error) {
	return d.Bytes(), nil
}

func (d *Dictionary) writeTo(buf *bytes.Buffer) {
	buf.WriteByte('{')
	if d != nil {
		for i, k := range d.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			d.values[k].writeTo(buf)
		}
	}
	buf.WriteByte('}')
}

func (v Value) writeTo(buf *bytes.Buffer) {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		buf.WriteString(v.s)
	case String:
		writeString(buf, v.s)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.writeTo(buf)
		}
		buf.WriteByte(']')
	case Object:
		v.obj.writeTo(buf)
	}
}

// writeString appends s as a JSON string literal without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	// Drop the newline Encode appends.
	buf.Truncate(buf.Len() - 1)
}
