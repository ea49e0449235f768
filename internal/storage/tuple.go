package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ───────────────────────────────────────────────────────────────────────────
// Tuples and schema descriptors
// ───────────────────────────────────────────────────────────────────────────
//
// A row is the concatenation of its fields in schema order:
//
//   INT     4 bytes, int32 LE
//   DOUBLE  8 bytes, IEEE-754 bits LE
//   CHAR    exactly 64 bytes; the string's bytes, truncated at 64, with the
//           remainder zero. On decode the string ends at the first NUL or
//           at 64 bytes.
//
// Total row width is the sum of the field widths. There is no per-row
// header and no length prefix; the layout is fixed by the schema alone.

// Tuple is an ordered sequence of field values. Field values are int32,
// float64, or string, matching TypeInt, TypeDouble, and TypeChar.
type Tuple struct {
	fields []any
}

// NewTuple builds a tuple from the given field values.
func NewTuple(values ...any) Tuple {
	return Tuple{fields: values}
}

// Len returns the number of fields.
func (t Tuple) Len() int { return len(t.fields) }

// Field returns the i-th field value.
func (t Tuple) Field(i int) any { return t.fields[i] }

// FieldType returns the kind of the i-th field, derived from its dynamic
// type.
func (t Tuple) FieldType(i int) (FieldType, error) {
	switch t.fields[i].(type) {
	case int32:
		return TypeInt, nil
	case float64:
		return TypeDouble, nil
	case string:
		return TypeChar, nil
	default:
		return 0, fmt.Errorf("field %d: unsupported value type %T: %w", i, t.fields[i], ErrSchemaMismatch)
	}
}

// IntAt returns the i-th field as an int32.
func (t Tuple) IntAt(i int) (int32, error) {
	v, ok := t.fields[i].(int32)
	if !ok {
		return 0, fmt.Errorf("field %d is %T, not INT: %w", i, t.fields[i], ErrSchemaMismatch)
	}
	return v, nil
}

// FloatAt returns the i-th field as a float64.
func (t Tuple) FloatAt(i int) (float64, error) {
	v, ok := t.fields[i].(float64)
	if !ok {
		return 0, fmt.Errorf("field %d is %T, not DOUBLE: %w", i, t.fields[i], ErrSchemaMismatch)
	}
	return v, nil
}

// StringAt returns the i-th field as a string.
func (t Tuple) StringAt(i int) (string, error) {
	v, ok := t.fields[i].(string)
	if !ok {
		return "", fmt.Errorf("field %d is %T, not CHAR: %w", i, t.fields[i], ErrSchemaMismatch)
	}
	return v, nil
}

// ───────────────────────────────────────────────────────────────────────────
// TupleDesc
// ───────────────────────────────────────────────────────────────────────────

// TupleDesc describes a fixed-width row layout: the ordered field kinds and
// names, the per-field byte offsets, and the total row width.
type TupleDesc struct {
	types   []FieldType
	names   []string
	offsets []int
	width   int
}

// NewTupleDesc builds a schema from parallel kind and name sequences.
// The sequences must have equal length and the names must be unique.
func NewTupleDesc(types []FieldType, names []string) (*TupleDesc, error) {
	if len(types) != len(names) {
		return nil, fmt.Errorf("tuple desc: %d types but %d names", len(types), len(names))
	}
	seen := make(map[string]struct{}, len(names))
	td := &TupleDesc{
		types:   append([]FieldType(nil), types...),
		names:   append([]string(nil), names...),
		offsets: make([]int, len(types)),
	}
	off := 0
	for i, ft := range types {
		if _, dup := seen[names[i]]; dup {
			return nil, fmt.Errorf("tuple desc: repeated field name %q", names[i])
		}
		seen[names[i]] = struct{}{}
		td.offsets[i] = off
		off += ft.Size()
	}
	td.width = off
	return td, nil
}

// NumFields returns the number of fields in the schema.
func (td *TupleDesc) NumFields() int { return len(td.types) }

// RowWidth returns the total serialized row width in bytes.
func (td *TupleDesc) RowWidth() int { return td.width }

// TypeOf returns the kind of field i.
func (td *TupleDesc) TypeOf(i int) FieldType { return td.types[i] }

// NameOf returns the name of field i.
func (td *TupleDesc) NameOf(i int) string { return td.names[i] }

// OffsetOf returns the byte offset of field i within a serialized row.
func (td *TupleDesc) OffsetOf(i int) (int, error) {
	if i < 0 || i >= len(td.offsets) {
		return 0, fmt.Errorf("tuple desc: field index %d out of range [0..%d)", i, len(td.offsets))
	}
	return td.offsets[i], nil
}

// IndexOf returns the position of the named field.
func (td *TupleDesc) IndexOf(name string) (int, error) {
	for i, n := range td.names {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("tuple desc: no field named %q", name)
}

// Compatible reports whether the tuple matches this schema by arity and
// field kind.
func (td *TupleDesc) Compatible(t Tuple) bool {
	if t.Len() != len(td.types) {
		return false
	}
	for i, ft := range td.types {
		got, err := t.FieldType(i)
		if err != nil || got != ft {
			return false
		}
	}
	return true
}

// Serialize encodes the tuple into dst, which must be at least RowWidth
// bytes long.
func (td *TupleDesc) Serialize(dst []byte, t Tuple) error {
	if !td.Compatible(t) {
		return fmt.Errorf("serialize: %w", ErrSchemaMismatch)
	}
	if len(dst) < td.width {
		return fmt.Errorf("serialize: buffer %d bytes, need %d", len(dst), td.width)
	}
	for i, ft := range td.types {
		off := td.offsets[i]
		switch ft {
		case TypeInt:
			v := t.fields[i].(int32)
			binary.LittleEndian.PutUint32(dst[off:], uint32(v))
		case TypeDouble:
			v := t.fields[i].(float64)
			binary.LittleEndian.PutUint64(dst[off:], math.Float64bits(v))
		case TypeChar:
			s := t.fields[i].(string)
			if len(s) > CharSize {
				s = s[:CharSize] // silent truncation
			}
			copy(dst[off:off+CharSize], s)
			for j := off + len(s); j < off+CharSize; j++ {
				dst[j] = 0
			}
		}
	}
	return nil
}

// Deserialize decodes a tuple from src, which must hold at least RowWidth
// bytes.
func (td *TupleDesc) Deserialize(src []byte) Tuple {
	fields := make([]any, len(td.types))
	for i, ft := range td.types {
		off := td.offsets[i]
		switch ft {
		case TypeInt:
			fields[i] = int32(binary.LittleEndian.Uint32(src[off:]))
		case TypeDouble:
			fields[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[off:]))
		case TypeChar:
			raw := src[off : off+CharSize]
			n := 0
			for n < CharSize && raw[n] != 0 {
				n++
			}
			fields[i] = string(raw[:n])
		}
	}
	return Tuple{fields: fields}
}

// MergeTupleDescs concatenates two schemas. It fails if any field name
// appears in both.
func MergeTupleDescs(a, b *TupleDesc) (*TupleDesc, error) {
	types := make([]FieldType, 0, len(a.types)+len(b.types))
	names := make([]string, 0, len(a.names)+len(b.names))
	types = append(types, a.types...)
	types = append(types, b.types...)
	names = append(names, a.names...)
	names = append(names, b.names...)
	return NewTupleDesc(types, names)
}
