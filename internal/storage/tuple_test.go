package storage

import (
	"errors"
	"strings"
	"testing"
)

func testDesc(t *testing.T) *TupleDesc {
	t.Helper()
	td, err := NewTupleDesc(
		[]FieldType{TypeInt, TypeChar, TypeDouble},
		[]string{"id", "name", "price"},
	)
	if err != nil {
		t.Fatalf("new tuple desc: %v", err)
	}
	return td
}

func TestTupleDesc_Layout(t *testing.T) {
	td := testDesc(t)
	if td.NumFields() != 3 {
		t.Fatalf("fields: got %d want 3", td.NumFields())
	}
	if td.RowWidth() != IntSize+CharSize+DoubleSize {
		t.Fatalf("row width: got %d want %d", td.RowWidth(), IntSize+CharSize+DoubleSize)
	}
	wantOffsets := []int{0, 4, 68}
	for i, want := range wantOffsets {
		off, err := td.OffsetOf(i)
		if err != nil {
			t.Fatalf("offset %d: %v", i, err)
		}
		if off != want {
			t.Errorf("offset %d: got %d want %d", i, off, want)
		}
	}
	if _, err := td.OffsetOf(3); err == nil {
		t.Error("expected error for out-of-range offset")
	}
}

func TestTupleDesc_Validation(t *testing.T) {
	if _, err := NewTupleDesc([]FieldType{TypeInt}, []string{"a", "b"}); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := NewTupleDesc([]FieldType{TypeInt, TypeInt}, []string{"a", "a"}); err == nil {
		t.Error("expected error for repeated name")
	}
}

func TestTupleDesc_IndexOf(t *testing.T) {
	td := testDesc(t)
	i, err := td.IndexOf("price")
	if err != nil {
		t.Fatalf("index of price: %v", err)
	}
	if i != 2 {
		t.Fatalf("index of price: got %d want 2", i)
	}
	if _, err := td.IndexOf("missing"); err == nil {
		t.Error("expected error for unknown field name")
	}
}

func TestTupleDesc_RoundTrip(t *testing.T) {
	td := testDesc(t)
	in := NewTuple(int32(-7), "apple", 1.25)
	buf := make([]byte, td.RowWidth())
	if err := td.Serialize(buf, in); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out := td.Deserialize(buf)
	id, _ := out.IntAt(0)
	name, _ := out.StringAt(1)
	price, _ := out.FloatAt(2)
	if id != -7 || name != "apple" || price != 1.25 {
		t.Fatalf("round trip mismatch: got (%d, %q, %v)", id, name, price)
	}
}

func TestTupleDesc_CharTruncation(t *testing.T) {
	td := testDesc(t)
	long := strings.Repeat("x", CharSize+10)
	buf := make([]byte, td.RowWidth())
	if err := td.Serialize(buf, NewTuple(int32(1), long, 0.0)); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out := td.Deserialize(buf)
	name, _ := out.StringAt(1)
	if name != long[:CharSize] {
		t.Fatalf("truncation: got %d bytes, want %d", len(name), CharSize)
	}
}

func TestTupleDesc_CharEmbeddedNul(t *testing.T) {
	td := testDesc(t)
	buf := make([]byte, td.RowWidth())
	if err := td.Serialize(buf, NewTuple(int32(1), "ab\x00cd", 0.0)); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	name, _ := td.Deserialize(buf).StringAt(1)
	if name != "ab" {
		t.Fatalf("embedded NUL: got %q want %q", name, "ab")
	}
}

func TestTupleDesc_Incompatible(t *testing.T) {
	td := testDesc(t)
	buf := make([]byte, td.RowWidth())
	cases := []Tuple{
		NewTuple(int32(1), "a"),                  // arity
		NewTuple(1.0, "a", 1.0),                  // kind at 0
		NewTuple(int32(1), int32(2), 1.0),        // kind at 1
		NewTuple(int32(1), "a", 1.0, int32(9)),   // arity
	}
	for i, tup := range cases {
		if err := td.Serialize(buf, tup); !errors.Is(err, ErrSchemaMismatch) {
			t.Errorf("case %d: got %v, want ErrSchemaMismatch", i, err)
		}
	}
}

func TestMergeTupleDescs(t *testing.T) {
	td := testDesc(t)
	other, err := NewTupleDesc([]FieldType{TypeInt}, []string{"qty"})
	if err != nil {
		t.Fatalf("new desc: %v", err)
	}
	merged, err := MergeTupleDescs(td, other)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.NumFields() != 4 {
		t.Fatalf("merged fields: got %d want 4", merged.NumFields())
	}
	if merged.RowWidth() != td.RowWidth()+IntSize {
		t.Fatalf("merged width: got %d", merged.RowWidth())
	}
	if _, err := MergeTupleDescs(td, td); err == nil {
		t.Error("expected error merging schemas with shared names")
	}
}
