package values

import (
	"testing"
)

func TestKindString(t *testing.T) {
	kinds := map[Kind]string{
		KindNull:   "null",
		KindBool:   "bool",
		KindInt:    "int",
		KindFloat:  "float",
		KindString: "string",
		KindList:   "list",
		KindMap:    "map",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() {
		t.Errorf("zero Value should be null, got kind %s", v.Kind())
	}
}

func TestEqual(t *testing.T) {
	m1 := Map()
	m1.Set("a", Int(1))
	m1.Set("b", List(String("x"), Bool(true)))

	m2 := Map()
	m2.Set("b", List(String("x"), Bool(true)))
	m2.Set("a", Int(1))

	if !m1.Equal(m2) {
		t.Error("structurally identical maps should be equal")
	}

	m2.Set("a", Int(2))
	if m1.Equal(m2) {
		t.Error("maps with different values should not be equal")
	}

	if Int(1).Equal(Float(1)) {
		t.Error("int and float nodes are different kinds")
	}
}

func TestRoundTripInterface(t *testing.T) {
	m := Map()
	m.Set("name", String("app"))
	m.Set("count", Int(3))
	m.Set("ratio", Float(0.5))
	m.Set("on", Bool(true))
	m.Set("none", Null())
	m.Set("tags", List(String("a"), String("b")))

	back, err := FromInterface(m.ToInterface())
	if err != nil {
		t.Fatalf("FromInterface: %v", err)
	}
	if !m.Equal(back) {
		t.Errorf("round trip changed the tree: %#v vs %#v", m.ToInterface(), back.ToInterface())
	}
}

func TestFromInterfaceIntegerWidths(t *testing.T) {
	for _, raw := range []interface{}{int(7), int8(7), int16(7), int32(7), int64(7), uint(7), uint8(7), uint16(7), uint32(7), uint64(7)} {
		v, err := FromInterface(raw)
		if err != nil {
			t.Fatalf("FromInterface(%T): %v", raw, err)
		}
		if v.Kind() != KindInt || v.AsInt() != 7 {
			t.Errorf("FromInterface(%T) = %s(%d), want int(7)", raw, v.Kind(), v.AsInt())
		}
	}
}

func TestFromInterfaceUnsupported(t *testing.T) {
	if _, err := FromInterface(struct{}{}); err == nil {
		t.Error("expected error for unsupported raw type")
	}
}

func TestMapKeysSorted(t *testing.T) {
	m := Map()
	m.Set("zebra", Int(1))
	m.Set("alpha", Int(2))
	m.Set("mid", Int(3))

	keys := m.Keys()
	want := []string{"alpha", "mid", "zebra"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
