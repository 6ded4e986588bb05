package value

import "testing"

func TestAsNum(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{Number(3.5), 3.5},
		{Bool(true), 1},
		{Bool(false), 0},
		{String("abc"), 0},
		{Undefined{}, 0},
	}
	for _, c := range cases {
		if got := AsNum(c.v); got != c.want {
			t.Errorf("AsNum(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Number(0), false},
		{Number(1), true},
		{Bool(true), true},
		{String(""), false},
		{String("x"), true},
		{Undefined{}, false},
	}
	for _, c := range cases {
		if got := AsBool(c.v); got != c.want {
			t.Errorf("AsBool(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(Number(1), Number(1)) {
		t.Error("Number(1) should equal Number(1)")
	}
	if Equal(Number(1), String("1")) {
		t.Error("Number(1) should not equal String(\"1\")")
	}
	if !Equal(Undefined{}, Undefined{}) {
		t.Error("Undefined should equal Undefined")
	}
	if Equal(Bool(true), Bool(false)) {
		t.Error("Bool(true) should not equal Bool(false)")
	}
}

func TestLess(t *testing.T) {
	if lt, ok := Less(Number(1), Number(2)); !ok || !lt {
		t.Errorf("Number(1) < Number(2) = (%v, %v), want (true, true)", lt, ok)
	}
	if lt, ok := Less(String("a"), String("b")); !ok || !lt {
		t.Errorf("String(\"a\") < String(\"b\") = (%v, %v), want (true, true)", lt, ok)
	}
	if _, ok := Less(Number(1), String("a")); ok {
		t.Error("mismatched kinds should be incomparable")
	}
	if _, ok := Less(Undefined{}, Undefined{}); ok {
		t.Error("Undefined should be incomparable under Less")
	}
}

func TestNumberString(t *testing.T) {
	cases := []struct {
		n    Number
		want string
	}{
		{Number(3), "3"},
		{Number(3.5), "3.5"},
	}
	for _, c := range cases {
		if got := c.n.String(); got != c.want {
			t.Errorf("Number(%v).String() = %q, want %q", float64(c.n), got, c.want)
		}
	}
}
