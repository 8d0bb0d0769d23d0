package kvo

import (
	"math"
	"testing"
)

func TestDump(t *testing.T) {
	m := NewMap()
	q := m.UpdateMap("Q")
	q.SetFloat("3", 1)
	q.SetFloat("0", 0)
	q.SetFloat("1", 0)
	q.SetFloat("2", 0)
	v := m.UpdateMap("V")
	v.SetFloat("0", 1)
	v.SetFloat("1", 2.5)
	v.SetFloat("2", -3)
	m.Set("extra", List(Null(), Bool(true), String("a b")))

	a := Dump(m)
	e := `{Q: {0: 0, 1: 0, 2: 0, 3: 1}, V: {0: 1, 1: 2.5, 2: -3}, extra: [null, true, "a b"]}`
	if a != e {
		t.Fatalf("** got:\n%v\n\nwanted:\n%v", a, e)
	}
}

func TestFingerprint_IgnoresInsertionOrder(t *testing.T) {
	a := NewMap()
	a.SetFloat("0", 1)
	a.SetFloat("1", 2)
	b := NewMap()
	b.SetFloat("1", 2)
	b.SetFloat("0", 1)
	eq(t, Fingerprint(a), Fingerprint(b))

	b.SetFloat("1", 3)
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("Fingerprint did not change after value change")
	}
}

func TestFingerprint_FollowsEqual(t *testing.T) {
	negZero := Float(math.Copysign(0, -1))
	eq(t, Equal(Float(0), negZero), true)
	eq(t, Fingerprint(Float(0)), Fingerprint(negZero))

	nan1 := Float(math.NaN())
	nan2 := Float(math.Float64frombits(0x7ff8000000000001))
	eq(t, Equal(nan1, nan2), true)
	eq(t, Fingerprint(nan1), Fingerprint(nan2))
}

func TestFingerprint_DistinguishesKinds(t *testing.T) {
	fps := map[uint64]string{}
	for name, n := range map[string]*Node{
		"null":   Null(),
		"false":  Bool(false),
		"zero":   Float(0),
		"empty":  String(""),
		"list":   List(),
		"map":    NewMap(),
		"nested": List(List()),
		"nan":    Float(math.NaN()),
	} {
		fp := Fingerprint(n)
		if prev, ok := fps[fp]; ok {
			t.Fatalf("Fingerprint(%s) == Fingerprint(%s)", name, prev)
		}
		fps[fp] = name
	}
}
