package geodoc

import (
	"errors"
	"testing"

	"github.com/andreyvit/geodoc/kvo"
)

func TestAggregate_RoundTrip(t *testing.T) {
	v := Vec3{1, -2.5, 3e10}
	n := vec3Adapter.ToDocument(v)
	eq(t, n.Dump(), "{0: 1, 1: -2.5, 2: 3e+10}")
	eq(t, n.KeyCount(), 3)

	a, err := vec3Adapter.FromDocument(n)
	success(t, err)
	eq(t, a, v)

	q := Quat{0.5, -0.5, 0.25, 1}
	qn := quatAdapter.ToDocument(q)
	eq(t, qn.Dump(), "{0: 0.5, 1: -0.5, 2: 0.25, 3: 1}")
	qa, err := quatAdapter.FromDocument(qn)
	success(t, err)
	eq(t, qa, q)
}

func TestAggregate_EncodeIsDeterministic(t *testing.T) {
	a := vec3Adapter.ToDocument(Vec3{1, 2, 3})
	b := vec3Adapter.ToDocument(Vec3{1, 2, 3})
	if a == b {
		t.Fatalf("ToDocument returned the same node twice")
	}
	eq(t, kvo.Equal(a, b), true)
	eq(t, kvo.Fingerprint(a), kvo.Fingerprint(b))
}

func TestAggregate_Accessors(t *testing.T) {
	eq(t, vec3Adapter.Name(), "vec3")
	eq(t, vec3Adapter.Arity(), 3)
	eq(t, vec3Adapter.Type(), typeOf[Vec3]())
	eq(t, quatAdapter.Arity(), 4)
}

func TestAggregate_MaxArity(t *testing.T) {
	type vec10 [10]float64
	a, err := NewAggregate("vec10", 10, func(v vec10, i int) float64 {
		return v[i]
	}, func(c []float64) vec10 {
		return vec10(c)
	})
	success(t, err)

	v := vec10{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	n := a.ToDocument(v)
	deepEqual(t, n.Keys(), []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"})
	for i := range v {
		f, _ := n.Get(ComponentKey(i)).Float()
		eq(t, f, v[i])
	}
	back, err := a.FromDocument(n)
	success(t, err)
	eq(t, back, v)
}

func TestAggregate_UnsupportedArity(t *testing.T) {
	type vec11 [11]float64
	comp := func(v vec11, i int) float64 { return v[i] }
	build := func(c []float64) vec11 { return vec11(c) }

	_, err := NewAggregate("vec11", 11, comp, build)
	if !errors.Is(err, ErrUnsupportedArity) {
		t.Fatalf("** got %v, wanted %v", err, ErrUnsupportedArity)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("** got %T, wanted *ConfigError", err)
	}
	eq(t, ce.Adapter, "vec11")
	eq(t, err.Error(), "geodoc: vec11: unsupported arity: 11 components, must be between 1 and 10")

	_, err = NewAggregate("vec0", 0, comp, build)
	if !errors.Is(err, ErrUnsupportedArity) {
		t.Fatalf("** got %v, wanted %v", err, ErrUnsupportedArity)
	}

	assertPanics(t, "DefineAggregate(11)", func() {
		DefineAggregate("vec11", 11, comp, build)
	})
}

func TestAggregate_InvalidDefinitions(t *testing.T) {
	comp := func(v Vec3, i int) float64 { return v[i] }
	build := func(c []float64) Vec3 { return Vec3(c) }

	_, err := NewAggregate("", 3, comp, build)
	if !errors.Is(err, ErrInvalidAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrInvalidAdapter)
	}
	_, err = NewAggregate("vec3", 3, nil, build)
	if !errors.Is(err, ErrInvalidAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrInvalidAdapter)
	}
	_, err = NewAggregate[Vec3, float64]("vec3", 3, comp, nil)
	if !errors.Is(err, ErrInvalidAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrInvalidAdapter)
	}
}

func TestAggregate_DecodeErrors(t *testing.T) {
	t.Run("missing component", func(t *testing.T) {
		n := vec3Doc(1, 2, 3)
		n.Delete("1")
		_, err := vec3Adapter.FromDocument(n)
		failure(t, err, ErrMissingKey, "vec3.1")
		eq(t, err.Error(), "vec3.1: missing key")
	})
	t.Run("non-numeric component", func(t *testing.T) {
		n := vec3Doc(1, 2, 3)
		n.Set("2", kvo.Bool(true))
		_, err := vec3Adapter.FromDocument(n)
		failure(t, err, ErrTypeMismatch, "vec3.2")
	})
	t.Run("not a map", func(t *testing.T) {
		_, err := vec3Adapter.FromDocument(kvo.Float(1))
		failure(t, err, ErrTypeMismatch, "vec3")
		eq(t, err.Error(), "vec3: type mismatch: expected map, got number")
	})
	t.Run("missing node", func(t *testing.T) {
		_, err := vec3Adapter.FromDocument(nil)
		failure(t, err, ErrMissingKey, "vec3")
	})
	t.Run("float32 overflow", func(t *testing.T) {
		n := quatAdapter.ToDocument(identity)
		n.SetFloat("0", 1e300)
		_, err := quatAdapter.FromDocument(n)
		failure(t, err, ErrTypeMismatch, "quat.0")
	})
	t.Run("first failure wins", func(t *testing.T) {
		n := kvo.NewMap()
		n.Set("2", kvo.String("z"))
		_, err := vec3Adapter.FromDocument(n)
		failure(t, err, ErrMissingKey, "vec3.0")
	})
}

func TestAggregate_IgnoresExtraKeys(t *testing.T) {
	n := vec3Doc(1, 2, 3)
	n.SetFloat("3", 4)
	n.Set("name", kvo.String("extra"))
	v, err := vec3Adapter.FromDocument(n)
	success(t, err)
	eq(t, v, Vec3{1, 2, 3})
}

func TestAggregate_DoesNotCallBuildOnFailure(t *testing.T) {
	var calls int
	a := DefineAggregate("counted", 2, func(v [2]float64, i int) float64 {
		return v[i]
	}, func(c []float64) [2]float64 {
		calls++
		return [2]float64{c[0], c[1]}
	})

	n := kvo.NewMap()
	n.SetFloat("0", 1)
	_, err := a.FromDocument(n)
	failure(t, err, ErrMissingKey, "counted.1")
	eq(t, calls, 0)

	n.SetFloat("1", 2)
	v, err := a.FromDocument(n)
	success(t, err)
	eq(t, v, [2]float64{1, 2})
	eq(t, calls, 1)
}
