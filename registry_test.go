package geodoc

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/andreyvit/geodoc/kvo"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := newTestRegistry(t)

	eq(t, reg.Lookup(reflect.TypeOf(Pose{})).Name(), "pose")
	eq(t, reg.AdapterNamed("quat").Type(), reflect.TypeOf(Quat{}))
	eq(t, reg.Lookup(reflect.TypeOf("")), nil)
	eq(t, reg.AdapterNamed("nope"), nil)

	var names []string
	for _, a := range reg.Adapters() {
		names = append(names, a.Name())
	}
	deepEqual(t, names, []string{"vec3", "quat", "pose", "segment"})

	a, ok := AdapterFor[Vec3](reg)
	eq(t, ok, true)
	eq(t, a.Name(), "vec3")
	_, ok = AdapterFor[string](reg)
	eq(t, ok, false)
}

func TestRegistry_DuplicatesPanic(t *testing.T) {
	reg := newTestRegistry(t)

	other := DefineAggregate("vec3b", 3, func(v Vec3, i int) float64 {
		return v[i]
	}, func(c []float64) Vec3 {
		return Vec3(c)
	})
	assertPanics(t, "same type", func() {
		Register[Vec3](reg, other)
	})

	type Vec3b [3]float64
	sameName := DefineAggregate("vec3", 3, func(v Vec3b, i int) float64 {
		return v[i]
	}, func(c []float64) Vec3b {
		return Vec3b(c)
	})
	assertPanics(t, "same name", func() {
		Register[Vec3b](reg, sameName)
	})

	// failed registrations leave no trace
	eq(t, len(reg.Adapters()), 4)
	eq(t, reg.Lookup(reflect.TypeOf(Vec3b{})), nil)
}

func TestRegistry_Independent(t *testing.T) {
	a := NewRegistry(RegistryOpts{})
	b := NewRegistry(RegistryOpts{})
	Register[Vec3](a, vec3Adapter)
	Register[Vec3](b, vec3Adapter)

	_, err := a.Encode(Pose{})
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}
	Register[Pose](b, poseAdapter)
	_, err = b.Encode(Pose{})
	success(t, err)
	_, err = a.Encode(Pose{})
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}
}

func TestRegistry_Logf(t *testing.T) {
	var lines []string
	reg := NewRegistry(RegistryOpts{
		Logf: func(format string, args ...any) {
			lines = append(lines, format)
		},
	})
	Register[Quat](reg, quatAdapter)
	eq(t, len(lines), 1)
	eq(t, strings.Contains(lines[0], "registered"), true)
}

func TestRegistry_EncodeDecode(t *testing.T) {
	reg := newTestRegistry(t)

	n, err := reg.Encode(samplePose)
	success(t, err)
	eq(t, n.Dump(), samplePoseDump)

	p := samplePose
	n, err = reg.Encode(&p)
	success(t, err)
	eq(t, n.Dump(), samplePoseDump)

	var nilPose *Pose
	_, err = reg.Encode(nilPose)
	if err == nil {
		t.Fatalf("Encode(nil *Pose) succeeded")
	}
	_, err = reg.Encode(nil)
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}
	_, err = reg.Encode(42)
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}

	back, err := Decode[Pose](reg, n)
	success(t, err)
	eq(t, back, samplePose)

	_, err = Decode[int](reg, n)
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}
}

func TestRegistry_DecodeInto(t *testing.T) {
	reg := newTestRegistry(t)

	var p Pose
	success(t, reg.DecodeInto(poseAdapter.ToDocument(samplePose), &p))
	eq(t, p, samplePose)

	broken := poseAdapter.ToDocument(Pose{V: Vec3{9, 9, 9}, Q: identity})
	broken.Get("V").Delete("0")
	err := reg.DecodeInto(broken, &p)
	failure(t, err, ErrMissingKey, "pose.V.0")
	eq(t, p, samplePose)

	err = reg.DecodeInto(kvo.NewMap(), p)
	if err == nil {
		t.Fatalf("DecodeInto(non-pointer) succeeded")
	}
	var s string
	err = reg.DecodeInto(kvo.NewMap(), &s)
	if !errors.Is(err, ErrNoAdapter) {
		t.Fatalf("** got %v, wanted %v", err, ErrNoAdapter)
	}
}
