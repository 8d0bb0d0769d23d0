package geodoc

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/andreyvit/geodoc/kvo"
)

type (
	Vec3 [3]float64

	Quat struct {
		X, Y, Z, W float32
	}

	Pose struct {
		V Vec3
		Q Quat
	}

	Segment struct {
		A, B Vec3
	}
)

var (
	vec3Adapter = DefineAggregate("vec3", 3, func(v Vec3, i int) float64 {
		return v[i]
	}, func(c []float64) Vec3 {
		return Vec3{c[0], c[1], c[2]}
	})
	quatAdapter = DefineAggregate("quat", 4, func(q Quat, i int) float32 {
		return [4]float32{q.X, q.Y, q.Z, q.W}[i]
	}, func(c []float32) Quat {
		return Quat{c[0], c[1], c[2], c[3]}
	})
	poseAdapter = DefineRecord("pose", func(b *RecordBuilder[Pose]) {
		v := AddField(b, "V", vec3Adapter, func(p Pose) Vec3 { return p.V })
		q := AddField(b, "Q", quatAdapter, func(p Pose) Quat { return p.Q })
		b.Construct(func(fs Fields) Pose {
			return Pose{V: v.In(fs), Q: q.In(fs)}
		})
	})
	segmentAdapter = DefineRecord("segment", func(b *RecordBuilder[Segment]) {
		a := AddField(b, "A", vec3Adapter, func(s Segment) Vec3 { return s.A })
		bb := AddField(b, "B", vec3Adapter, func(s Segment) Vec3 { return s.B })
		b.Construct(func(fs Fields) Segment {
			return Segment{A: a.In(fs), B: bb.In(fs)}
		})
	})

	identity   = Quat{0, 0, 0, 1}
	samplePose = Pose{V: Vec3{1, 2, 3}, Q: identity}
)

const samplePoseDump = "{Q: {0: 0, 1: 0, 2: 0, 3: 1}, V: {0: 1, 1: 2, 2: 3}}"

func newTestRegistry(t testing.TB) *Registry {
	reg := NewRegistry(RegistryOpts{
		Logf: t.Logf,
	})
	Register[Vec3](reg, vec3Adapter)
	Register[Quat](reg, quatAdapter)
	Register[Pose](reg, poseAdapter)
	Register[Segment](reg, segmentAdapter)
	return reg
}

func setupStore(t testing.TB, reg *Registry) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geodoc_test.db")
	t.Logf("DB: %s", path)
	s := must(OpenStore(path, reg, StoreOptions{
		IsTesting: true,
		Verbose:   true,
	}))
	t.Cleanup(func() { s.Close() })
	return s
}

func vec3Doc(x, y, z float64) *kvo.Node {
	n := kvo.NewMap()
	n.SetFloat("0", x)
	n.SetFloat("1", y)
	n.SetFloat("2", z)
	return n
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func success(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** failed: %v", err)
	}
}

func failure(t testing.TB, err error, target error, location string) {
	t.Helper()
	if err == nil {
		t.Fatalf("** succeeded, wanted %v", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("** got error %v, wanted %v", err, target)
	}
	if location != "" {
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("** got %T (%v), wanted *DecodeError", err, err)
		}
		if de.Location() != location {
			t.Fatalf("** got error at %q, wanted at %q: %v", de.Location(), location, err)
		}
	}
}

func assertPanics(t testing.TB, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}
