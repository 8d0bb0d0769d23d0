// Package geom adapts github.com/go-gl/mathgl vectors and quaternions, and
// a Pose record built from them.
//
// Wire format:
//
//	vecN:  {"0": x, "1": y, ...}
//	quat:  {"0": x, "1": y, "2": z, "3": w}
//	pose:  {"V": vec3, "Q": quat}
//
// Quaternions are stored as raw coefficients in x, y, z, w order and are not
// normalized when decoded.
package geom

import (
	"github.com/andreyvit/geodoc"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	Vec2 = geodoc.DefineAggregate("vec2", 2, func(v mgl32.Vec2, i int) float32 {
		return v[i]
	}, func(c []float32) mgl32.Vec2 {
		return mgl32.Vec2{c[0], c[1]}
	})

	Vec3 = geodoc.DefineAggregate("vec3", 3, func(v mgl32.Vec3, i int) float32 {
		return v[i]
	}, func(c []float32) mgl32.Vec3 {
		return mgl32.Vec3{c[0], c[1], c[2]}
	})

	Vec4 = geodoc.DefineAggregate("vec4", 4, func(v mgl32.Vec4, i int) float32 {
		return v[i]
	}, func(c []float32) mgl32.Vec4 {
		return mgl32.Vec4{c[0], c[1], c[2], c[3]}
	})

	Vec3d = geodoc.DefineAggregate("vec3d", 3, func(v mgl64.Vec3, i int) float64 {
		return v[i]
	}, func(c []float64) mgl64.Vec3 {
		return mgl64.Vec3{c[0], c[1], c[2]}
	})

	Quat = geodoc.DefineAggregate("quat", 4, func(q mgl32.Quat, i int) float32 {
		if i == 3 {
			return q.W
		}
		return q.V[i]
	}, func(c []float32) mgl32.Quat {
		return mgl32.Quat{W: c[3], V: mgl32.Vec3{c[0], c[1], c[2]}}
	})

	Quatd = geodoc.DefineAggregate("quatd", 4, func(q mgl64.Quat, i int) float64 {
		if i == 3 {
			return q.W
		}
		return q.V[i]
	}, func(c []float64) mgl64.Quat {
		return mgl64.Quat{W: c[3], V: mgl64.Vec3{c[0], c[1], c[2]}}
	})
)

// Register adds every adapter of this package to reg.
func Register(reg *geodoc.Registry) {
	geodoc.Register[mgl32.Vec2](reg, Vec2)
	geodoc.Register[mgl32.Vec3](reg, Vec3)
	geodoc.Register[mgl32.Vec4](reg, Vec4)
	geodoc.Register[mgl64.Vec3](reg, Vec3d)
	geodoc.Register[mgl32.Quat](reg, Quat)
	geodoc.Register[mgl64.Quat](reg, Quatd)
	geodoc.Register[Pose](reg, PoseRecord)
}

// NewRegistry returns a registry with every adapter of this package.
func NewRegistry(opt geodoc.RegistryOpts) *geodoc.Registry {
	reg := geodoc.NewRegistry(opt)
	Register(reg)
	return reg
}
