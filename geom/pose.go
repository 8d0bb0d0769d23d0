package geom

import (
	"fmt"

	"github.com/andreyvit/geodoc"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	PositionKey = "V"
	RotationKey = "Q"
)

// Pose is a position and a rotation. The zero Pose has a zero (invalid)
// rotation; use NewPose or IdentityPose.
type Pose struct {
	v mgl32.Vec3
	q mgl32.Quat
}

func NewPose(v mgl32.Vec3, q mgl32.Quat) Pose {
	return Pose{v, q}
}

func IdentityPose() Pose {
	return Pose{q: mgl32.QuatIdent()}
}

func (p Pose) Position() mgl32.Vec3 { return p.v }
func (p Pose) Rotation() mgl32.Quat { return p.q }

// Equal reports whether p and o have exactly the same components.
func (p Pose) Equal(o Pose) bool {
	return p == o
}

// ApproxEpsilon is the relative tolerance of ApproxEqual, a few float32
// steps. mgl32.Epsilon is far below float32 resolution.
const ApproxEpsilon = 1e-6

// ApproxEqual compares components within ApproxEpsilon. Rotations are
// compared as coefficients, so q and -q are different.
func (p Pose) ApproxEqual(o Pose) bool {
	return p.v.ApproxEqualThreshold(o.v, ApproxEpsilon) &&
		p.q.V.ApproxEqualThreshold(o.q.V, ApproxEpsilon) &&
		mgl32.FloatEqualThreshold(p.q.W, o.q.W, ApproxEpsilon)
}

// Transform maps a point from pose-local space into the parent space.
func (p Pose) Transform(local mgl32.Vec3) mgl32.Vec3 {
	return p.q.Rotate(local).Add(p.v)
}

func (p Pose) String() string {
	return fmt.Sprintf("pose(%g %g %g, %g %g %g %g)", p.v[0], p.v[1], p.v[2], p.q.V[0], p.q.V[1], p.q.V[2], p.q.W)
}

// PoseRecord stores the position under "V" and the rotation under "Q".
var PoseRecord = geodoc.DefineRecord("pose", func(b *geodoc.RecordBuilder[Pose]) {
	v := geodoc.AddField(b, PositionKey, geodoc.Adapter[mgl32.Vec3](Vec3), Pose.Position)
	q := geodoc.AddField(b, RotationKey, geodoc.Adapter[mgl32.Quat](Quat), Pose.Rotation)
	b.Construct(func(fs geodoc.Fields) Pose {
		return NewPose(v.In(fs), q.In(fs))
	})
})
