package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type fixedRotation mgl32.Mat3

func (r fixedRotation) Matrix() mgl32.Mat3 { return mgl32.Mat3(r) }

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d: want %v, got %v", i, want, got)
	}
}

func TestOrientationControllerIdentity(t *testing.T) {
	oc := NewOrientationController()
	assertVec3(t, mgl32.Vec3{0, 2, 0}, oc.Position())
	assertVec3(t, mgl32.Vec3{0, 2, 1}, oc.Target())
	assertVec3(t, mgl32.Vec3{0, 1, 0}, oc.Up())
}

func TestOrientationControllerFollowsRotation(t *testing.T) {
	quarterY := fixedRotation(mgl32.Rotate3DY(mgl32.DegToRad(90)))
	oc := NewOrientationController(WithOrientation(quarterY), WithEye(mgl32.Vec3{1, 2, 3}))

	assertVec3(t, mgl32.Vec3{2, 2, 3}, oc.Target())
	assertVec3(t, mgl32.Vec3{0, 1, 0}, oc.Up())

	tilt := fixedRotation(mgl32.Rotate3DX(mgl32.DegToRad(-90)))
	oc.SetOrientation(tilt)
	oc.SetEye(DefaultEye)
	assertVec3(t, mgl32.Vec3{0, 3, 0}, oc.Target())
	assertVec3(t, mgl32.Vec3{0, 0, -1}, oc.Up())

	oc.SetOrientation(nil)
	assertVec3(t, mgl32.Vec3{0, 2, 1}, oc.Target())
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, math.Pi/3, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.01), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.Equal(t, mgl32.Ident4(), c.View())
	assert.Nil(t, c.Controller())
}

func TestCameraUpdateUsesController(t *testing.T) {
	oc := NewOrientationController()
	c := NewCamera(WithController(oc), WithAspect(2))

	// Looking down +Z from (0,2,0): a point one unit ahead sits at view-space z = -1.
	ahead := c.View().Mul4x1(mgl32.Vec4{0, 2, 1, 1})
	assert.InDelta(t, 0, ahead.X(), 1e-5)
	assert.InDelta(t, 0, ahead.Y(), 1e-5)
	assert.InDelta(t, -1, ahead.Z(), 1e-5)

	oc.SetOrientation(fixedRotation(mgl32.Rotate3DY(mgl32.DegToRad(180))))
	c.Update()
	behind := c.View().Mul4x1(mgl32.Vec4{0, 2, -1, 1})
	assert.InDelta(t, -1, behind.Z(), 1e-5)

	assert.Equal(t, c.Projection().Mul4(c.View()), c.ViewProjection())
}

func TestProjectionMapsDepthToUnitRange(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(10), WithFov(mgl32.DegToRad(90)))

	near := c.Projection().Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := c.Projection().Mul4x1(mgl32.Vec4{0, 0, -10, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)

	c.SetAspect(2)
	assert.InDelta(t, 0.5, c.Projection()[0], 1e-5)
}

func TestUniformLayout(t *testing.T) {
	c := NewCamera(WithController(NewFixedController(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})))
	u := c.Uniform()
	assert.Equal(t, 128, u.Size())

	buf := u.Marshal()
	assert.Len(t, buf, 128)
	assert.Equal(t, u.View[14], math.Float32frombits(binary.LittleEndian.Uint32(buf[14*4:])))
	assert.Equal(t, u.Projection[11], math.Float32frombits(binary.LittleEndian.Uint32(buf[64+11*4:])))
	assert.Equal(t, float32(-5), u.View[14])
}

func TestInvalidOptionsKeepDefaults(t *testing.T) {
	c := NewCamera(WithFov(0), WithFov(4), WithNear(-1), WithFar(0), WithAspect(-2), WithController(nil))
	assert.InDelta(t, DefaultFov, c.Fov(), 1e-6)
	assert.InDelta(t, DefaultNear, c.Near(), 1e-6)
	assert.InDelta(t, DefaultFar, c.Far(), 1e-6)
	assert.InDelta(t, 1, c.Aspect(), 1e-6)
}
