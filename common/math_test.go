package common

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFacingYaw(t *testing.T) {
	tests := []struct {
		name string
		p    mgl32.Vec3
		want float32
	}{
		{"ahead", mgl32.Vec3{0, 0, 5}, 0},
		{"right", mgl32.Vec3{3, 0, 0}, math32.Pi / 2},
		{"left", mgl32.Vec3{-3, 0, 0}, -math32.Pi / 2},
		{"behind", mgl32.Vec3{0, 0, -2}, math32.Pi},
		{"behind negative zero", mgl32.Vec3{float32(math.Copysign(0, -1)), 0, -111.19492}, math32.Pi},
		{"far behind", mgl32.Vec3{0, 0, -111.19492}, math32.Pi},
		{"just left of behind", mgl32.Vec3{-1e-3, 0, -111.19492}, -math32.Pi + 1e-3/111.19492},
		{"origin", mgl32.Vec3{}, 0},
		{"above origin", mgl32.Vec3{0, 4, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FacingYaw(tt.p), 1e-5)
		})
	}
}

func TestFacingYawTurnsForwardOntoPosition(t *testing.T) {
	p := mgl32.Vec3{4, 0, -3}
	dir := mgl32.Rotate3DY(FacingYaw(p)).Mul3x1(Forward)
	want := p.Normalize()
	for i := range want {
		assert.InDelta(t, want[i], dir[i], 1e-5, "got %v", dir)
	}
}

func TestModelMatrixOrder(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, math32.Pi/2, 10)

	// the local +Z tip of a unit sprite lands scaled, turned onto +X, then translated
	got := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1}).Vec3()
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec3{11, 2, 3}, 1e-4), "got %v", got)

	origin := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.True(t, origin.ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-6))
}

func TestRotationYawPitchRollIdentity(t *testing.T) {
	assert.True(t, RotationYawPitchRoll(0, 0, 0).ApproxEqual(mgl32.Ident3()))
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(mgl32.DegToRad(60), 1, 0.01, 100)

	near := p.Mul4x1(mgl32.Vec4{0, 0, -0.01, 1})
	far := p.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-4)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)
}

func TestStructToBytesSize(t *testing.T) {
	m := mgl32.Ident4()
	assert.Len(t, StructToBytes(&m), 64)
	assert.Len(t, SliceToBytes([]uint16{1, 2, 3}), 6)
	assert.Nil(t, SliceToBytes([]uint16{}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}
