package common

import (
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// Forward is the unit +Z axis. Rotations are applied to it to derive a viewing direction.
	Forward = mgl32.Vec3{0, 0, 1}
	// Up is the unit +Y axis.
	Up = mgl32.Vec3{0, 1, 0}
	// Left is the unit +X axis as seen by a viewer looking down +Z in a right-handed frame.
	Left = mgl32.Vec3{1, 0, 0}
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Perspective creates a right-handed perspective projection matrix mapping depth into the
// WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// LookAt builds a right-handed view matrix looking from eye towards target.
//
// Parameters:
//   - eye: the viewer position
//   - target: the point being looked at
//   - up: the approximate up direction, must not be parallel to target-eye
//
// Returns:
//   - mgl32.Mat4: the column-major view matrix
func LookAt(eye, target, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, target, up)
}

// RotationYawPitchRoll builds a rotation matrix applying roll about Z, then pitch about X, then
// yaw about Y (R = Ry * Rx * Rz).
//
// Parameters:
//   - yaw, pitch, roll: angles in radians
//
// Returns:
//   - mgl32.Mat3: the rotation matrix
func RotationYawPitchRoll(yaw, pitch, roll float32) mgl32.Mat3 {
	return mgl32.Rotate3DY(yaw).Mul3(mgl32.Rotate3DX(pitch)).Mul3(mgl32.Rotate3DZ(roll))
}

// FacingYaw returns the signed angle about +Y that turns the Forward axis onto the horizontal
// direction of p. Points on the Y axis yield 0.
//
// Parameters:
//   - p: the position to face away from the origin
//
// Returns:
//   - float32: the yaw angle in radians within [-pi, pi]
func FacingYaw(p mgl32.Vec3) float32 {
	x, z := p.X(), p.Z()
	switch {
	case x == 0 && z == 0:
		return 0
	case x == 0 && z < 0:
		// atan2 returns -pi for a negative zero x.
		return math32.Pi
	}
	return math32.Atan2(x, z)
}

// ModelMatrix composes a world transform that scales uniformly, turns about +Y and then
// translates: M = T * Ry * S, which is scale x yaw x translation in row-vector notation.
//
// Parameters:
//   - position: translation in world space
//   - yaw: rotation about +Y in radians
//   - scale: uniform scale factor
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func ModelMatrix(position mgl32.Vec3, yaw, scale float32) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl32.HomogRotate3DY(yaw)).
		Mul4(mgl32.Scale3D(scale, scale, scale))
}
