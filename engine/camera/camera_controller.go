package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController owns the positional state of a camera. The Camera reads from it on every Update and derives its
// view matrix.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: the world-space target position
	Target() mgl32.Vec3

	// Up returns the up direction of the view.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3
}

// Orientation supplies the current device rotation. The sensor OrientationFilter satisfies it.
type Orientation interface {
	Matrix() mgl32.Mat3
}
