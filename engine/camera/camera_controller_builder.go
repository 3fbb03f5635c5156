package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring an orientation CameraController.
type CameraControllerOption func(*orientationController)

// WithEye sets the eye position.
//
// Parameters:
//   - eye: the world-space eye position
//
// Returns:
//   - CameraControllerOption: functional option to set the eye
func WithEye(eye mgl32.Vec3) CameraControllerOption {
	return func(oc *orientationController) {
		oc.eye = eye
	}
}

// WithOrientation sets the rotation source read on every Update.
//
// Parameters:
//   - src: the rotation source, typically a sensor OrientationFilter
//
// Returns:
//   - CameraControllerOption: functional option to set the source
func WithOrientation(src Orientation) CameraControllerOption {
	return func(oc *orientationController) {
		oc.source = src
	}
}
