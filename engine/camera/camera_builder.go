package camera

import "math"

// CameraBuilderOption is a functional option for NewCamera. Options with non-positive values keep the default.
type CameraBuilderOption func(*cameraImpl)

// WithFov sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in radians, below pi
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if fov > 0 && fov < math.Pi {
			c.fov = fov
		}
	}
}

// WithAspect sets the initial width / height ratio. The scene overrides it with the renderer aspect on every
// Setup and Update.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithNear sets the near plane distance.
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if near > 0 {
			c.near = near
		}
	}
}

// WithFar sets the far plane distance. It must lie beyond the near plane when the camera is built.
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if far > 0 {
			c.far = far
		}
	}
}

// WithController sets the controller the view matrix is derived from.
//
// Parameters:
//   - ctrl: the controller, e.g. an OrientationController fed by the sensor filter
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		if ctrl != nil {
			c.controller = ctrl
		}
	}
}
