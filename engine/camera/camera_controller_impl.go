package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultEye is the eye position of an orientation controller: two meters above the player.
var DefaultEye = mgl32.Vec3{0, 2, 0}

// orientationController is the orientation-driven implementation of CameraController.
// The eye stays fixed and the view turns with the device rotation.
type orientationController struct {
	mu *sync.Mutex

	eye    mgl32.Vec3
	source Orientation
}

// OrientationController is a CameraController whose view follows a device rotation.
type OrientationController interface {
	CameraController

	// SetEye moves the eye.
	//
	// Parameters:
	//   - eye: the world-space eye position
	SetEye(eye mgl32.Vec3)

	// SetOrientation replaces the rotation source. nil selects the identity.
	//
	// Parameters:
	//   - src: the rotation source
	SetOrientation(src Orientation)
}

var _ OrientationController = &orientationController{}

// NewOrientationController creates a controller that looks along R*(0,0,1) with up R*(0,1,0), R being the rotation of
// the attached Orientation. Without an Orientation the rotation is the identity.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrientationController: the newly created controller
func NewOrientationController(options ...CameraControllerOption) OrientationController {
	oc := &orientationController{
		mu:  &sync.Mutex{},
		eye: DefaultEye,
	}
	for _, option := range options {
		option(oc)
	}
	return oc
}

// rotation reads the source outside of the controller lock: the source guards itself.
func (oc *orientationController) rotation() mgl32.Mat3 {
	oc.mu.Lock()
	src := oc.source
	oc.mu.Unlock()
	if src == nil {
		return mgl32.Ident3()
	}
	return src.Matrix()
}

func (oc *orientationController) Position() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.eye
}

func (oc *orientationController) Target() mgl32.Vec3 {
	forward := oc.rotation().Mul3x1(common.Forward)
	return oc.Position().Add(forward)
}

func (oc *orientationController) Up() mgl32.Vec3 {
	return oc.rotation().Mul3x1(common.Up)
}

func (oc *orientationController) SetEye(eye mgl32.Vec3) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.eye = eye
}

func (oc *orientationController) SetOrientation(src Orientation) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.source = src
}

// fixedController is a CameraController with constant state, used where no sensors exist.
type fixedController struct {
	eye, target, up mgl32.Vec3
}

var _ CameraController = fixedController{}

// NewFixedController creates a controller that always returns the given eye, target and up.
//
// Parameters:
//   - eye: the eye position
//   - target: the look-at point
//   - up: the up direction
//
// Returns:
//   - CameraController: the controller
func NewFixedController(eye, target, up mgl32.Vec3) CameraController {
	return fixedController{eye: eye, target: target, up: up}
}

func (fc fixedController) Position() mgl32.Vec3 { return fc.eye }
func (fc fixedController) Target() mgl32.Vec3   { return fc.target }
func (fc fixedController) Up() mgl32.Vec3       { return fc.up }
