package game_object

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// InstanceBuilderOption is a functional option for configuring an Instance during construction.
type InstanceBuilderOption func(*instance)

// WithID sets the ID of the Instance.
//
// Parameters:
//   - id: identifier of the entity the instance draws
//
// Returns:
//   - InstanceBuilderOption: functional option to set the ID
func WithID(id string) InstanceBuilderOption {
	return func(inst *instance) {
		inst.id = id
	}
}

// WithEnabled sets whether the Instance is drawn.
//
// Parameters:
//   - enabled: true to draw the instance, false to skip it
//
// Returns:
//   - InstanceBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) InstanceBuilderOption {
	return func(inst *instance) {
		inst.enabled.Store(enabled)
	}
}

// WithTexture appends a texture to the Instance's bind list.
//
// Parameters:
//   - tex: the texture to bind before drawing
//
// Returns:
//   - InstanceBuilderOption: functional option to attach the texture
func WithTexture(tex *texture.Texture2D) InstanceBuilderOption {
	return func(inst *instance) {
		inst.AttachTexture(tex)
	}
}

// WithTransform sets the initial world transform written into the model uniform.
//
// Parameters:
//   - position: the world position
//   - yaw: the rotation about +Y in radians
//   - scale: the uniform scale factor
//
// Returns:
//   - InstanceBuilderOption: functional option to set the initial transform
func WithTransform(position mgl32.Vec3, yaw, scale float32) InstanceBuilderOption {
	return func(inst *instance) {
		inst.position, inst.yaw, inst.scale = position, yaw, scale
	}
}
