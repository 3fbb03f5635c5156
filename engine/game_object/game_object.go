// package game_object binds a registered mesh, a per-instance model uniform and an ordered list of textures into one
// drawable unit.
package game_object

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrMeshNotRegistered is returned when an instance draws without a live mesh.
var ErrMeshNotRegistered = errors.New("game_object: mesh not registered")

type instance struct {
	id       string
	enabled  atomic.Bool
	mesh     *model.Mesh
	uniform  *buffer.Uniform[ModelUniform]
	textures []*texture.Texture2D

	position mgl32.Vec3
	yaw      float32
	scale    float32
}

// Instance is a drawable pairing of a shared mesh with its own model uniform and textures.
// It is used from the render thread only.
type Instance interface {
	// ID returns the identifier the instance was built with.
	//
	// Returns:
	//   - string: the instance id, empty if unset
	ID() string

	// Enabled returns whether the instance is drawn.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether the instance is drawn. Disabled instances draw nothing and return no error.
	//
	// Parameters:
	//   - enabled: true to draw the instance
	SetEnabled(enabled bool)

	// Mesh returns the mesh drawn by the instance.
	//
	// Returns:
	//   - *model.Mesh: the mesh, nil if none was given
	Mesh() *model.Mesh

	// Uniform returns the per-instance model uniform.
	//
	// Returns:
	//   - *buffer.Uniform[ModelUniform]: the uniform
	Uniform() *buffer.Uniform[ModelUniform]

	// Textures returns the attached textures in bind order.
	//
	// Returns:
	//   - []*texture.Texture2D: the textures
	Textures() []*texture.Texture2D

	// AttachTexture appends a texture that is bound before every draw.
	//
	// Parameters:
	//   - tex: the texture to bind
	AttachTexture(tex *texture.Texture2D)

	// Transform returns the last transform set on the instance.
	//
	// Returns:
	//   - position: the world position
	//   - yaw: the rotation about +Y in radians
	//   - scale: the uniform scale factor
	Transform() (position mgl32.Vec3, yaw float32, scale float32)

	// SetTransform writes the world matrix of position, yaw and scale into the model uniform.
	//
	// Parameters:
	//   - position: the world position
	//   - yaw: the rotation about +Y in radians
	//   - scale: the uniform scale factor
	SetTransform(position mgl32.Vec3, yaw, scale float32)

	// Draw binds every texture, the mesh and the model uniform, then issues one indexed draw.
	// The uniform is uploaded on every draw.
	//
	// Returns:
	//   - error: ErrMeshNotRegistered if the mesh is missing or released, or the device error
	Draw() error

	// Release releases the per-instance uniform. The shared mesh and textures stay registered.
	Release()
}

var _ Instance = &instance{}

// NewInstance creates an enabled Instance drawing mesh with the given model uniform.
//
// Parameters:
//   - mesh: the registered mesh to draw
//   - uniform: the per-instance model uniform, owned by the instance
//   - options: functional options to configure the instance
//
// Returns:
//   - Instance: the newly created instance
func NewInstance(mesh *model.Mesh, uniform *buffer.Uniform[ModelUniform], options ...InstanceBuilderOption) Instance {
	inst := &instance{
		mesh:    mesh,
		uniform: uniform,
		scale:   1,
	}
	inst.enabled.Store(true)
	for _, option := range options {
		option(inst)
	}
	inst.SetTransform(inst.position, inst.yaw, inst.scale)
	return inst
}

func (i *instance) ID() string {
	return i.id
}

func (i *instance) Enabled() bool {
	return i.enabled.Load()
}

func (i *instance) SetEnabled(enabled bool) {
	i.enabled.Store(enabled)
}

func (i *instance) Mesh() *model.Mesh {
	return i.mesh
}

func (i *instance) Uniform() *buffer.Uniform[ModelUniform] {
	return i.uniform
}

func (i *instance) Textures() []*texture.Texture2D {
	return i.textures
}

func (i *instance) AttachTexture(tex *texture.Texture2D) {
	if tex == nil {
		return
	}
	i.textures = append(i.textures, tex)
}

func (i *instance) Transform() (mgl32.Vec3, float32, float32) {
	return i.position, i.yaw, i.scale
}

func (i *instance) SetTransform(position mgl32.Vec3, yaw, scale float32) {
	i.position, i.yaw, i.scale = position, yaw, scale
	if i.uniform == nil {
		return
	}
	i.uniform.Set(ModelUniform{World: common.ModelMatrix(position, yaw, scale)})
}

func (i *instance) Draw() error {
	if !i.Enabled() {
		return nil
	}
	if i.mesh == nil || i.mesh.Released() {
		return fmt.Errorf("draw instance %q: %w", i.id, ErrMeshNotRegistered)
	}
	if i.uniform == nil {
		return fmt.Errorf("draw instance %q: no model uniform", i.id)
	}

	for _, tex := range i.textures {
		if err := tex.Bind(); err != nil {
			return fmt.Errorf("draw instance %q: %w", i.id, err)
		}
	}
	if err := i.mesh.Bind(); err != nil {
		return fmt.Errorf("draw instance %q: %w", i.id, err)
	}
	if err := i.uniform.Bind(); err != nil {
		return fmt.Errorf("draw instance %q: %w", i.id, err)
	}
	if err := i.mesh.Draw(); err != nil {
		return fmt.Errorf("draw instance %q: %w", i.id, err)
	}
	return nil
}

func (i *instance) Release() {
	if i.uniform != nil {
		i.uniform.Release()
	}
}
