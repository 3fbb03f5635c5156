// package renderer owns the GPU device of the overlay: it creates and recovers the device, opens and presents
// frames, and keeps every GPU asset in a registry so the assets survive a device re-creation.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/texture"
)

var (
	// ErrSetup is returned when the device could not be created or the registered assets could not be restored
	// onto it.
	ErrSetup = errors.New("renderer: device setup failed")
	// ErrNoFrame is returned by EndFrame when no frame was begun.
	ErrNoFrame = errors.New("renderer: no frame in progress")
)

// State is the lifecycle state of a Renderer.
type State int

const (
	// StateUninitialized holds no device. Init moves it to StateReady.
	StateUninitialized State = iota
	// StateReady holds a working device.
	StateReady
	// StateLost lost its device. Init restores every registered asset onto a new one.
	StateLost
	// StateReleased released every asset and the device.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateLost:
		return "lost"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	factory      device.Factory
	vsync        bool
	depthEnabled bool
	clearColor   device.Color
	logger       *slog.Logger

	assets  *registry.Registry
	shaders *pipeline.Manager

	dev     device.Device
	depth   device.DepthBuffer
	inFrame bool
	state   State

	width, height uint32
	target        any
}

// Renderer defines the interface for the rendering system.
//
// The Renderer drives one device through its lifecycle. It recovers from a lost device by creating a new one and
// restoring every registered asset onto it, at most once per BeginFrame. All methods are meant to be called from the
// render thread; State and the size accessors may be read from any goroutine.
type Renderer interface {
	// Init creates a device for a surface of the given size. Any previous device is torn down first.
	// When assets are already registered (re-initialization after a loss) they are restored onto the new device.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//   - target: the platform surface handle passed to the device factory
	//
	// Returns:
	//   - error: an error wrapping ErrSetup if the device could not be created or the assets restored
	Init(width, height uint32, target any) error

	// Resize re-initializes the device for a new surface size, keeping the current target.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error wrapping ErrSetup if re-initialization fails
	Resize(width, height uint32) error

	// BeginFrame acquires the surface and clears it. A lost device is re-created and the acquisition retried once.
	//
	// Returns:
	//   - bool: true if a frame is open and draws may be issued
	BeginFrame() bool

	// EndFrame presents the open frame. A failed present releases everything and leaves the renderer uninitialized.
	//
	// Returns:
	//   - error: ErrNoFrame if no frame is open, or the wrapped present error
	EndFrame() error

	// Reset tears down the depth buffer and the device. Registered assets are kept for a later Init.
	Reset()

	// Release releases every registered asset, every shader stage and the device. Calling it again does nothing.
	Release()

	// State returns the lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Ready reports whether a working device is held.
	//
	// Returns:
	//   - bool: true when the state is StateReady
	Ready() bool

	// Width returns the surface width the device was created for.
	//
	// Returns:
	//   - uint32: the width in pixels
	Width() uint32

	// Height returns the surface height the device was created for.
	//
	// Returns:
	//   - uint32: the height in pixels
	Height() uint32

	// Aspect returns width over height, 1 for an empty surface.
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Device returns the current device, nil if none is held.
	//
	// Returns:
	//   - device.Device: the device
	Device() device.Device

	// Registry returns the registry every GPU asset is kept in.
	//
	// Returns:
	//   - *registry.Registry: the asset registry
	Registry() *registry.Registry

	// Shaders returns the shader manager bound to the current device.
	//
	// Returns:
	//   - *pipeline.Manager: the shader manager
	Shaders() *pipeline.Manager

	// CreateTexture decodes an encoded image, uploads it and registers it under name, replacing any texture
	// registered under that name.
	//
	// Parameters:
	//   - name: the registry name of the texture
	//   - slot: the texture slot label it binds to
	//   - image: PNG, JPEG, BMP or WebP bytes
	//
	// Returns:
	//   - *texture.Texture2D: the registered texture
	//   - error: an error if decoding or creation fails, nothing is registered then
	CreateTexture(name, slot string, image []byte) (*texture.Texture2D, error)

	// Texture returns the texture registered under name.
	//
	// Parameters:
	//   - name: the registry name
	//
	// Returns:
	//   - *texture.Texture2D: the texture
	//   - bool: false if no texture is registered under name
	Texture(name string) (*texture.Texture2D, bool)

	// Mesh returns the mesh registered under name.
	//
	// Parameters:
	//   - name: the registry name
	//
	// Returns:
	//   - *model.Mesh: the mesh
	//   - bool: false if no mesh is registered under name
	Mesh(name string) (*model.Mesh, bool)
}

var _ Renderer = &renderer{}

// NewRenderer creates an uninitialized Renderer. Call Init to create the device.
//
// Parameters:
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer without a device
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:           &sync.Mutex{},
		factory:      factoryFor(BackendTypeWGPU),
		depthEnabled: true,
		clearColor:   device.Transparent,
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = common.LoggerOr(r.logger)
	r.assets = registry.New(r.logger)
	r.shaders = pipeline.NewManager(pipeline.WithLogger(r.logger))
	return r
}

func (r *renderer) Init(width, height uint32, target any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.init(width, height, target)
}

func (r *renderer) init(width, height uint32, target any) error {
	r.reset()
	r.state = StateUninitialized

	dev, err := r.factory(device.Config{Width: width, Height: height, Target: target, VSync: r.vsync})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSetup, err)
	}
	r.dev = dev
	r.width, r.height, r.target = width, height, target

	if err := r.shaders.Restore(dev); err != nil {
		r.reset()
		return fmt.Errorf("%w: shaders: %w", ErrSetup, err)
	}
	if r.assets.Len() > 0 {
		if err := r.assets.Restore(dev); err != nil {
			r.reset()
			return fmt.Errorf("%w: assets: %w", ErrSetup, err)
		}
		r.logger.Info("restored assets onto new device", "assets", r.assets.Len())
	}

	r.state = StateReady
	r.logger.Info("device created", "width", width, "height", height)
	return nil
}

func (r *renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.init(width, height, r.target)
}

func (r *renderer) BeginFrame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beginFrame(true)
}

func (r *renderer) beginFrame(retry bool) bool {
	if r.dev == nil {
		return false
	}

	info, err := r.dev.BeginSurface()
	if err != nil {
		if !retry {
			r.logger.Warn("surface acquisition failed after device re-creation", "error", err)
			return false
		}
		if errors.Is(err, device.ErrDeviceLost) {
			r.logger.Warn("device lost, re-creating", "error", err)
			r.state = StateLost
			if initErr := r.init(r.width, r.height, r.target); initErr == nil && r.beginFrame(false) {
				return true
			}
			r.releaseAll()
			r.state = StateUninitialized
			return false
		}
		r.logger.Warn("surface acquisition failed", "error", err)
		r.reset()
		r.state = StateLost
		return false
	}

	if r.depthEnabled && r.depth == nil {
		depth, depthErr := r.dev.CreateDepthBuffer(info.Width, info.Height)
		if depthErr != nil {
			r.logger.Warn("depth buffer creation failed, drawing without depth", "error", depthErr)
		} else {
			r.depth = depth
		}
	}

	if err := r.dev.Clear(r.clearColor, r.depth); err != nil {
		r.logger.Warn("clear failed", "error", err)
		r.reset()
		r.state = StateLost
		return false
	}
	r.inFrame = true
	r.state = StateReady
	return true
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dev == nil || !r.inFrame {
		return ErrNoFrame
	}
	r.inFrame = false
	if err := r.dev.Present(); err != nil {
		r.logger.Warn("present failed, releasing renderer", "error", err)
		r.releaseAll()
		r.state = StateUninitialized
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func (r *renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// reset releases the depth buffer and the device, leaving registered assets in place.
func (r *renderer) reset() {
	if r.depth != nil {
		r.depth.Release()
		r.depth = nil
	}
	if r.dev != nil {
		r.dev.Release()
		r.dev = nil
	}
	r.inFrame = false
	r.shaders.Attach(nil)
}

func (r *renderer) releaseAll() {
	r.assets.ReleaseAll()
	r.shaders.Release()
	r.reset()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateReleased {
		return
	}
	r.releaseAll()
	r.state = StateReleased
}

func (r *renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *renderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateReady && r.dev != nil
}

func (r *renderer) Width() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

func (r *renderer) Height() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

func (r *renderer) Aspect() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.width == 0 || r.height == 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

func (r *renderer) Device() device.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dev
}

func (r *renderer) Registry() *registry.Registry {
	return r.assets
}

func (r *renderer) Shaders() *pipeline.Manager {
	return r.shaders
}

func (r *renderer) CreateTexture(name, slot string, image []byte) (*texture.Texture2D, error) {
	staged, err := common.DecodeImage(image)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", name, err)
	}
	tex, err := texture.New(r.shaders, name, slot, staged, device.DefaultSampler(name))
	if err != nil {
		return nil, err
	}
	r.assets.Register(name, tex)
	return tex, nil
}

func (r *renderer) Texture(name string) (*texture.Texture2D, bool) {
	return registry.Lookup[*texture.Texture2D](r.assets, name)
}

func (r *renderer) Mesh(name string) (*model.Mesh, bool) {
	return registry.Lookup[*model.Mesh](r.assets, name)
}

// CreateBuffer creates a uniform buffer mirroring value and registers it under key, replacing any asset registered
// there. The buffer binds to the uniform block called slotName.
//
// Parameters:
//   - r: the renderer owning the device
//   - key: the unique registry key, e.g. "model/creature/42"
//   - slotName: the uniform block name, e.g. "model"
//   - value: the initial CPU-side value
//
// Returns:
//   - *buffer.Uniform[T]: the registered buffer
//   - error: an error if no device is held or creation fails
func CreateBuffer[T any](r Renderer, key, slotName string, value T) (*buffer.Uniform[T], error) {
	u, err := buffer.New(r.Shaders(), key, slotName, value)
	if err != nil {
		return nil, err
	}
	r.Registry().Register(key, u)
	return u, nil
}

// CreateMesh uploads a triangle list of vertices of type V and registers it under name. The vertex stride is the
// size of V.
//
// Parameters:
//   - r: the renderer owning the device
//   - name: the unique registry name
//   - vertices: the vertex values, V must be a plain value type matching the vertex stage input
//   - indices: the 16-bit triangle indices
//
// Returns:
//   - *model.Mesh: the registered mesh
//   - error: an error if the data is malformed, no device is held or creation fails
func CreateMesh[V any](r Renderer, name string, vertices []V, indices []uint16) (*model.Mesh, error) {
	var zero V
	m, err := model.NewMesh(r.Shaders(), name, common.SliceToBytes(vertices), uint64(unsafe.Sizeof(zero)), indices, device.TopologyTriangleList)
	if err != nil {
		return nil, err
	}
	r.Registry().Register(name, m)
	return m, nil
}
