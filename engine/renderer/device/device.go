// package device defines the GPU device contract the render manager drives. Concrete implementations live next to the
// renderer (WebGPU) and in devicetest (in-memory fake).
package device

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ar/common"
)

var (
	// ErrDeviceLost signals that the GPU device or its surface was removed or reset and must be recreated.
	ErrDeviceLost = errors.New("device: GPU device lost")
	// ErrReleased is returned when a released handle or device is used.
	ErrReleased = errors.New("device: resource released")
	// ErrNoPass is returned when a draw is issued outside a cleared frame.
	ErrNoPass = errors.New("device: no active render pass")
)

// Stage identifies a programmable pipeline stage.
type Stage int

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota
	// StagePixel is the pixel (fragment) stage.
	StagePixel
)

func (s Stage) String() string {
	if s == StageVertex {
		return "vertex"
	}
	return "pixel"
}

// BufferKind selects how a buffer is used by the pipeline.
type BufferKind int

const (
	// BufferVertex holds vertex data.
	BufferVertex BufferKind = iota
	// BufferIndex holds 16-bit indices.
	BufferIndex
	// BufferUniform holds a constant block updated from the CPU.
	BufferUniform
)

// Topology is the primitive assembly mode of a mesh.
type Topology int

const (
	// TopologyTriangleList assembles every three indices into a triangle.
	TopologyTriangleList Topology = iota
	// TopologyTriangleStrip assembles a strip of triangles.
	TopologyTriangleStrip
	// TopologyLineList assembles every two indices into a line.
	TopologyLineList
)

// VertexFormat is the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// Size returns the attribute size in bytes.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	}
	return 4
}

// VertexAttribute describes one shader input of a vertex buffer.
type VertexAttribute struct {
	Location uint32
	Format   VertexFormat
	Offset   uint64
}

// VertexLayout describes the interleaved layout of a single vertex buffer. A zero layout means "not specified".
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// IsZero reports whether the layout carries no attributes.
func (l VertexLayout) IsZero() bool {
	return l.Stride == 0 && len(l.Attributes) == 0
}

// Slot is the binding location of a uniform block.
type Slot struct {
	Group   uint32
	Binding uint32
}

// TextureSlot is the binding location of a texture and the sampler that reads it.
type TextureSlot struct {
	Group          uint32
	Binding        uint32
	SamplerBinding uint32
	HasSampler     bool
}

// FilterMode selects texel filtering.
type FilterMode int

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// AddressMode selects how coordinates outside [0, 1] are resolved.
type AddressMode int

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
	AddressMirrorRepeat
)

// SamplerDescriptor configures a sampler.
type SamplerDescriptor struct {
	Label                              string
	MinFilter, MagFilter, MipmapFilter FilterMode
	AddressU, AddressV, AddressW       AddressMode
	MaxAnisotropy                      uint16
}

// DefaultSampler returns a trilinear, repeating sampler with 16x anisotropy.
//
// Parameters:
//   - label: the debug label of the sampler
//
// Returns:
//   - SamplerDescriptor: the descriptor
func DefaultSampler(label string) SamplerDescriptor {
	return SamplerDescriptor{
		Label:         label,
		MinFilter:     FilterLinear,
		MagFilter:     FilterLinear,
		MipmapFilter:  FilterLinear,
		AddressU:      AddressRepeat,
		AddressV:      AddressRepeat,
		AddressW:      AddressRepeat,
		MaxAnisotropy: 16,
	}
}

// Color is a linear RGBA clear color.
type Color struct {
	R, G, B, A float64
}

// Transparent is the clear color used for overlays composited above a video feed.
var Transparent = Color{}

// SurfaceInfo describes the drawable acquired for the current frame.
type SurfaceInfo struct {
	Width  uint32
	Height uint32
}

// Config configures device creation.
type Config struct {
	// Width and Height are the initial drawable dimensions in pixels.
	Width, Height uint32
	// Target is the platform surface the device presents into. Its concrete type is backend-specific.
	Target any
	// VSync requests presentation synchronized to the display refresh.
	VSync bool
}

// Factory creates a device bound to a target surface.
type Factory func(cfg Config) (Device, error)

// Buffer is a GPU buffer handle.
type Buffer interface {
	Size() uint64
	Release()
}

// Texture is a sampled 2D texture handle.
type Texture interface {
	Width() uint32
	Height() uint32
	Release()
}

// Sampler is a texture sampler handle.
type Sampler interface {
	Release()
}

// VertexStage is a compiled vertex stage together with its input layout.
type VertexStage interface {
	Release()
}

// PixelStage is a compiled pixel stage.
type PixelStage interface {
	Release()
}

// DepthBuffer is a depth attachment sized to the surface.
type DepthBuffer interface {
	Width() uint32
	Height() uint32
	Release()
}

// Device is the GPU device and immediate context. All methods are called from the render thread only.
// State set through the Set* methods persists until it is replaced, across frames.
type Device interface {
	// CreateBuffer creates a buffer of the given kind initialized with data.
	//
	// Parameters:
	//   - label: debug label
	//   - kind: vertex, index or uniform
	//   - data: initial contents, its length is the buffer size
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: error if creation fails
	CreateBuffer(label string, kind BufferKind, data []byte) (Buffer, error)

	// WriteBuffer overwrites a buffer's contents from the start.
	//
	// Parameters:
	//   - buf: destination buffer
	//   - data: the bytes to upload, no longer than the buffer
	//
	// Returns:
	//   - error: error if the buffer is released or too small
	WriteBuffer(buf Buffer, data []byte) error

	// CreateTexture creates an immutable RGBA texture from staged pixels.
	CreateTexture(label string, staged common.TextureStagingData) (Texture, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateVertexStage compiles a vertex stage and binds the given input layout to it.
	//
	// Parameters:
	//   - label: debug label
	//   - source: the WGSL module source
	//   - entryPoint: the vertex entry function
	//   - layout: the vertex buffer layout consumed by the stage
	//
	// Returns:
	//   - VertexStage: the compiled stage
	//   - error: error if compilation fails
	CreateVertexStage(label, source, entryPoint string, layout VertexLayout) (VertexStage, error)

	// CreatePixelStage compiles a pixel stage.
	CreatePixelStage(label, source, entryPoint string) (PixelStage, error)

	// CreateDepthBuffer creates a depth attachment.
	CreateDepthBuffer(width, height uint32) (DepthBuffer, error)

	// BeginSurface acquires the drawable for a new frame.
	//
	// Returns:
	//   - SurfaceInfo: the acquired drawable's dimensions
	//   - error: ErrDeviceLost when the device or surface was removed or reset, another error otherwise
	BeginSurface() (SurfaceInfo, error)

	// Clear begins drawing into the acquired drawable, clearing color and, when depth is not nil, depth to 1.0.
	Clear(color Color, depth DepthBuffer) error

	// SetVertexStage makes vs the current vertex stage and input layout.
	SetVertexStage(vs VertexStage)

	// SetPixelStage makes ps the current pixel stage.
	SetPixelStage(ps PixelStage)

	// SetUniform binds buf to a uniform slot of a stage.
	SetUniform(stage Stage, slot Slot, buf Buffer)

	// SetTexture binds a texture and its sampler to a texture slot of a stage.
	SetTexture(stage Stage, slot TextureSlot, tex Texture, sampler Sampler)

	// SetMesh binds a vertex buffer, a 16-bit index buffer and the primitive topology.
	SetMesh(vertices, indices Buffer, stride uint64, topology Topology)

	// DrawIndexed draws indexCount indices with the current state.
	//
	// Returns:
	//   - error: ErrNoPass outside a cleared frame, or an error if the state is incomplete
	DrawIndexed(indexCount uint32) error

	// Present submits the frame and presents the drawable.
	//
	// Returns:
	//   - error: ErrDeviceLost when presentation fails because the device was lost
	Present() error

	// Release destroys the device and every object it still caches internally. Handles created by the
	// device must still be released by their owners.
	Release()
}
