// package shader reflects WGSL stage sources: entry points, vertex input layouts and the named uniform blocks and
// texture slots a stage declares.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// ErrNoEntryPoint is returned when a source does not declare an entry point for the requested stage.
var ErrNoEntryPoint = errors.New("shader: no entry point for stage")

// ShaderType identifies the stage a shader source is compiled for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage, declared with @vertex.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the pixel stage, declared with @fragment.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeVertex {
		return "vertex"
	}
	return "fragment"
}

// ResourceKind is the category of a bound shader resource.
type ResourceKind int

const (
	ResourceUnknown ResourceKind = iota
	ResourceUniform
	ResourceStorage
	ResourceTexture
	ResourceSampler
)

// Binding is one @group/@binding declaration.
type Binding struct {
	Group    uint32
	Binding  uint32
	Name     string
	TypeName string
	Kind     ResourceKind
	// Size is the byte size of the bound type for buffer bindings, 0 when unknown.
	Size uint64
}

// TypeParams splits the bound type into its base name and parameters, e.g. ("texture_2d", "f32").
func (b Binding) TypeParams() (string, string) {
	return splitTypeParams(b.TypeName)
}

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	vertexLayout device.VertexLayout
	bindings     []Binding
	uniforms     map[string]device.Slot
	textures     map[string]device.TextureSlot
}

// Shader is a parsed WGSL stage source. The slot maps are derived from the declarations and can be extended with
// DefineUniform and DefineTexture when a stage binds a block under a different logical name.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType retrieves the stage this shader is compiled for.
	//
	// Returns:
	//   - ShaderType: vertex or fragment
	ShaderType() ShaderType

	// EntryPoint retrieves the name of the stage entry function.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// VertexLayout retrieves the vertex buffer layout reflected from the vertex input struct.
	// Fragment shaders return a zero layout.
	//
	// Returns:
	//   - device.VertexLayout: the reflected layout
	VertexLayout() device.VertexLayout

	// Bindings retrieves every resource declaration sorted by group and binding.
	//
	// Returns:
	//   - []Binding: the declarations
	Bindings() []Binding

	// UniformSlot looks up the slot of a uniform block by its logical name.
	//
	// Parameters:
	//   - name: the uniform block name
	//
	// Returns:
	//   - device.Slot: the slot
	//   - bool: whether the stage declares the name
	UniformSlot(name string) (device.Slot, bool)

	// TextureSlot looks up the slot of a texture by its slot label.
	//
	// Parameters:
	//   - label: the texture slot label
	//
	// Returns:
	//   - device.TextureSlot: the slot, including its paired sampler binding when one exists
	//   - bool: whether the stage declares the label
	TextureSlot(label string) (device.TextureSlot, bool)

	// DefineUniform maps a logical uniform name onto a slot, overriding any reflected mapping.
	//
	// Parameters:
	//   - name: the logical name used by uniform buffers
	//   - slot: the binding location
	DefineUniform(name string, slot device.Slot)

	// DefineTexture maps a texture slot label onto a slot, overriding any reflected mapping.
	//
	// Parameters:
	//   - label: the slot label used by textures
	//   - slot: the binding location
	DefineTexture(label string, slot device.TextureSlot)
}

var _ Shader = &shader{}

// NewShader parses a WGSL source for one stage.
// Uniform blocks are keyed by their variable name; textures by their variable name, paired with the sampler named
// "<texture>Sampler" in the same group, or else the lowest sampler binding in that group.
//
// Parameters:
//   - key: unique identifier for the shader
//   - shaderType: the stage the source is compiled for
//   - source: the WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrNoEntryPoint when the source has no entry point for shaderType
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	entry := parseEntryPoint(source, shaderType)
	if entry == "" {
		return nil, fmt.Errorf("%s shader %q: %w", shaderType, key, ErrNoEntryPoint)
	}

	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		entryPoint: entry,
		bindings:   parseBindings(source),
		uniforms:   make(map[string]device.Slot),
		textures:   make(map[string]device.TextureSlot),
	}
	if shaderType == ShaderTypeVertex {
		s.vertexLayout = parseVertexLayout(source)
	}
	s.reflectSlots()
	return s, nil
}

func (s *shader) reflectSlots() {
	samplers := make(map[uint32][]Binding)
	for _, b := range s.bindings {
		if b.Kind == ResourceSampler {
			samplers[b.Group] = append(samplers[b.Group], b)
		}
	}

	for _, b := range s.bindings {
		switch b.Kind {
		case ResourceUniform:
			s.uniforms[b.Name] = device.Slot{Group: b.Group, Binding: b.Binding}
		case ResourceTexture:
			slot := device.TextureSlot{Group: b.Group, Binding: b.Binding}
			if sampler, ok := pairSampler(b.Name, samplers[b.Group]); ok {
				slot.SamplerBinding = sampler.Binding
				slot.HasSampler = true
			}
			s.textures[b.Name] = slot
		}
	}
}

// pairSampler picks the sampler for a texture; candidates are sorted by binding.
func pairSampler(texture string, candidates []Binding) (Binding, bool) {
	if len(candidates) == 0 {
		return Binding{}, false
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Name, texture+"Sampler") {
			return c, true
		}
	}
	return candidates[0], true
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) VertexLayout() device.VertexLayout {
	return s.vertexLayout
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) UniformSlot(name string) (device.Slot, bool) {
	slot, ok := s.uniforms[name]
	return slot, ok
}

func (s *shader) TextureSlot(label string) (device.TextureSlot, bool) {
	slot, ok := s.textures[label]
	return slot, ok
}

func (s *shader) DefineUniform(name string, slot device.Slot) {
	s.uniforms[name] = slot
}

func (s *shader) DefineTexture(label string, slot device.TextureSlot) {
	s.textures[label] = slot
}
