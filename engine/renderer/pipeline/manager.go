package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

var (
	// ErrStageNotFound is returned when an effect references a stage name that is not registered.
	ErrStageNotFound = errors.New("pipeline: shader stage not registered")
	// ErrStageKind is returned when a stage name refers to a stage of the wrong type.
	ErrStageKind = errors.New("pipeline: shader stage has the wrong type")
	// ErrDetached is returned when a stage is registered while no device is attached.
	ErrDetached = errors.New("pipeline: no device attached")
)

// Manager registers shader stages and effects and tracks the effect bound on the device. Stage sets are only issued
// when the bound stage changes. Like the device it drives, it is used from the render thread only.
type Manager struct {
	dev     device.Device
	stages  *registry.Registry
	effects map[string]*effect
	logger  *slog.Logger

	current       *effect
	currentVertex device.VertexStage
	currentPixel  device.PixelStage
}

// ManagerBuilderOption is a functional option used to configure a Manager during construction.
type ManagerBuilderOption func(*Manager)

// WithLogger sets the logger of the manager.
//
// Parameters:
//   - l: the logger, nil selects the engine logger
//
// Returns:
//   - ManagerBuilderOption: a function that sets the logger
func WithLogger(l *slog.Logger) ManagerBuilderOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager with no device attached.
//
// Parameters:
//   - opts: a variadic list of ManagerBuilderOption functions
//
// Returns:
//   - *Manager: the manager
func NewManager(opts ...ManagerBuilderOption) *Manager {
	m := &Manager{effects: make(map[string]*effect)}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = common.LoggerOr(m.logger)
	m.stages = registry.New(m.logger)
	return m
}

// Attach makes dev the device stages are compiled on and binds are issued to, and forgets the bind cache.
// Passing nil detaches the manager.
func (m *Manager) Attach(dev device.Device) {
	m.dev = dev
	m.resetBindCache()
}

// Device returns the attached device, nil when detached.
func (m *Manager) Device() device.Device {
	return m.dev
}

func (m *Manager) resetBindCache() {
	m.current = nil
	m.currentVertex = nil
	m.currentPixel = nil
}

// RegisterVertexStage compiles a vertex stage from WGSL source and stores it under name. A zero layout is
// reflected from the source's vertex input struct. Registering an existing vertex stage name replaces it in place,
// so effects using it switch to the new program.
//
// Parameters:
//   - source: the WGSL source, which must declare a @vertex entry point
//   - name: the stage name
//   - layout: the vertex buffer layout, or a zero layout to reflect it
//
// Returns:
//   - error: error if the source has no vertex entry point, the name holds a pixel stage, or compilation fails
func (m *Manager) RegisterVertexStage(source, name string, layout device.VertexLayout) error {
	sh, err := shader.NewShader(name, shader.ShaderTypeVertex, source)
	if err != nil {
		return err
	}
	if layout.IsZero() {
		layout = sh.VertexLayout()
	}
	return m.registerStage(name, sh, layout)
}

// RegisterPixelStage compiles a pixel stage from WGSL source and stores it under name.
//
// Parameters:
//   - source: the WGSL source, which must declare a @fragment entry point
//   - name: the stage name
//
// Returns:
//   - error: error if the source has no fragment entry point, the name holds a vertex stage, or compilation fails
func (m *Manager) RegisterPixelStage(source, name string) error {
	sh, err := shader.NewShader(name, shader.ShaderTypeFragment, source)
	if err != nil {
		return err
	}
	return m.registerStage(name, sh, device.VertexLayout{})
}

func (m *Manager) registerStage(name string, sh shader.Shader, layout device.VertexLayout) error {
	if m.dev == nil {
		return ErrDetached
	}
	existing, exists := registry.Lookup[*Stage](m.stages, name)
	if exists && existing.Type() != sh.ShaderType() {
		return fmt.Errorf("%s stage %q already registered as %s: %w", sh.ShaderType(), name, existing.Type(), ErrStageKind)
	}

	s, err := newStage(m.dev, name, sh, layout)
	if err != nil {
		return err
	}
	if exists {
		existing.replace(s)
		m.resetBindCache()
		m.logger.Debug("replaced shader stage", "name", name, "type", sh.ShaderType())
		return nil
	}
	m.stages.Register(name, s)
	m.logger.Debug("registered shader stage", "name", name, "type", sh.ShaderType(), "entry", sh.EntryPoint())
	return nil
}

// DefineUniform maps a uniform block name onto a slot of a registered stage.
//
// Returns:
//   - error: ErrStageNotFound if the stage is missing
func (m *Manager) DefineUniform(stageName, name string, slot device.Slot) error {
	s, ok := m.Stage(stageName)
	if !ok {
		return fmt.Errorf("define uniform %s on %q: %w", name, stageName, ErrStageNotFound)
	}
	s.shader.DefineUniform(name, slot)
	return nil
}

// DefineTexture maps a texture slot label onto a slot of a registered stage.
//
// Returns:
//   - error: ErrStageNotFound if the stage is missing
func (m *Manager) DefineTexture(stageName, label string, slot device.TextureSlot) error {
	s, ok := m.Stage(stageName)
	if !ok {
		return fmt.Errorf("define texture %s on %q: %w", label, stageName, ErrStageNotFound)
	}
	s.shader.DefineTexture(label, slot)
	return nil
}

// RegisterEffect pairs two registered stages into an effect stored under name. Nothing is registered on failure.
//
// Parameters:
//   - name: the effect name
//   - vertexName: the name of a registered vertex stage
//   - pixelName: the name of a registered pixel stage
//
// Returns:
//   - Effect: the effect
//   - error: ErrStageNotFound or ErrStageKind when a referenced stage is missing or of the wrong type
func (m *Manager) RegisterEffect(name, vertexName, pixelName string) (Effect, error) {
	vs, err := m.stageOf(vertexName, shader.ShaderTypeVertex)
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", name, err)
	}
	ps, err := m.stageOf(pixelName, shader.ShaderTypeFragment)
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", name, err)
	}

	e := &effect{key: name, vertex: vs, pixel: ps}
	if prev, ok := m.effects[name]; ok && prev == m.current {
		m.current = nil
	}
	m.effects[name] = e
	return e, nil
}

func (m *Manager) stageOf(name string, want shader.ShaderType) (*Stage, error) {
	s, ok := m.Stage(name)
	if !ok {
		return nil, fmt.Errorf("%s stage %q: %w", want, name, ErrStageNotFound)
	}
	if s.Type() != want {
		return nil, fmt.Errorf("stage %q is a %s stage, want %s: %w", name, s.Type(), want, ErrStageKind)
	}
	return s, nil
}

// Stage returns the registered stage under name.
func (m *Manager) Stage(name string) (*Stage, bool) {
	return registry.Lookup[*Stage](m.stages, name)
}

// Effect returns the registered effect under name.
func (m *Manager) Effect(name string) (Effect, bool) {
	e, ok := m.effects[name]
	if !ok {
		return nil, false
	}
	return e, true
}

// Current returns the bound effect, nil if none is bound.
func (m *Manager) Current() Effect {
	if m.current == nil {
		return nil
	}
	return m.current
}

// BindEffect makes e the bound effect. The vertex stage and its input layout are set only when they differ from the
// bound vertex stage, and the pixel stage only when it differs from the bound pixel stage.
//
// Parameters:
//   - e: an effect registered with this manager
//
// Returns:
//   - error: error if e is foreign, a stage was released, or no device is attached
func (m *Manager) BindEffect(e Effect) error {
	eff, ok := e.(*effect)
	if !ok || eff == nil {
		return fmt.Errorf("bind effect: foreign effect %T", e)
	}
	if m.dev == nil {
		return ErrDetached
	}
	if eff.vertex.Released() || eff.pixel.Released() {
		return fmt.Errorf("bind effect %q: %w", eff.key, device.ErrReleased)
	}

	if eff.vertex.vertex != m.currentVertex {
		m.dev.SetVertexStage(eff.vertex.vertex)
		m.currentVertex = eff.vertex.vertex
	}
	if eff.pixel.pixel != m.currentPixel {
		m.dev.SetPixelStage(eff.pixel.pixel)
		m.currentPixel = eff.pixel.pixel
	}
	m.current = eff
	return nil
}

// BindUniform binds buf to every stage of the bound effect that declares a uniform block called name. Names the
// effect does not declare are skipped.
//
// Parameters:
//   - name: the uniform block name
//   - buf: the uniform buffer
//
// Returns:
//   - bool: whether any stage bound the buffer
func (m *Manager) BindUniform(name string, buf device.Buffer) bool {
	if m.current == nil || m.dev == nil {
		return false
	}
	bound := false
	for _, s := range m.current.stageSlots() {
		if slot, ok := s.stage.shader.UniformSlot(name); ok {
			m.dev.SetUniform(s.kind, slot, buf)
			bound = true
		}
	}
	if !bound {
		m.logger.Debug("uniform not declared by effect", "uniform", name, "effect", m.current.key)
	}
	return bound
}

// BindTexture binds a texture and its sampler to every stage of the bound effect that declares the slot label.
// Labels the effect does not declare are skipped.
//
// Parameters:
//   - label: the texture slot label
//   - tex: the texture
//   - sampler: the sampler read with the texture
//
// Returns:
//   - bool: whether any stage bound the texture
func (m *Manager) BindTexture(label string, tex device.Texture, sampler device.Sampler) bool {
	if m.current == nil || m.dev == nil {
		return false
	}
	bound := false
	for _, s := range m.current.stageSlots() {
		if slot, ok := s.stage.shader.TextureSlot(label); ok {
			m.dev.SetTexture(s.kind, slot, tex, sampler)
			bound = true
		}
	}
	if !bound {
		m.logger.Debug("texture slot not declared by effect", "slot", label, "effect", m.current.key)
	}
	return bound
}

// Restore recompiles every stage on dev and attaches to it.
func (m *Manager) Restore(dev device.Device) error {
	m.Attach(dev)
	return m.stages.Restore(dev)
}

// Release releases every stage, forgets every effect and detaches from the device.
func (m *Manager) Release() {
	m.stages.ReleaseAll()
	m.effects = make(map[string]*effect)
	m.Attach(nil)
}
