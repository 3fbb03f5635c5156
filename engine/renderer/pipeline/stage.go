package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
)

// Stage is a compiled shader stage owned by the shader manager's registry. It keeps its reflected source so the
// GPU handle can be rebuilt on a new device.
type Stage struct {
	name   string
	shader shader.Shader
	layout device.VertexLayout

	vertex device.VertexStage
	pixel  device.PixelStage
}

var (
	_ registry.Asset    = &Stage{}
	_ registry.Restorer = &Stage{}
)

func newStage(dev device.Device, name string, sh shader.Shader, layout device.VertexLayout) (*Stage, error) {
	s := &Stage{name: name, shader: sh, layout: layout}
	if err := s.create(dev); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stage) create(dev device.Device) error {
	switch s.shader.ShaderType() {
	case shader.ShaderTypeVertex:
		vs, err := dev.CreateVertexStage(s.name, s.shader.Source(), s.shader.EntryPoint(), s.layout)
		if err != nil {
			return fmt.Errorf("failed to create vertex stage %s: %w", s.name, err)
		}
		s.vertex = vs
	default:
		ps, err := dev.CreatePixelStage(s.name, s.shader.Source(), s.shader.EntryPoint())
		if err != nil {
			return fmt.Errorf("failed to create pixel stage %s: %w", s.name, err)
		}
		s.pixel = ps
	}
	return nil
}

// Name returns the registration name of the stage.
func (s *Stage) Name() string {
	return s.name
}

// Shader returns the reflected source of the stage.
func (s *Stage) Shader() shader.Shader {
	return s.shader
}

// Type returns the stage type.
func (s *Stage) Type() shader.ShaderType {
	return s.shader.ShaderType()
}

// Layout returns the vertex input layout, zero for pixel stages.
func (s *Stage) Layout() device.VertexLayout {
	return s.layout
}

// Released reports whether the stage has no live GPU handle.
func (s *Stage) Released() bool {
	return s.vertex == nil && s.pixel == nil
}

func (s *Stage) Kind() registry.Kind {
	return registry.KindShaderStage
}

func (s *Stage) Release() {
	if s.vertex != nil {
		s.vertex.Release()
		s.vertex = nil
	}
	if s.pixel != nil {
		s.pixel.Release()
		s.pixel = nil
	}
}

func (s *Stage) Restore(dev device.Device) error {
	s.Release()
	return s.create(dev)
}

// replace swaps the stage contents for a freshly compiled stage, keeping the Stage identity so effects that reference
// it pick up the new program.
func (s *Stage) replace(other *Stage) {
	s.Release()
	s.shader = other.shader
	s.layout = other.layout
	s.vertex = other.vertex
	s.pixel = other.pixel
}
