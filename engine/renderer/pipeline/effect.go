// package pipeline manages shader stages and effects, the (vertex stage, pixel stage) pairs selected before issuing
// draws, and binds uniform blocks and textures to them by name.
package pipeline

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// effect is the implementation of the Effect interface.
type effect struct {
	key    string
	vertex *Stage
	pixel  *Stage
}

// Effect is an immutable pairing of a vertex stage and a pixel stage. Its uniform and texture slot maps are the
// union of the maps declared by its stages.
type Effect interface {
	// Key returns the unique name the effect was registered under.
	//
	// Returns:
	//   - string: the effect name
	Key() string

	// VertexStage returns the vertex stage of the effect.
	//
	// Returns:
	//   - *Stage: the vertex stage
	VertexStage() *Stage

	// PixelStage returns the pixel stage of the effect.
	//
	// Returns:
	//   - *Stage: the pixel stage
	PixelStage() *Stage

	// Declares reports whether any stage of the effect declares a uniform block or texture slot with that name.
	//
	// Parameters:
	//   - name: the uniform name or texture slot label
	//
	// Returns:
	//   - bool: true if a stage declares it
	Declares(name string) bool
}

var _ Effect = &effect{}

func (e *effect) Key() string {
	return e.key
}

func (e *effect) VertexStage() *Stage {
	return e.vertex
}

func (e *effect) PixelStage() *Stage {
	return e.pixel
}

func (e *effect) Declares(name string) bool {
	for _, s := range []*Stage{e.vertex, e.pixel} {
		if _, ok := s.shader.UniformSlot(name); ok {
			return true
		}
		if _, ok := s.shader.TextureSlot(name); ok {
			return true
		}
	}
	return false
}

// stageSlots pairs a stage of the bound effect with its device stage for uniform and texture binds.
func (e *effect) stageSlots() [2]struct {
	stage *Stage
	kind  device.Stage
} {
	return [2]struct {
		stage *Stage
		kind  device.Stage
	}{
		{e.vertex, device.StageVertex},
		{e.pixel, device.StagePixel},
	}
}
