package renderer

import (
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// factoryFor returns the device factory of a backend type.
func factoryFor(backendType RendererBackendType) device.Factory {
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		return NewWGPUDevice
	}
}
