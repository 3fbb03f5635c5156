package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackend selects the GPU backend the renderer creates devices with.
//
// Parameters:
//   - backendType: the backend type (e.g. BackendTypeWGPU)
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backendType RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.factory = factoryFor(backendType)
	}
}

// WithDeviceFactory replaces the backend with a custom device factory, e.g. an in-memory device for tests.
//
// Parameters:
//   - factory: the function creating a device from a configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the factory option to a renderer
func WithDeviceFactory(factory device.Factory) RendererBuilderOption {
	return func(r *renderer) {
		r.factory = factory
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.vsync = mode == PresentModeVSync
	}
}

// WithDepth enables or disables the depth buffer created on the first frame. Depth is enabled by default.
//
// Parameters:
//   - enabled: true to depth test draws
//
// Returns:
//   - RendererBuilderOption: a function that applies the depth option to a renderer
func WithDepth(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.depthEnabled = enabled
	}
}

// WithClearColor sets the color the surface is cleared to at the start of each frame. The default is fully
// transparent so the camera feed beneath the overlay stays visible.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c device.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithLogger sets the logger of the renderer and its shader manager.
//
// Parameters:
//   - l: the logger, nil selects the engine logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = l
	}
}
