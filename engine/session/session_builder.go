package session

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/Carmen-Shannon/oxy-ar/engine/sensor"
)

// SessionBuilderOption is a functional option for configuring a Session.
type SessionBuilderOption func(s *session)

// WithVideoSource sets the video drawn beneath the overlay. Without one the session renders the overlay alone.
func WithVideoSource(v VideoSource) SessionBuilderOption {
	return func(s *session) {
		s.video = v
	}
}

// WithFilter sets the orientation filter the camera follows. BeginVideoStream arms its reset.
//
// Parameters:
//   - f: the orientation filter
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithFilter(f sensor.OrientationFilter) SessionBuilderOption {
	return func(s *session) {
		s.filter = f
	}
}

// WithRendererOptions appends options passed to the render manager, e.g. renderer.WithDeviceFactory.
//
// Parameters:
//   - options: the renderer options
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) SessionBuilderOption {
	return func(s *session) {
		s.rendererOptions = append(s.rendererOptions, options...)
	}
}

// WithSceneOptions appends options passed to the scene, e.g. scene.WithWorld and scene.WithAssets.
//
// Parameters:
//   - options: the scene options
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithSceneOptions(options ...scene.SceneBuilderOption) SessionBuilderOption {
	return func(s *session) {
		s.sceneOptions = append(s.sceneOptions, options...)
	}
}

// WithLogger sets the logger of the session. Its records carry the session id.
func WithLogger(l *slog.Logger) SessionBuilderOption {
	return func(s *session) {
		s.logger = l
	}
}
