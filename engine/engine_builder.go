package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-ar/engine/session"
	"github.com/Carmen-Shannon/oxy-ar/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame statistics in the log.
//
// Parameters:
//   - enabled: if true, logs frame statistics once per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the tick loop rate. Values <= 0 select the default of 60 ticks per second.
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.engineTickRate = tickInterval(fps)
	}
}

// WithWindow sets the window whose message loop Run drives. Resize events are forwarded to the session.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithSession sets the session rendered each frame.
//
// Parameters:
//   - s: the session, initialized by the caller before Run
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSession(s session.Session) EngineBuilderOption {
	return func(e *engine) {
		e.session = s
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. Pass 0 to uncap it (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithLogger sets the logger of the engine loops.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
	}
}
