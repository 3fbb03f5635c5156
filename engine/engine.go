// package engine drives an AR session: a fixed-rate tick loop for game and sensor updates, a render loop presenting
// the session's frames, and the window message loop on the calling thread.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/profiler"
	"github.com/Carmen-Shannon/oxy-ar/engine/session"
	"github.com/Carmen-Shannon/oxy-ar/engine/window"
)

// ErrPanic is returned by Run when a loop goroutine panicked.
var ErrPanic = errors.New("engine: loop panicked")

// engine implements the Engine interface.
type engine struct {
	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window  window.Window
	session session.Session
	logger  *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	panicMu  *sync.Mutex
	panicErr error
}

// Engine runs the loops of an AR session.
type Engine interface {
	// Window returns the window the session presents into, nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Session returns the session rendered each frame.
	//
	// Returns:
	//   - session.Session: the session, nil if none was configured
	Session() session.Session

	// EnableProfiler enables frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetTickRate sets the tick loop rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick. Use it to feed sensors and poll game state; it runs
	// on the tick goroutine.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame on the render goroutine.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second. Pass 0 to uncap it (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render loops and blocks. With a window it runs the message loop on the calling
	// goroutine until the window closes or Quit is called; headless it blocks until Quit.
	//
	// Returns:
	//   - error: error wrapping ErrPanic if a loop panicked
	Run() error

	// Quit signals every loop to stop. Safe to call multiple times and from any goroutine.
	Quit()
}

// NewEngine creates an Engine.
//
// Parameters:
//   - options: functional options for engine configuration (session, window, profiling, tick rate)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		panicMu:         &sync.Mutex{},
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = common.LoggerOr(e.logger)
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if e.session == nil || !e.session.Initialized() {
				return
			}
			if err := e.session.Resize(uint32(width), uint32(height)); err != nil {
				e.logger.Warn("resize failed", "width", width, "height", height, "error", err)
			}
		})
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				if err := e.window.Close(); err != nil {
					e.logger.Debug("window close", "error", err)
				}
			default:
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Session() session.Session {
	return e.session
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
	e.running.Store(false)

	e.panicMu.Lock()
	defer e.panicMu.Unlock()
	return e.panicErr
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// recoverLoop turns a panic of the named loop into the Run error and stops the engine.
func (e *engine) recoverLoop(loop string) {
	r := recover()
	if r == nil {
		return
	}
	e.logger.Error("loop recovered from panic", "loop", loop, "panic", r)
	e.panicMu.Lock()
	if e.panicErr == nil {
		e.panicErr = fmt.Errorf("%w: %s: %v", ErrPanic, loop, r)
	}
	e.panicMu.Unlock()
	e.signalQuit()
}

// handleEngine runs the fixed-rate tick loop and applies tick rate changes from tickRateChannel.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverLoop("tick")

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender renders the session as fast as the frame limit allows. The session's render manager is only
// touched from this goroutine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverLoop("render")

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if e.session != nil {
			if err := e.session.Render(); err != nil {
				e.logger.Warn("frame failed", "error", err)
			}
		}
		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) SetTickRate(fps float64) {
	newRate := tickInterval(fps)
	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update that the loop has not picked up yet.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
