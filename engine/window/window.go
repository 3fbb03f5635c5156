// package window opens the desktop window the overlay is presented in and turns its input into the events the demo
// uses as a stand-in for device sensors.
package window

import (
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrClosed is returned by Close on a window that is already closed.
var ErrClosed = errors.New("window: closed")

// Window is a platform window with a WebGPU-capable surface.
// Callbacks run on the thread calling PollEvents or ProcessMessages, which must be the thread that created the window.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the function called for key presses and releases. Escape closes the window and is not
	// forwarded.
	//
	// Parameters:
	//   - callback: function receiving the key code and whether the key went down
	SetKeyCallback(callback func(keyCode uint32, down bool))

	// SetDragCallback sets the function called while the cursor moves with the left button held.
	//
	// Parameters:
	//   - callback: function receiving the cursor movement in pixels since the last event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns the descriptor a WebGPU surface is created from, nil once the window is closed.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and not asked to close.
	IsRunning() bool

	// PollEvents processes pending events without blocking.
	//
	// Returns:
	//   - bool: whether the window is still running
	PollEvents() bool

	// ProcessMessages polls events until the window closes, calling the update callback each iteration.
	ProcessMessages()

	// Close destroys the window.
	//
	// Returns:
	//   - error: ErrClosed if the window was already closed
	Close() error

	// Width returns the framebuffer width in pixels. Safe to call from any goroutine.
	Width() int

	// Height returns the framebuffer height in pixels. Safe to call from any goroutine.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	width, height       atomic.Int32
	minWidth, minHeight int
	maxWidth, maxHeight int
	resizable           bool

	platform platformWindow

	onUpdate func()
	onResize func(width, height int)
	onKey    func(keyCode uint32, down bool)
	onDrag   func(dx, dy float32)

	// cursor state of the current left-button drag
	dragging                 bool
	lastCursorX, lastCursorY float64
}

// platformWindow is the native window an engineWindow drives.
type platformWindow interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	running() bool
	poll() bool
	close() error
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. It locks the calling goroutine to its OS thread; keep calling PollEvents or
// ProcessMessages from it.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-ar",
		minWidth:  320,
		minHeight: 240,
		resizable: true,
	}
	w.width.Store(1280)
	w.height.Store(720)
	for _, opt := range options {
		opt(w)
	}
	p, err := newPlatformWindow(w)
	if err != nil {
		return nil, err
	}
	w.platform = p
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyCallback(callback func(keyCode uint32, down bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *engineWindow) PollEvents() bool {
	if w.platform == nil {
		return false
	}
	return w.platform.poll()
}

func (w *engineWindow) ProcessMessages() {
	for w.PollEvents() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return ErrClosed
	}
	err := w.platform.close()
	w.platform = nil
	return err
}

func (w *engineWindow) Width() int {
	return int(w.width.Load())
}

func (w *engineWindow) Height() int {
	return int(w.height.Load())
}

// resized records a framebuffer size change and forwards it.
func (w *engineWindow) resized(width, height int) {
	w.width.Store(int32(width))
	w.height.Store(int32(height))
	if w.onResize != nil && width > 0 && height > 0 {
		w.onResize(width, height)
	}
}

func (w *engineWindow) key(keyCode uint32, down bool) {
	if w.onKey != nil {
		w.onKey(keyCode, down)
	}
}

// press starts or ends a drag at the given cursor position.
func (w *engineWindow) press(down bool, x, y float64) {
	w.dragging = down
	w.lastCursorX, w.lastCursorY = x, y
}

// cursor forwards the movement since the last cursor event while dragging.
func (w *engineWindow) cursor(x, y float64) {
	dx, dy := x-w.lastCursorX, y-w.lastCursorY
	w.lastCursorX, w.lastCursorY = x, y
	if w.dragging && w.onDrag != nil && (dx != 0 || dy != 0) {
		w.onDrag(float32(dx), float32(dy))
	}
}
