package window

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	polls   int
	open    int
	closed  bool
	onEvent func(w *engineWindow)
	w       *engineWindow
}

func (f *fakePlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }
func (f *fakePlatform) running() bool                              { return !f.closed && f.polls < f.open }
func (f *fakePlatform) close() error                               { f.closed = true; return nil }

func (f *fakePlatform) poll() bool {
	if f.onEvent != nil {
		f.onEvent(f.w)
	}
	f.polls++
	return f.running()
}

func newTestWindow(open int) (*engineWindow, *fakePlatform) {
	w := &engineWindow{}
	p := &fakePlatform{open: open, w: w}
	w.platform = p
	return w, p
}

func TestDragForwardsMovementWhileHeld(t *testing.T) {
	w, _ := newTestWindow(1)
	var moves [][2]float32
	w.SetDragCallback(func(dx, dy float32) { moves = append(moves, [2]float32{dx, dy}) })

	w.cursor(10, 10)
	w.press(true, 10, 10)
	w.cursor(15, 8)
	w.cursor(15, 8)
	w.cursor(12, 8)
	w.press(false, 12, 8)
	w.cursor(40, 40)

	assert.Equal(t, [][2]float32{{5, -2}, {-3, 0}}, moves)
}

func TestResizeUpdatesSizeAndSkipsMinimized(t *testing.T) {
	w, _ := newTestWindow(1)
	calls := 0
	w.SetResizeCallback(func(width, height int) { calls++ })

	w.resized(800, 600)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
	w.resized(0, 0)
	assert.Equal(t, 1, calls, "a minimized framebuffer is not forwarded")
}

func TestProcessMessagesRunsUntilClosed(t *testing.T) {
	w, p := newTestWindow(3)
	var keys []uint32
	w.SetKeyCallback(func(keyCode uint32, down bool) {
		if down {
			keys = append(keys, keyCode)
		}
	})
	p.onEvent = func(w *engineWindow) { w.key(uint32(65+p.polls), true) }
	updates := 0
	w.SetUpdateCallback(func() { updates++ })

	w.ProcessMessages()
	assert.Equal(t, 3, p.polls)
	assert.Equal(t, 2, updates)
	assert.Equal(t, []uint32{65, 66, 67}, keys)
	assert.False(t, w.IsRunning())
}

func TestCloseTwice(t *testing.T) {
	w, p := newTestWindow(1)
	assert.NotNil(t, w.SurfaceDescriptor())
	require.NoError(t, w.Close())
	assert.True(t, p.closed)
	assert.ErrorIs(t, w.Close(), ErrClosed)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.False(t, w.PollEvents())
}
