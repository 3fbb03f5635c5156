package profiler

import (
	"bytes"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var buf bytes.Buffer
	p := NewProfiler(
		WithClock(clock.now),
		WithInterval(time.Second),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	p.readStats = func(ms *runtime.MemStats) {
		ms.Alloc = 2 << 20
		ms.TotalAlloc = 8 << 20
		ms.NumGC = 2
		ms.PauseNs[0] = 100
		ms.PauseNs[1] = 300
	}

	for range 49 {
		clock.advance(20 * time.Millisecond)
		require.False(t, p.Tick())
	}
	clock.advance(20 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 50, s.FPS, 1e-9)
	assert.Equal(t, 20*time.Millisecond, s.FrameTime)
	assert.InDelta(t, 2, s.HeapMB, 1e-9)
	assert.InDelta(t, 8, s.AllocRateMB, 0.1)
	assert.Equal(t, 300*time.Nanosecond, s.MaxPause)
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "gc=2")

	clock.advance(time.Second / 2)
	assert.False(t, p.Tick(), "a new window starts after reporting")
}
