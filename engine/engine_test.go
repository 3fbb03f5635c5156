package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-ar/engine/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAsync(e Engine) <-chan error {
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
		return nil
	}
}

func TestHeadlessRunStopsOnQuit(t *testing.T) {
	var ticks, frames atomic.Int32
	e := NewEngine(WithTickRate(200), WithRenderFrameLimit(500))
	e.SetTickCallback(func(float32) { ticks.Add(1) })
	e.SetRenderCallback(func(float32) {
		if frames.Add(1) == 20 {
			e.Quit()
		}
	})

	require.NoError(t, waitRun(t, runAsync(e)))
	assert.GreaterOrEqual(t, frames.Load(), int32(20))
	e.Quit()
}

func TestRenderPanicStopsEngine(t *testing.T) {
	e := NewEngine(WithRenderFrameLimit(1000))
	e.SetRenderCallback(func(float32) { panic("boom") })

	err := waitRun(t, runAsync(e))
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "render: boom")
}

func TestTickPanicStopsEngine(t *testing.T) {
	e := NewEngine(WithTickRate(1000))
	e.SetTickCallback(func(float32) { panic("tick failure") })

	err := waitRun(t, runAsync(e))
	assert.ErrorIs(t, err, ErrPanic)
}

func TestRendersSessionFrames(t *testing.T) {
	fa := devicetest.NewFactory()
	s := session.NewSession(session.WithRendererOptions(renderer.WithDeviceFactory(fa.New)))
	require.NoError(t, s.Initialize(64, 64, nil))
	require.NoError(t, s.BeginVideoStream(context.Background()))

	var frames atomic.Int32
	e := NewEngine(WithSession(s), WithRenderFrameLimit(1000), WithProfiling(true))
	e.SetRenderCallback(func(float32) {
		if frames.Add(1) == 5 {
			e.Quit()
		}
	})
	require.NoError(t, waitRun(t, runAsync(e)))

	assert.Same(t, s, e.Session())
	assert.GreaterOrEqual(t, fa.Last().Presents, 5)
	s.Deinitialize()
}

func TestSetTickRate(t *testing.T) {
	e := NewEngine().(*engine)
	e.SetTickRate(0)
	assert.Equal(t, time.Second/60, e.engineTickRate)
	e.SetTickRate(120)
	assert.Equal(t, time.Second/120, e.engineTickRate)

	e.SetRenderFrameLimit(50)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(-1)
	assert.Zero(t, e.renderFrameLimit)
}
