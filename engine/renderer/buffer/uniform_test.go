package buffer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type block struct {
	Scale  float32
	Offset [3]float32
}

// stubBinder records binds without an effect; bindable lists the declared block names.
type stubBinder struct {
	dev      device.Device
	bindable map[string]bool
	bound    []string
}

func (b *stubBinder) Device() device.Device { return b.dev }

func (b *stubBinder) BindUniform(name string, buf device.Buffer) bool {
	if !b.bindable[name] {
		return false
	}
	b.bound = append(b.bound, name)
	b.dev.SetUniform(device.StageVertex, device.Slot{}, buf)
	return true
}

func newBinder() (*stubBinder, *devicetest.Fake) {
	dev := devicetest.New(device.Config{Width: 8, Height: 8})
	return &stubBinder{dev: dev, bindable: map[string]bool{"model": true}}, dev
}

func TestNewUploadsInitialValue(t *testing.T) {
	binder, dev := newBinder()
	u, err := New(binder, "model/1", "model", block{Scale: 2})
	require.NoError(t, err)

	assert.False(t, u.Dirty())
	assert.Equal(t, registry.KindBuffer, u.Kind())
	buf := u.Handle().(*devicetest.Buffer)
	assert.Equal(t, uint64(16), buf.Size())
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf.Data)))
	assert.Equal(t, 1, dev.Tracker.LiveOf("buffer"))
}

func TestSetMarksDirtyUntilUpload(t *testing.T) {
	binder, _ := newBinder()
	u, err := New(binder, "model/1", "model", block{})
	require.NoError(t, err)

	u.Set(block{Scale: 3})
	assert.True(t, u.Dirty())
	require.NoError(t, u.Upload())
	assert.False(t, u.Dirty())

	u.Update(func(b *block) { b.Offset[1] = 5 })
	assert.True(t, u.Dirty())
	assert.Equal(t, float32(5), u.Value().Offset[1])
	assert.Equal(t, float32(3), u.Value().Scale)
}

func TestBindUploadsAndBinds(t *testing.T) {
	binder, dev := newBinder()
	u, err := New(binder, "model/1", "model", block{})
	require.NoError(t, err)
	skipped, err := New(binder, "lights", "lights", block{})
	require.NoError(t, err)

	require.NoError(t, u.Bind())
	require.NoError(t, skipped.Bind())

	assert.Equal(t, []string{"model"}, binder.bound)
	assert.Equal(t, 1, u.Handle().(*devicetest.Buffer).Writes)
	assert.Equal(t, 1, skipped.Handle().(*devicetest.Buffer).Writes, "undeclared blocks still upload")
	assert.Len(t, dev.Uniforms, 1)
}

func TestReleaseAndRestore(t *testing.T) {
	binder, dev := newBinder()
	u, err := New(binder, "model/1", "model", block{Scale: 4})
	require.NoError(t, err)

	u.Release()
	u.Release()
	assert.Zero(t, dev.Tracker.Live())
	assert.ErrorIs(t, u.Upload(), device.ErrReleased)

	next := devicetest.New(device.Config{Width: 8, Height: 8})
	binder.dev = next
	require.NoError(t, u.Restore(next))
	assert.Equal(t, 1, next.Tracker.LiveOf("buffer"))
	require.NoError(t, u.Upload())
}

func TestNewFailsWithoutDevice(t *testing.T) {
	_, err := New(&stubBinder{}, "k", "model", block{})
	assert.ErrorIs(t, err, device.ErrReleased)

	binder, dev := newBinder()
	dev.FailCreate(devicetest.ErrInjected)
	_, err = New(binder, "k", "model", block{})
	assert.ErrorIs(t, err, devicetest.ErrInjected)
}
