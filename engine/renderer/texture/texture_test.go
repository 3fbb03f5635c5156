package texture

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device/devicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBinder struct {
	dev   device.Device
	slots []string
}

func (b *stubBinder) Device() device.Device { return b.dev }

func (b *stubBinder) BindTexture(label string, tex device.Texture, sampler device.Sampler) bool {
	b.slots = append(b.slots, label)
	return true
}

var staged = common.TextureStagingData{Pixels: make([]byte, 2*2*4), Width: 2, Height: 2}

func TestNewCreatesTextureAndSampler(t *testing.T) {
	dev := devicetest.New(device.Config{Width: 8, Height: 8})
	binder := &stubBinder{dev: dev}

	tex, err := New(binder, "25.png", "mainTexture", staged, device.DefaultSampler("25.png"))
	require.NoError(t, err)

	assert.Equal(t, uint32(2), tex.Width())
	assert.Equal(t, "mainTexture", tex.Slot())
	assert.Equal(t, 1, dev.Tracker.LiveOf("texture"))
	assert.Equal(t, 1, dev.Tracker.LiveOf("sampler"))

	require.NoError(t, tex.Bind())
	assert.Equal(t, []string{"mainTexture"}, binder.slots)
}

func TestSamplerFailureReleasesTexture(t *testing.T) {
	dev := devicetest.New(device.Config{Width: 8, Height: 8})
	binder := &stubBinder{dev: &failingSamplerDevice{Fake: dev}}

	_, err := New(binder, "floor", "mainTexture", staged, device.DefaultSampler("floor"))
	require.ErrorIs(t, err, devicetest.ErrInjected)
	assert.Zero(t, dev.Tracker.Live(), "partially created texture released")
}

func TestReleaseThenBindFails(t *testing.T) {
	dev := devicetest.New(device.Config{Width: 8, Height: 8})
	tex, err := New(&stubBinder{dev: dev}, "floor", "mainTexture", staged, device.DefaultSampler("floor"))
	require.NoError(t, err)

	tex.Release()
	assert.True(t, tex.Released())
	assert.ErrorIs(t, tex.Bind(), device.ErrReleased)
	assert.Zero(t, dev.Tracker.Live())

	require.NoError(t, tex.Restore(dev))
	assert.False(t, tex.Released())
	assert.Equal(t, 2, dev.Tracker.Live())
}

type failingSamplerDevice struct {
	*devicetest.Fake
}

func (f *failingSamplerDevice) CreateSampler(device.SamplerDescriptor) (device.Sampler, error) {
	return nil, devicetest.ErrInjected
}
