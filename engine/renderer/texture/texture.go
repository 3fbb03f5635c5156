// package texture provides sampled 2D textures bound to a named texture slot.
package texture

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
)

// Binder binds textures to the bound effect by slot label.
type Binder interface {
	Device() device.Device
	BindTexture(label string, tex device.Texture, sampler device.Sampler) bool
}

// Texture2D is a decoded image uploaded as an immutable texture, paired with its sampler.
type Texture2D struct {
	name    string
	slot    string
	staged  common.TextureStagingData
	desc    device.SamplerDescriptor
	texture device.Texture
	sampler device.Sampler
	binder  Binder
}

var (
	_ registry.Asset    = &Texture2D{}
	_ registry.Restorer = &Texture2D{}
)

// New uploads staged pixels and creates the sampler. Nothing is left allocated on failure.
//
// Parameters:
//   - binder: the shader manager the texture binds through
//   - name: the unique registry name of the texture
//   - slot: the texture slot label the texture binds to
//   - staged: the decoded RGBA pixels, kept for restoring the texture on a new device
//   - desc: the sampler configuration
//
// Returns:
//   - *Texture2D: the texture
//   - error: error if no device is attached or creation fails
func New(binder Binder, name, slot string, staged common.TextureStagingData, desc device.SamplerDescriptor) (*Texture2D, error) {
	t := &Texture2D{name: name, slot: slot, staged: staged, desc: desc, binder: binder}
	dev := binder.Device()
	if dev == nil {
		return nil, fmt.Errorf("texture %s: %w", name, device.ErrReleased)
	}
	if err := t.create(dev); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Texture2D) create(dev device.Device) error {
	tex, err := dev.CreateTexture(t.name, t.staged)
	if err != nil {
		return fmt.Errorf("failed to create texture %s: %w", t.name, err)
	}
	sampler, err := dev.CreateSampler(t.desc)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create sampler for texture %s: %w", t.name, err)
	}
	t.texture, t.sampler = tex, sampler
	return nil
}

// Name returns the registry name.
func (t *Texture2D) Name() string {
	return t.name
}

// Slot returns the texture slot label.
func (t *Texture2D) Slot() string {
	return t.slot
}

// Width returns the texture width in pixels.
func (t *Texture2D) Width() uint32 {
	return t.staged.Width
}

// Height returns the texture height in pixels.
func (t *Texture2D) Height() uint32 {
	return t.staged.Height
}

// Released reports whether the GPU handles were released.
func (t *Texture2D) Released() bool {
	return t.texture == nil
}

// Bind binds the texture and sampler to the bound effect under the slot label.
// A label the effect does not declare is skipped without error.
func (t *Texture2D) Bind() error {
	if t.texture == nil {
		return fmt.Errorf("bind texture %s: %w", t.name, device.ErrReleased)
	}
	t.binder.BindTexture(t.slot, t.texture, t.sampler)
	return nil
}

func (t *Texture2D) Kind() registry.Kind {
	return registry.KindTexture
}

func (t *Texture2D) Release() {
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
}

func (t *Texture2D) Restore(dev device.Device) error {
	t.Release()
	return t.create(dev)
}
