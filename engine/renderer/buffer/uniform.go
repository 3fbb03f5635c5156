// package buffer provides typed uniform buffers that mirror a Go value on the CPU and upload it to the GPU.
package buffer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/registry"
)

// Binder uploads through a device and binds uniform buffers to the bound effect by name.
type Binder interface {
	Device() device.Device
	BindUniform(name string, buf device.Buffer) bool
}

// Uniform is a constant block of type T. T must be a plain value type whose memory layout matches the shader block
// (no pointers, slices or maps).
type Uniform[T any] struct {
	key    string
	name   string
	value  T
	dirty  bool
	handle device.Buffer
	binder Binder
}

var _ registry.Asset = &Uniform[struct{}]{}
var _ registry.Restorer = &Uniform[struct{}]{}

// New creates a uniform buffer sized to T on the binder's device, initialized with value.
//
// Parameters:
//   - binder: the shader manager the buffer uploads and binds through
//   - key: the unique registry key of the buffer
//   - name: the uniform block name the buffer binds to
//   - value: the initial CPU-side value
//
// Returns:
//   - *Uniform[T]: the buffer, clean after creation
//   - error: error if no device is attached or creation fails
func New[T any](binder Binder, key, name string, value T) (*Uniform[T], error) {
	u := &Uniform[T]{key: key, name: name, value: value, binder: binder}
	dev := binder.Device()
	if dev == nil {
		return nil, fmt.Errorf("uniform %s: %w", key, device.ErrReleased)
	}
	if err := u.create(dev); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Uniform[T]) create(dev device.Device) error {
	buf, err := dev.CreateBuffer(u.key, device.BufferUniform, common.StructToBytes(&u.value))
	if err != nil {
		return fmt.Errorf("failed to create uniform buffer %s: %w", u.key, err)
	}
	u.handle = buf
	u.dirty = false
	return nil
}

// Key returns the registry key.
func (u *Uniform[T]) Key() string {
	return u.key
}

// Name returns the uniform block name the buffer binds to.
func (u *Uniform[T]) Name() string {
	return u.name
}

// Value returns a copy of the CPU-side value.
func (u *Uniform[T]) Value() T {
	return u.value
}

// Set replaces the CPU-side value and marks the buffer dirty.
func (u *Uniform[T]) Set(v T) {
	u.value = v
	u.dirty = true
}

// Update mutates the CPU-side value in place and marks the buffer dirty.
func (u *Uniform[T]) Update(fn func(v *T)) {
	fn(&u.value)
	u.dirty = true
}

// Dirty reports whether the CPU-side value changed since the last upload.
func (u *Uniform[T]) Dirty() bool {
	return u.dirty
}

// Handle returns the GPU buffer, nil once released.
func (u *Uniform[T]) Handle() device.Buffer {
	return u.handle
}

// Upload writes the CPU-side value to the GPU buffer and marks it clean.
func (u *Uniform[T]) Upload() error {
	dev := u.binder.Device()
	if dev == nil || u.handle == nil {
		return fmt.Errorf("upload uniform %s: %w", u.key, device.ErrReleased)
	}
	if err := dev.WriteBuffer(u.handle, common.StructToBytes(&u.value)); err != nil {
		return fmt.Errorf("upload uniform %s: %w", u.key, err)
	}
	u.dirty = false
	return nil
}

// Bind uploads the value and binds the buffer to the bound effect under its block name.
// A block the effect does not declare is skipped without error.
func (u *Uniform[T]) Bind() error {
	if err := u.Upload(); err != nil {
		return err
	}
	u.binder.BindUniform(u.name, u.handle)
	return nil
}

func (u *Uniform[T]) Kind() registry.Kind {
	return registry.KindBuffer
}

func (u *Uniform[T]) Release() {
	if u.handle != nil {
		u.handle.Release()
		u.handle = nil
	}
}

func (u *Uniform[T]) Restore(dev device.Device) error {
	u.Release()
	return u.create(dev)
}
