// package registry stores GPU assets under unique names and owns their release.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// Kind is the closed set of asset variants held by a Registry.
type Kind int

const (
	KindBuffer Kind = iota
	KindTexture
	KindMesh
	KindShaderStage
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	case KindShaderStage:
		return "shader stage"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Asset is one GPU-resident resource owned by a Registry.
type Asset interface {
	// Kind returns the asset variant.
	Kind() Kind
	// Release frees the GPU handles of the asset. It must be safe to call more than once.
	Release()
}

// Restorer is implemented by assets that keep a CPU-side description and can rebuild their GPU handles on a new
// device after the previous one was lost.
type Restorer interface {
	Restore(dev device.Device) error
}

// Registry is a render-thread-only named store of assets. It is not safe for concurrent use.
type Registry struct {
	assets map[string]Asset
	logger *slog.Logger
}

// New creates an empty Registry.
//
// Parameters:
//   - logger: optional logger, the engine logger is used when nil
//
// Returns:
//   - *Registry: the registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		assets: make(map[string]Asset),
		logger: common.LoggerOr(logger),
	}
}

// Register stores asset under name. A different asset previously stored under name is released.
//
// Parameters:
//   - name: the unique key
//   - asset: the asset to store, must not be nil
func (r *Registry) Register(name string, asset Asset) {
	if prev, ok := r.assets[name]; ok && prev != asset {
		r.logger.Debug("replacing asset", "name", name, "kind", prev.Kind())
		prev.Release()
	}
	r.assets[name] = asset
}

// Get returns the asset stored under name. A missing name is a normal outcome.
//
// Parameters:
//   - name: the key to look up
//
// Returns:
//   - Asset: the asset, nil when absent
//   - bool: whether the name is registered
func (r *Registry) Get(name string) (Asset, bool) {
	a, ok := r.assets[name]
	return a, ok
}

// Lookup returns the asset stored under name narrowed to T.
// It reports false when the name is missing or holds an asset of another type.
func Lookup[T Asset](r *Registry, name string) (T, bool) {
	var zero T
	a, ok := r.assets[name]
	if !ok {
		return zero, false
	}
	t, ok := a.(T)
	return t, ok
}

// Evict releases and removes the asset stored under name.
//
// Returns:
//   - bool: whether an asset was removed
func (r *Registry) Evict(name string) bool {
	a, ok := r.assets[name]
	if !ok {
		return false
	}
	a.Release()
	delete(r.assets, name)
	return true
}

// ReleaseAll releases every asset and empties the registry.
func (r *Registry) ReleaseAll() {
	for name, a := range r.assets {
		a.Release()
		delete(r.assets, name)
	}
}

// Restore rebuilds the GPU handles of every Restorer asset on dev. Every asset is attempted; failures are joined.
//
// Parameters:
//   - dev: the new device
//
// Returns:
//   - error: the joined restore errors, nil when every asset was restored
func (r *Registry) Restore(dev device.Device) error {
	var errs []error
	for _, name := range r.Names() {
		res, ok := r.assets[name].(Restorer)
		if !ok {
			continue
		}
		if err := res.Restore(dev); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.assets))
	for name := range r.assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
