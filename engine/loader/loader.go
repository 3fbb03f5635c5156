// package loader reads the overlay's asset files (textures such as "25.png" or "floor.png") and caches their bytes.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidName is returned for asset names that are not valid fs paths, e.g. "../x.png" or "/abs.png".
var ErrInvalidName = errors.New("loader: invalid asset name")

// DefaultConcurrency is the number of assets Preload reads at once.
const DefaultConcurrency = 4

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	backend     loaderBackend
	root        string
	cache       map[string][]byte
	caching     bool
	concurrency int
	logger      *slog.Logger
}

// Loader reads named assets and caches their contents. It is safe for concurrent use and satisfies
// scene.AssetSource.
type Loader interface {
	// Open returns the contents of the named asset, reading it on first use.
	// The returned slice is shared with the cache and must not be modified.
	//
	// Parameters:
	//   - name: the asset name, e.g. "25.png"
	//
	// Returns:
	//   - []byte: the asset contents
	//   - error: ErrInvalidName, or error wrapping fs.ErrNotExist if the asset is missing
	Open(name string) ([]byte, error)

	// Preload reads every named asset into the cache, a bounded number at a time.
	// Already cached assets are skipped.
	//
	// Parameters:
	//   - ctx: cancels the remaining reads
	//   - names: the assets to read
	//
	// Returns:
	//   - error: the first read error or the context error, assets read before it stay cached
	Preload(ctx context.Context, names ...string) error

	// Get returns a cached asset without reading it.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - []byte: the cached contents
	//   - bool: whether the asset is cached
	Get(name string) ([]byte, bool)

	// Evict drops a cached asset.
	//
	// Returns:
	//   - bool: whether the asset was cached
	Evict(name string) bool

	// Names returns the cached asset names in sorted order.
	Names() []string
}

var (
	_ Loader            = &loader{}
	_ scene.AssetSource = &loader{}
)

// NewFSLoader creates a Loader reading assets from fsys.
//
// Parameters:
//   - fsys: the file system holding the assets, e.g. os.DirFS("assets") or an embed.FS
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewFSLoader(fsys fs.FS, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:          &sync.RWMutex{},
		cache:       make(map[string][]byte),
		caching:     true,
		concurrency: DefaultConcurrency,
		root:        ".",
	}
	for _, option := range options {
		option(l)
	}
	l.backend = newFSLoaderBackend(fsys, l.root)
	l.logger = common.LoggerOr(l.logger)
	return l
}

func (l *loader) Open(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if data, ok := l.Get(name); ok {
		return data, nil
	}

	data, err := l.backend.Read(name)
	if err != nil {
		return nil, err
	}
	if l.caching {
		l.mu.Lock()
		l.cache[name] = data
		l.mu.Unlock()
	}
	l.logger.Debug("asset read", "name", name, "bytes", len(data))
	return data, nil
}

func (l *loader) Preload(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for _, name := range names {
		if _, ok := l.Get(name); ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := l.Open(name)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("preload: %w", err)
	}
	l.logger.Info("assets preloaded", "count", len(names))
	return nil
}

func (l *loader) Get(name string) ([]byte, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.cache[name]
	return data, ok
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.cache[name]
	delete(l.cache, name)
	return ok
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.cache))
	for name := range l.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
