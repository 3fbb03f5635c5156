package loader

import (
	"log/slog"
	"path"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewFSLoader.
type LoaderBuilderOption func(*loader)

// WithRoot is an option builder that resolves asset names below a directory of the file system.
//
// Parameters:
//   - dir: the slash-separated directory, e.g. "assets/textures"
//
// Returns:
//   - LoaderBuilderOption: a function that applies the root option to a loader
func WithRoot(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.root = path.Clean(dir)
	}
}

// WithConcurrency is an option builder that sets how many assets Preload reads at once.
//
// Parameters:
//   - n: the number of concurrent reads (minimum 1)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the concurrency option to a loader
func WithConcurrency(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.concurrency = max(n, 1)
	}
}

// WithCaching is an option builder that enables or disables the byte cache. Without it every Open reads the file
// system again. Enabled by default.
func WithCaching(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.caching = enabled
	}
}

// WithAsset is an option builder that pre-populates the cache with an asset.
//
// Parameters:
//   - name: the asset name
//   - data: the asset contents
//
// Returns:
//   - LoaderBuilderOption: a function that applies the asset option to a loader
func WithAsset(name string, data []byte) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[name] = data
	}
}

// WithLogger is an option builder that sets the logger of the loader.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}
