package loader

import (
	"fmt"
	"io/fs"
)

// loaderBackend reads raw asset bytes by name. Names use forward slashes and are relative to the backend root.
type loaderBackend interface {
	// Read returns the full contents of the named asset.
	//
	// Parameters:
	//   - name: the asset name, e.g. "25.png"
	//
	// Returns:
	//   - []byte: the asset contents
	//   - error: error wrapping fs.ErrNotExist if the asset is missing
	Read(name string) ([]byte, error)
}

// fsLoaderBackend reads assets from an fs.FS such as os.DirFS or an embed.FS.
type fsLoaderBackend struct {
	fsys fs.FS
	root string
}

func newFSLoaderBackend(fsys fs.FS, root string) *fsLoaderBackend {
	return &fsLoaderBackend{fsys: fsys, root: root}
}

func (b *fsLoaderBackend) Read(name string) ([]byte, error) {
	path := name
	if b.root != "" && b.root != "." {
		path = b.root + "/" + name
	}
	data, err := fs.ReadFile(b.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}
