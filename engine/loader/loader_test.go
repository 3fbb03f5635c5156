package loader

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFS counts Open calls per name.
type countingFS struct {
	fs.FS
	mu    sync.Mutex
	opens map[string]int
}

func newCountingFS(files fstest.MapFS) *countingFS {
	return &countingFS{FS: files, opens: make(map[string]int)}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.opens[name]++
	c.mu.Unlock()
	return c.FS.Open(name)
}

func (c *countingFS) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens[name]
}

func testFiles() fstest.MapFS {
	return fstest.MapFS{
		"assets/floor.png":    {Data: []byte("floor")},
		"assets/pokestop.png": {Data: []byte("stop")},
		"assets/1.png":        {Data: []byte("one")},
		"assets/4.png":        {Data: []byte("four")},
	}
}

func TestOpenCachesContents(t *testing.T) {
	fsys := newCountingFS(testFiles())
	l := NewFSLoader(fsys, WithRoot("assets"))

	data, err := l.Open("1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)
	_, err = l.Open("1.png")
	require.NoError(t, err)
	assert.Equal(t, 1, fsys.count("assets/1.png"))
	assert.Equal(t, []string{"1.png"}, l.Names())

	assert.True(t, l.Evict("1.png"))
	assert.False(t, l.Evict("1.png"))
	_, err = l.Open("1.png")
	require.NoError(t, err)
	assert.Equal(t, 2, fsys.count("assets/1.png"))
}

func TestOpenWithoutCaching(t *testing.T) {
	fsys := newCountingFS(testFiles())
	l := NewFSLoader(fsys, WithRoot("assets/"), WithCaching(false))
	for range 3 {
		_, err := l.Open("4.png")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fsys.count("assets/4.png"))
	assert.Empty(t, l.Names())
}

func TestOpenErrors(t *testing.T) {
	l := NewFSLoader(testFiles(), WithRoot("assets"))

	_, err := l.Open("25.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	for _, name := range []string{"../secret.png", "/abs.png", ".", ""} {
		_, err := l.Open(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestPreload(t *testing.T) {
	fsys := newCountingFS(testFiles())
	l := NewFSLoader(fsys, WithRoot("assets"), WithConcurrency(2), WithAsset("floor.png", []byte("seeded")))

	require.NoError(t, l.Preload(context.Background(), "floor.png", "pokestop.png", "1.png", "4.png"))
	assert.Equal(t, []string{"1.png", "4.png", "floor.png", "pokestop.png"}, l.Names())
	assert.Zero(t, fsys.count("assets/floor.png"), "seeded assets are not read")

	data, ok := l.Get("floor.png")
	require.True(t, ok)
	assert.Equal(t, []byte("seeded"), data)
}

func TestPreloadReportsMissingAsset(t *testing.T) {
	l := NewFSLoader(testFiles(), WithRoot("assets"), WithConcurrency(1))
	err := l.Preload(context.Background(), "1.png", "missing.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestPreloadHonorsCancellation(t *testing.T) {
	l := NewFSLoader(testFiles(), WithRoot("assets"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Preload(ctx, "1.png", "4.png")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, l.Names())
}
