package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWorldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[player]
latitude = 10
longitude = 20

[[creature]]
id = "pika"
species = 25
north = 12
east = -4

[[creature]]
species = 1

[[stop]]
east = 30
`), 0o644))

	w, err := loadWorld(path)
	require.NoError(t, err)

	player, ok := w.PlayerPosition()
	require.True(t, ok)
	assert.Equal(t, common.GeoPoint{Latitude: 10, Longitude: 20}, player)

	creatures := w.Creatures()
	require.Len(t, creatures, 2)
	assert.Equal(t, "pika", creatures[0].ID)
	assert.Equal(t, 25, creatures[0].Species)
	assert.Equal(t, "creature-1", creatures[1].ID)

	off := common.ProjectLocal(player, creatures[0].Position)
	assert.InDelta(t, 12, off.North, 1e-3)
	assert.InDelta(t, -4, off.East, 1e-3)

	stops := w.PointsOfInterest()
	require.Len(t, stops, 1)
	assert.Equal(t, "stop-0", stops[0].ID)
}

func TestLoadWorldMissingFileUsesDefault(t *testing.T) {
	w, err := loadWorld(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Len(t, w.Creatures(), 3)
	assert.Len(t, w.PointsOfInterest(), 1)
}

func TestLoadWorldRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[creature]\n"), 0o644))
	_, err := loadWorld(path)
	assert.Error(t, err)
}

func TestWalkMovesPlayer(t *testing.T) {
	w, err := loadWorld(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	start, _ := w.PlayerPosition()

	w.walk(0, 5)
	now, _ := w.PlayerPosition()
	assert.InDelta(t, 5, common.ProjectLocal(start, now).North, 1e-3)
}
