package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/pelletier/go-toml/v2"
)

// worldFile is the TOML layout of a static demo world:
//
//	[player]
//	latitude = 51.5
//	longitude = -0.12
//
//	[[creature]]
//	species = 25
//	north = 12
//	east = -4
type worldFile struct {
	Player    geo      `toml:"player"`
	Creatures []placed `toml:"creature"`
	Stops     []placed `toml:"stop"`
}

type geo struct {
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`
}

// placed is an entity offset from the player in meters.
type placed struct {
	ID      string  `toml:"id"`
	Species int     `toml:"species"`
	North   float64 `toml:"north"`
	East    float64 `toml:"east"`
}

// staticWorld serves a fixed snapshot. The player can walk it with the arrow keys.
type staticWorld struct {
	mu        *sync.Mutex
	player    common.GeoPoint
	creatures []scene.CreatureReport
	stops     []scene.PointOfInterestReport
}

var _ scene.WorldSource = &staticWorld{}

func loadWorld(path string) (*staticWorld, error) {
	var wf worldFile
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		wf = defaultWorld()
	case err != nil:
		return nil, fmt.Errorf("load world: %w", err)
	default:
		if err := toml.Unmarshal(data, &wf); err != nil {
			return nil, fmt.Errorf("load world %s: %w", path, err)
		}
	}

	w := &staticWorld{
		mu:     &sync.Mutex{},
		player: common.GeoPoint{Latitude: wf.Player.Latitude, Longitude: wf.Player.Longitude},
	}
	for i, c := range wf.Creatures {
		id := common.Coalesce(c.ID, "creature-"+strconv.Itoa(i))
		w.creatures = append(w.creatures, scene.CreatureReport{ID: id, Species: c.Species, Position: w.offset(c)})
	}
	for i, s := range wf.Stops {
		id := common.Coalesce(s.ID, "stop-"+strconv.Itoa(i))
		w.stops = append(w.stops, scene.PointOfInterestReport{ID: id, Position: w.offset(s)})
	}
	return w, nil
}

func defaultWorld() worldFile {
	return worldFile{
		Player: geo{Latitude: 51.5007, Longitude: -0.1246},
		Creatures: []placed{
			{Species: 1, North: 6, East: 2},
			{Species: 4, North: 4, East: -5},
			{Species: 7, North: -8, East: 1},
		},
		Stops: []placed{{North: 40, East: 15}},
	}
}

func (w *staticWorld) offset(p placed) common.GeoPoint {
	return common.OffsetGeo(w.player, common.LocalOffset{East: p.East, North: p.North})
}

// walk moves the player by a local offset in meters.
func (w *staticWorld) walk(east, north float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.player = common.OffsetGeo(w.player, common.LocalOffset{East: east, North: north})
}

func (w *staticWorld) PlayerPosition() (common.GeoPoint, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.player, true
}

func (w *staticWorld) Creatures() []scene.CreatureReport {
	return w.creatures
}

func (w *staticWorld) PointsOfInterest() []scene.PointOfInterestReport {
	return w.stops
}
