package scene

import (
	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/game_object"
	"github.com/go-gl/mathgl/mgl32"
)

// EntityKind classifies a world entity. Kinds reconcile independently and draw in declaration order.
type EntityKind int

const (
	KindCreature EntityKind = iota
	KindPointOfInterest
	KindFixed
)

func (k EntityKind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindPointOfInterest:
		return "poi"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// CreatureReport is one creature reported by the game state.
type CreatureReport struct {
	// ID is the stable encounter id.
	ID string
	// Species selects the creature texture "<Species>.png".
	Species  int
	Position common.GeoPoint
}

// PointOfInterestReport is one point of interest reported by the game state.
type PointOfInterestReport struct {
	ID       string
	Position common.GeoPoint
}

// WorldSource is the game-state collaborator polled once per frame. Each call returns a snapshot the scene does not
// retain.
type WorldSource interface {
	// PlayerPosition returns the player's geo position, false while it is unknown.
	PlayerPosition() (common.GeoPoint, bool)
	// Creatures returns the creatures currently visible.
	Creatures() []CreatureReport
	// PointsOfInterest returns the points of interest currently nearby.
	PointsOfInterest() []PointOfInterestReport
}

// AssetSource opens named asset files such as "25.png".
type AssetSource interface {
	Open(name string) ([]byte, error)
}

// Entity is a snapshot of one world-anchored sprite.
type Entity struct {
	ID      string
	Kind    EntityKind
	Species int
	// Geo is nil for entities at a fixed local position.
	Geo      *common.GeoPoint
	Position mgl32.Vec3
	Yaw      float32
	Scale    float32
	// Texture is the registry name of the sprite texture, empty when it failed to load.
	Texture string
}

// entity is a tracked Entity with its instance.
type entity struct {
	Entity
	key      string
	instance game_object.Instance
}

// placement is the transform computed for one entity per frame.
type placement struct {
	position mgl32.Vec3
	yaw      float32
}

// place computes the local position and facing of e relative to the player.
func place(e *entity, player common.GeoPoint, havePlayer bool) placement {
	pos := e.Position
	if e.Geo != nil && havePlayer {
		off := common.ProjectLocal(player, *e.Geo)
		pos = mgl32.Vec3{float32(off.East), pos.Y(), float32(off.North)}
	}
	return placement{position: pos, yaw: common.FacingYaw(pos)}
}

// tracked is the entity set of one kind in first-sighting order.
type tracked struct {
	byID  map[string]*entity
	order []*entity
}

func newTracked() *tracked {
	return &tracked{byID: make(map[string]*entity)}
}

func (t *tracked) add(e *entity) {
	t.byID[e.ID] = e
	t.order = append(t.order, e)
}

// reconcile makes t hold exactly the reported ids. Unknown ids are created, known ones updated, missing ones
// evicted. Each pass is linear in the number of reports plus tracked entities.
//
// Parameters:
//   - t: the tracked set to reconcile
//   - reports: the reported entities
//   - id: extracts the stable id of a report
//   - create: allocates an entity for a new report, a nil entity or an error skips the report for this frame
//   - update: refreshes a known entity from its report
//   - evict: releases the resources of an entity no longer reported
//
// Returns:
//   - created, removed: the number of entities created and evicted
func reconcile[R any](t *tracked, reports []R, id func(R) string, create func(R) (*entity, error), update func(*entity, R), evict func(*entity)) (created, removed int) {
	seen := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		key := id(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if e, ok := t.byID[key]; ok {
			update(e, r)
			continue
		}
		e, err := create(r)
		if err != nil || e == nil {
			delete(seen, key)
			continue
		}
		t.add(e)
		created++
	}

	kept := t.order[:0]
	for _, e := range t.order {
		if _, ok := seen[e.ID]; ok {
			kept = append(kept, e)
			continue
		}
		evict(e)
		delete(t.byID, e.ID)
		removed++
	}
	clear(t.order[len(kept):])
	t.order = kept
	return created, removed
}
