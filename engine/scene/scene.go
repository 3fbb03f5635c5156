// package scene owns the world entities of the AR overlay, keeps them in sync with the game state, places them around
// the player every frame and issues the draw sequence.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/game_object"
	"github.com/Carmen-Shannon/oxy-ar/engine/model"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNotReady is returned by Draw before Setup succeeded or after the renderer released the scene's assets.
	ErrNotReady = errors.New("scene: not set up")
	// ErrNoAssets is returned when a texture is needed but no AssetSource is configured.
	ErrNoAssets = errors.New("scene: no asset source")
)

const (
	// DefaultCreatureScale is the scale of creature sprites.
	DefaultCreatureScale = 1.0
	// DefaultPointOfInterestScale is the scale of point of interest sprites.
	DefaultPointOfInterestScale = 10.0
	// DefaultParallelThreshold is the entity count above which transforms are computed on the worker pool.
	DefaultParallelThreshold = 64
)

// Scene manages the creatures, points of interest and fixed sprites of the overlay together with the floor and the
// camera. Reconciliation against the WorldSource happens in Update; Draw issues the frame's draws and must be called
// between BeginFrame and EndFrame on the renderer. Like the renderer it is used from the render thread only.
type Scene interface {
	// Setup registers the shader stages, the plainObj effect, the meshes, the camera buffer and the floor on the
	// renderer, then recreates the fixed entities. Tracked entities are dropped first, so Setup may be repeated after
	// the renderer released its assets.
	//
	// Returns:
	//   - error: error if a stage, the effect, a mesh or a shared buffer cannot be created
	Setup() error

	// Ready reports whether Setup succeeded and the renderer still holds the scene's assets.
	//
	// Returns:
	//   - bool: true if Draw can issue draws
	Ready() bool

	// Update refreshes the camera from its controller, polls the WorldSource, reconciles every kind against it and
	// recomputes each entity's local position and facing.
	Update()

	// Draw binds the effect and the camera buffer once, then draws the floor, the creatures, the points of interest
	// and the fixed entities. Instances that fail to draw are skipped.
	//
	// Returns:
	//   - error: ErrNotReady before Setup, or error if the effect or the camera buffer cannot be bound
	Draw() error

	// AddFixed places a sprite at a fixed local position. Fixed entities survive Setup; before the first Setup the
	// entity is only recorded and Setup creates it.
	//
	// Parameters:
	//   - id: the stable id of the entity
	//   - textureFile: the asset file of the sprite texture, also its registry name
	//   - position: the local position
	//   - scale: the uniform scale
	//
	// Returns:
	//   - error: error if the instance cannot be created
	AddFixed(id, textureFile string, position mgl32.Vec3, scale float32) error

	// RemoveFixed removes a fixed entity and releases its buffer.
	//
	// Parameters:
	//   - id: the id passed to AddFixed
	//
	// Returns:
	//   - bool: whether an entity was removed
	RemoveFixed(id string) bool

	// Entity returns a snapshot of a tracked entity.
	//
	// Parameters:
	//   - kind: the kind of the entity
	//   - id: the stable id
	//
	// Returns:
	//   - Entity: the snapshot
	//   - bool: whether the entity is tracked
	Entity(kind EntityKind, id string) (Entity, bool)

	// Entities returns snapshots of every tracked entity of a kind in first-sighting order.
	//
	// Parameters:
	//   - kind: the kind to list
	//
	// Returns:
	//   - []Entity: the snapshots
	Entities(kind EntityKind) []Entity

	// Count returns the number of tracked entities of a kind.
	//
	// Parameters:
	//   - kind: the kind to count
	//
	// Returns:
	//   - int: the count
	Count(kind EntityKind) int

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Clear evicts every creature and point of interest and releases their buffers. Shared meshes and textures stay
	// registered.
	Clear()

	// Release clears the scene, drops the fixed entities and evicts the floor and camera buffers.
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	r      renderer.Renderer
	cam    camera.Camera
	world  WorldSource
	assets AssetSource
	logger *slog.Logger

	floorFile         string
	poiFile           string
	creatureScale     float32
	poiScale          float32
	parallelThreshold int
	workers           int
	pool              worker.DynamicWorkerPool

	ready         bool
	billboard     *model.Mesh
	cameraUniform *buffer.Uniform[camera.GPUCameraUniform]
	floor         game_object.Instance

	kinds           [3]*tracked
	fixedPlacements map[string]fixedPlacement
	failed          map[string]struct{}

	player     common.GeoPoint
	havePlayer bool

	// reused every frame by updateTransforms
	scratch    []*entity
	placements []placement
}

type fixedPlacement struct {
	textureFile string
	position    mgl32.Vec3
	scale       float32
}

var _ Scene = &scene{}

// NewScene creates a Scene drawing through r. Setup must succeed before the first Draw, which requires r to hold a
// device. Without a WorldSource only fixed entities are shown.
//
// Parameters:
//   - r: the renderer to draw through (must not be nil)
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	s := &scene{
		r:                 r,
		floorFile:         "floor.png",
		poiFile:           "pokestop.png",
		creatureScale:     DefaultCreatureScale,
		poiScale:          DefaultPointOfInterestScale,
		parallelThreshold: DefaultParallelThreshold,
		workers:           max(runtime.NumCPU()-1, 1),
		kinds:             [3]*tracked{newTracked(), newTracked(), newTracked()},
		fixedPlacements:   make(map[string]fixedPlacement),
		failed:            make(map[string]struct{}),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = common.LoggerOr(s.logger)
	if s.cam == nil {
		s.cam = camera.NewCamera(camera.WithController(camera.NewOrientationController()))
	}

	// Initialize the pool after options so WithWorkers can override the default.
	s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)
	return s
}

func (s *scene) Setup() error {
	s.clearKinds(KindCreature, KindPointOfInterest, KindFixed)
	s.ready = false
	clear(s.failed)

	sh := s.r.Shaders()
	if err := sh.RegisterVertexStage(VertexSource, VertexStageName, model.GPUVertexLayout); err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	if err := sh.RegisterPixelStage(PixelSource, PixelStageName); err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	if _, err := sh.RegisterEffect(EffectName, VertexStageName, PixelStageName); err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}

	vertices, indices := model.Billboard()
	billboard, err := renderer.CreateMesh(s.r, BillboardMesh, vertices, indices)
	if err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	vertices, indices = model.Plane()
	plane, err := renderer.CreateMesh(s.r, PlaneMesh, vertices, indices)
	if err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	s.billboard = billboard

	s.cam.SetAspect(s.aspect())
	s.cameraUniform, err = renderer.CreateBuffer(s.r, CameraBufferKey, camera.CameraBlockName, s.cam.Uniform())
	if err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	floorUniform, err := renderer.CreateBuffer(s.r, FloorBufferKey, game_object.ModelBlockName, game_object.ModelUniform{World: mgl32.Ident4()})
	if err != nil {
		return fmt.Errorf("scene setup: %w", err)
	}
	s.floor = game_object.NewInstance(plane, floorUniform, game_object.WithID(FloorBufferKey))
	if tex, err := s.texture(FloorTexture, s.floorFile); err == nil {
		s.floor.AttachTexture(tex)
	} else {
		s.logger.Warn("floor texture unavailable", "file", s.floorFile, "error", err)
		s.floor.SetEnabled(false)
	}

	s.ready = true
	for id, fp := range s.fixedPlacements {
		if err := s.addFixed(id, fp); err != nil {
			s.logger.Warn("failed to restore fixed entity", "id", id, "error", err)
		}
	}
	s.logger.Info("scene ready", "fixed", len(s.fixedPlacements))
	return nil
}

func (s *scene) Ready() bool {
	return s.ready && s.billboard != nil && !s.billboard.Released()
}

func (s *scene) aspect() float32 {
	if a := s.r.Aspect(); a > 0 {
		return a
	}
	return 1
}

// texture returns the texture registered under name, loading file through the asset source on first use. A file
// that failed once is not retried until the next Setup.
func (s *scene) texture(name, file string) (*texture.Texture2D, error) {
	if tex, ok := s.r.Texture(name); ok && !tex.Released() {
		return tex, nil
	}
	if _, failed := s.failed[name]; failed {
		return nil, fmt.Errorf("texture %s: previous load failed", name)
	}
	if s.assets == nil {
		s.failed[name] = struct{}{}
		return nil, ErrNoAssets
	}
	data, err := s.assets.Open(file)
	if err != nil {
		s.failed[name] = struct{}{}
		return nil, fmt.Errorf("open %s: %w", file, err)
	}
	tex, err := s.r.CreateTexture(name, TextureSlot, data)
	if err != nil {
		s.failed[name] = struct{}{}
		return nil, err
	}
	return tex, nil
}

// newEntity allocates the per-instance buffer of e and attaches its texture. A texture that cannot be loaded leaves
// the instance disabled.
func (s *scene) newEntity(e *entity, textureName, textureFile string) (*entity, error) {
	e.key = "model/" + e.Kind.String() + "/" + e.ID
	u, err := renderer.CreateBuffer(s.r, e.key, game_object.ModelBlockName, game_object.ModelUniform{World: mgl32.Ident4()})
	if err != nil {
		s.logger.Warn("failed to create entity buffer", "kind", e.Kind, "id", e.ID, "error", err)
		return nil, err
	}
	e.instance = game_object.NewInstance(s.billboard, u, game_object.WithID(e.key))
	if tex, err := s.texture(textureName, textureFile); err == nil {
		e.Texture = textureName
		e.instance.AttachTexture(tex)
	} else {
		s.logger.Warn("entity texture unavailable", "kind", e.Kind, "id", e.ID, "texture", textureName, "error", err)
		e.instance.SetEnabled(false)
	}

	p := place(e, s.player, s.havePlayer)
	e.Position, e.Yaw = p.position, p.yaw
	e.instance.SetTransform(e.Position, e.Yaw, e.Scale)
	s.logger.Debug("entity created", "kind", e.Kind, "id", e.ID, "x", e.Position.X(), "z", e.Position.Z())
	return e, nil
}

func (s *scene) evict(e *entity) {
	s.r.Registry().Evict(e.key)
	s.logger.Debug("entity removed", "kind", e.Kind, "id", e.ID)
}

func (s *scene) Update() {
	s.cam.SetAspect(s.aspect())
	s.cam.Update()
	if !s.Ready() {
		return
	}
	s.cameraUniform.Set(s.cam.Uniform())

	if s.world != nil {
		s.player, s.havePlayer = s.world.PlayerPosition()
		s.reconcileCreatures(s.world.Creatures())
		s.reconcilePointsOfInterest(s.world.PointsOfInterest())
	}
	s.updateTransforms()
}

func (s *scene) reconcileCreatures(reports []CreatureReport) {
	created, removed := reconcile(s.kinds[KindCreature], reports,
		func(r CreatureReport) string { return r.ID },
		func(r CreatureReport) (*entity, error) {
			geo := r.Position
			e := &entity{Entity: Entity{ID: r.ID, Kind: KindCreature, Species: r.Species, Geo: &geo, Scale: s.creatureScale}}
			name := strconv.Itoa(r.Species) + ".png"
			return s.newEntity(e, name, name)
		},
		func(e *entity, r CreatureReport) { *e.Geo = r.Position },
		s.evict,
	)
	if created > 0 || removed > 0 {
		s.logger.Debug("creatures reconciled", "created", created, "removed", removed, "tracked", len(s.kinds[KindCreature].order))
	}
}

func (s *scene) reconcilePointsOfInterest(reports []PointOfInterestReport) {
	created, removed := reconcile(s.kinds[KindPointOfInterest], reports,
		func(r PointOfInterestReport) string { return r.ID },
		func(r PointOfInterestReport) (*entity, error) {
			geo := r.Position
			e := &entity{Entity: Entity{ID: r.ID, Kind: KindPointOfInterest, Geo: &geo, Scale: s.poiScale}}
			return s.newEntity(e, PointOfInterestTexture, s.poiFile)
		},
		func(e *entity, r PointOfInterestReport) { *e.Geo = r.Position },
		s.evict,
	)
	if created > 0 || removed > 0 {
		s.logger.Debug("points of interest reconciled", "created", created, "removed", removed, "tracked", len(s.kinds[KindPointOfInterest].order))
	}
}

// updateTransforms recomputes every entity's placement, on the worker pool once the entity count exceeds the
// parallel threshold, then writes the model uniforms on the calling goroutine.
func (s *scene) updateTransforms() {
	s.scratch = s.scratch[:0]
	for _, t := range s.kinds {
		s.scratch = append(s.scratch, t.order...)
	}
	n := len(s.scratch)
	if cap(s.placements) < n {
		s.placements = make([]placement, n)
	}
	s.placements = s.placements[:n]

	if n > s.parallelThreshold && s.workers > 1 {
		// Each task owns a disjoint slot range of placements; wg is the per-frame barrier.
		var wg sync.WaitGroup
		chunk := (n + s.workers - 1) / s.workers
		taskID := 0
		for lo := 0; lo < n; lo += chunk {
			hi := min(lo+chunk, n)
			wg.Add(1)
			s.pool.SubmitTask(worker.Task{
				ID: taskID,
				Do: func() (any, error) {
					defer wg.Done()
					for i := lo; i < hi; i++ {
						s.placements[i] = place(s.scratch[i], s.player, s.havePlayer)
					}
					return nil, nil
				},
			})
			taskID++
		}
		wg.Wait()
	} else {
		for i, e := range s.scratch {
			s.placements[i] = place(e, s.player, s.havePlayer)
		}
	}

	for i, e := range s.scratch {
		p := s.placements[i]
		e.Position, e.Yaw = p.position, p.yaw
		e.instance.SetTransform(e.Position, e.Yaw, e.Scale)
	}
	clear(s.scratch)
}

func (s *scene) Draw() error {
	if !s.Ready() {
		return ErrNotReady
	}
	sh := s.r.Shaders()
	effect, ok := sh.Effect(EffectName)
	if !ok {
		return fmt.Errorf("draw scene: effect %s: %w", EffectName, ErrNotReady)
	}
	if err := sh.BindEffect(effect); err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}
	if err := s.cameraUniform.Bind(); err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}

	s.drawInstance(s.floor)
	for _, t := range s.kinds {
		for _, e := range t.order {
			s.drawInstance(e.instance)
		}
	}
	return nil
}

func (s *scene) drawInstance(inst game_object.Instance) {
	if inst == nil {
		return
	}
	if err := inst.Draw(); err != nil {
		s.logger.Debug("skipped instance draw", "id", inst.ID(), "error", err)
	}
}

func (s *scene) AddFixed(id, textureFile string, position mgl32.Vec3, scale float32) error {
	fp := fixedPlacement{textureFile: textureFile, position: position, scale: scale}
	if !s.Ready() {
		s.fixedPlacements[id] = fp
		return nil
	}
	if e, ok := s.kinds[KindFixed].byID[id]; ok {
		s.removeFixed(e)
	}
	if err := s.addFixed(id, fp); err != nil {
		return err
	}
	s.fixedPlacements[id] = fp
	return nil
}

func (s *scene) addFixed(id string, fp fixedPlacement) error {
	e := &entity{Entity: Entity{ID: id, Kind: KindFixed, Position: fp.position, Scale: fp.scale}}
	e, err := s.newEntity(e, fp.textureFile, fp.textureFile)
	if err != nil {
		return fmt.Errorf("fixed entity %s: %w", id, err)
	}
	s.kinds[KindFixed].add(e)
	return nil
}

func (s *scene) RemoveFixed(id string) bool {
	delete(s.fixedPlacements, id)
	e, ok := s.kinds[KindFixed].byID[id]
	if !ok {
		return false
	}
	s.removeFixed(e)
	return true
}

func (s *scene) removeFixed(e *entity) {
	t := s.kinds[KindFixed]
	s.evict(e)
	delete(t.byID, e.ID)
	t.order = slices.DeleteFunc(t.order, func(x *entity) bool { return x == e })
}

func (s *scene) Entity(kind EntityKind, id string) (Entity, bool) {
	t := s.trackedOf(kind)
	if t == nil {
		return Entity{}, false
	}
	e, ok := t.byID[id]
	if !ok {
		return Entity{}, false
	}
	return snapshot(e), true
}

func (s *scene) Entities(kind EntityKind) []Entity {
	t := s.trackedOf(kind)
	if t == nil {
		return nil
	}
	out := make([]Entity, 0, len(t.order))
	for _, e := range t.order {
		out = append(out, snapshot(e))
	}
	return out
}

func (s *scene) Count(kind EntityKind) int {
	t := s.trackedOf(kind)
	if t == nil {
		return 0
	}
	return len(t.order)
}

func (s *scene) trackedOf(kind EntityKind) *tracked {
	if kind < 0 || int(kind) >= len(s.kinds) {
		return nil
	}
	return s.kinds[kind]
}

func snapshot(e *entity) Entity {
	out := e.Entity
	if e.Geo != nil {
		geo := *e.Geo
		out.Geo = &geo
	}
	return out
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Clear() {
	s.clearKinds(KindCreature, KindPointOfInterest)
}

func (s *scene) clearKinds(kinds ...EntityKind) {
	for _, kind := range kinds {
		t := s.kinds[kind]
		for _, e := range t.order {
			s.evict(e)
		}
		clear(t.byID)
		clear(t.order)
		t.order = t.order[:0]
	}
}

func (s *scene) Release() {
	s.clearKinds(KindCreature, KindPointOfInterest, KindFixed)
	clear(s.fixedPlacements)
	reg := s.r.Registry()
	reg.Evict(FloorBufferKey)
	reg.Evict(CameraBufferKey)
	s.floor = nil
	s.cameraUniform = nil
	s.billboard = nil
	s.ready = false
}
