package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithWorld sets the game-state collaborator polled once per Update.
//
// Parameters:
//   - w: the world source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorld(w WorldSource) SceneBuilderOption {
	return func(s *scene) {
		s.world = w
	}
}

// WithAssets sets the source texture files are loaded from.
//
// Parameters:
//   - a: the asset source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssets(a AssetSource) SceneBuilderOption {
	return func(s *scene) {
		s.assets = a
	}
}

// WithCamera replaces the default orientation camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithOrientation builds the default camera on an orientation controller reading src. Ignored when WithCamera is
// also given.
//
// Parameters:
//   - src: the rotation source, typically a sensor OrientationFilter
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithOrientation(src camera.Orientation) SceneBuilderOption {
	return func(s *scene) {
		if s.cam != nil {
			return
		}
		s.cam = camera.NewCamera(camera.WithController(camera.NewOrientationController(camera.WithOrientation(src))))
	}
}

// WithTextureFiles sets the asset files of the floor texture and the shared point of interest texture.
// Empty values keep the defaults "floor.png" and "pokestop.png".
//
// Parameters:
//   - floor: the floor texture file
//   - pointOfInterest: the point of interest texture file
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithTextureFiles(floor, pointOfInterest string) SceneBuilderOption {
	return func(s *scene) {
		if floor != "" {
			s.floorFile = floor
		}
		if pointOfInterest != "" {
			s.poiFile = pointOfInterest
		}
	}
}

// WithScales sets the sprite scale of creatures and points of interest. Non-positive values keep the defaults.
//
// Parameters:
//   - creature: the creature scale
//   - pointOfInterest: the point of interest scale
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithScales(creature, pointOfInterest float32) SceneBuilderOption {
	return func(s *scene) {
		if creature > 0 {
			s.creatureScale = creature
		}
		if pointOfInterest > 0 {
			s.poiScale = pointOfInterest
		}
	}
}

// WithWorkers sets the number of worker goroutines transforms fan out to. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1, 1 disables the fan-out)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithParallelThreshold sets the entity count above which transforms fan out to the workers.
//
// Parameters:
//   - n: the threshold
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithParallelThreshold(n int) SceneBuilderOption {
	return func(s *scene) {
		s.parallelThreshold = max(n, 0)
	}
}

// WithLogger sets the logger of the scene.
//
// Parameters:
//   - l: the logger, nil selects the engine logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(l *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.logger = l
	}
}
