package config

import (
	"time"

	"github.com/Carmen-Shannon/oxy-ar/engine/camera"
	"github.com/Carmen-Shannon/oxy-ar/engine/loader"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/Carmen-Shannon/oxy-ar/engine/sensor"
	"github.com/Carmen-Shannon/oxy-ar/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// WindowOptions maps the window section.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithSize(c.Window.Width, c.Window.Height),
	}
}

// RendererOptions maps the renderer section.
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	mode := renderer.PresentModeVSync
	if c.Renderer.PresentMode == "uncapped" {
		mode = renderer.PresentModeUncapped
	}
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithDepth(!c.Renderer.DisableDepth),
	}
}

// FilterOptions maps the sensor section. Sensor sources are attached by the caller.
func (c Config) FilterOptions() []sensor.OrientationFilterBuilderOption {
	return []sensor.OrientationFilterBuilderOption{
		sensor.WithThreshold(c.Sensor.Threshold),
		sensor.WithReportIntervals(
			time.Duration(c.Sensor.CompassInterval),
			time.Duration(c.Sensor.OrientationInterval),
			time.Duration(c.Sensor.InclinometerInterval),
		),
	}
}

// NewCamera builds the camera of the camera section on an orientation controller reading src.
//
// Parameters:
//   - src: the rotation source, nil for a camera that never rotates
//
// Returns:
//   - camera.Camera: the camera
func (c Config) NewCamera(src camera.Orientation) camera.Camera {
	var ctrl []camera.CameraControllerOption
	if src != nil {
		ctrl = append(ctrl, camera.WithOrientation(src))
	}
	return camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(c.Camera.FovDegrees)),
		camera.WithNear(c.Camera.Near),
		camera.WithFar(c.Camera.Far),
		camera.WithController(camera.NewOrientationController(ctrl...)),
	)
}

// SceneOptions maps the scene and camera sections.
//
// Parameters:
//   - src: the rotation source of the camera
//
// Returns:
//   - []scene.SceneBuilderOption: the options, without world or asset sources
func (c Config) SceneOptions(src camera.Orientation) []scene.SceneBuilderOption {
	opts := []scene.SceneBuilderOption{
		scene.WithCamera(c.NewCamera(src)),
		scene.WithTextureFiles(c.Scene.FloorTexture, c.Scene.PointOfInterestTexture),
		scene.WithScales(c.Scene.CreatureScale, c.Scene.PointOfInterestScale),
		scene.WithParallelThreshold(c.Scene.ParallelThreshold),
	}
	if c.Scene.Workers > 0 {
		opts = append(opts, scene.WithWorkers(c.Scene.Workers))
	}
	return opts
}

// LoaderOptions maps the assets section. The directory itself is opened by the caller.
func (c Config) LoaderOptions() []loader.LoaderBuilderOption {
	return []loader.LoaderBuilderOption{
		loader.WithCaching(true),
	}
}
