// Command oxy-ar runs the AR overlay on a desktop window. Dragging with the left mouse button turns the view in
// place of the device sensors and the arrow keys walk the player through a static world.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine"
	"github.com/Carmen-Shannon/oxy-ar/engine/config"
	"github.com/Carmen-Shannon/oxy-ar/engine/loader"
	"github.com/Carmen-Shannon/oxy-ar/engine/scene"
	"github.com/Carmen-Shannon/oxy-ar/engine/sensor"
	"github.com/Carmen-Shannon/oxy-ar/engine/session"
	"github.com/Carmen-Shannon/oxy-ar/engine/window"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// degreesPerPixel is the drag sensitivity.
const degreesPerPixel = 0.2

func main() {
	configPath := flag.String("config", "oxy-ar.toml", "path of the TOML configuration")
	worldPath := flag.String("world", "world.toml", "path of the TOML world file")
	flag.Parse()

	if err := run(*configPath, *worldPath); err != nil {
		fmt.Fprintln(os.Stderr, "oxy-ar:", err)
		os.Exit(1)
	}
}

func run(configPath, worldPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	common.SetLogger(logger)

	world, err := loadWorld(worldPath)
	if err != nil {
		return err
	}

	assets := loader.NewFSLoader(os.DirFS(cfg.Assets.Dir), append(cfg.LoaderOptions(), loader.WithLogger(logger))...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := assets.Preload(ctx, cfg.Assets.Preload...); err != nil {
		logger.Warn("asset preload incomplete", "error", err)
	}

	win, err := window.NewWindow(cfg.WindowOptions()...)
	if err != nil {
		return err
	}

	inclinometer := sensor.NewManual[sensor.InclinometerReading](10 * time.Millisecond)
	compass := sensor.NewManual[sensor.CompassReading](50 * time.Millisecond)
	filter := sensor.NewOrientationFilter(append(cfg.FilterOptions(),
		sensor.WithInclinometer(inclinometer),
		sensor.WithCompass(compass),
		sensor.WithLogger(logger),
		sensor.WithAccuracyHandler(func(a sensor.Accuracy) {
			logger.Info("compass accuracy changed", "accuracy", a)
		}),
	)...)
	defer filter.Close()

	var pitch, yaw float32
	win.SetDragCallback(func(dx, dy float32) {
		yaw = float32(math.Mod(float64(yaw+dx*degreesPerPixel)+360, 360))
		pitch = max(-90, min(90, pitch-dy*degreesPerPixel))
		inclinometer.Emit(sensor.InclinometerReading{PitchDegrees: pitch, YawDegrees: yaw})
		compass.Emit(sensor.CompassReading{HeadingDegrees: yaw, Accuracy: sensor.AccuracyHigh})
	})
	win.SetKeyCallback(func(keyCode uint32, down bool) {
		if !down {
			return
		}
		switch glfw.Key(keyCode) {
		case glfw.KeyUp:
			world.walk(0, 1)
		case glfw.KeyDown:
			world.walk(0, -1)
		case glfw.KeyLeft:
			world.walk(-1, 0)
		case glfw.KeyRight:
			world.walk(1, 0)
		}
	})

	sceneOptions := append(cfg.SceneOptions(filter), scene.WithWorld(world), scene.WithAssets(assets))
	s := session.NewSession(
		session.WithFilter(filter),
		session.WithRendererOptions(cfg.RendererOptions()...),
		session.WithSceneOptions(sceneOptions...),
		session.WithLogger(logger),
	)
	if err := s.Initialize(uint32(win.Width()), uint32(win.Height()), win.SurfaceDescriptor()); err != nil {
		_ = win.Close()
		return err
	}
	defer s.Deinitialize()
	if err := s.BeginVideoStream(ctx); err != nil {
		return err
	}

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithSession(s),
		engine.WithTickRate(cfg.Renderer.TickRate),
		engine.WithRenderFrameLimit(cfg.Renderer.FrameLimit),
		engine.WithProfiling(cfg.Renderer.Profile),
		engine.WithLogger(logger),
	)
	logger.Info("session started", "session", s.ID(), "width", win.Width(), "height", win.Height())
	return eng.Run()
}
