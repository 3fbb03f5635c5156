// package config loads the overlay's TOML configuration. Every field is optional; zero values fall back to the
// defaults of Default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as a Go duration string, e.g. "200ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the complete overlay configuration.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Sensor   SensorConfig   `toml:"sensor"`
	Camera   CameraConfig   `toml:"camera"`
	Scene    SceneConfig    `toml:"scene"`
	Assets   AssetsConfig   `toml:"assets"`
	Log      LogConfig      `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type RendererConfig struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode  string  `toml:"present_mode"`
	DisableDepth bool    `toml:"disable_depth"`
	FrameLimit   float64 `toml:"frame_limit"`
	TickRate     float64 `toml:"tick_rate"`
	Profile      bool    `toml:"profile"`
}

type SensorConfig struct {
	// Threshold is the dot product magnitude above which orientation samples are rejected.
	Threshold            float32  `toml:"threshold"`
	CompassInterval      Duration `toml:"compass_interval"`
	OrientationInterval  Duration `toml:"orientation_interval"`
	InclinometerInterval Duration `toml:"inclinometer_interval"`
}

type CameraConfig struct {
	// FovDegrees is the vertical field of view.
	FovDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
}

type SceneConfig struct {
	CreatureScale          float32 `toml:"creature_scale"`
	PointOfInterestScale   float32 `toml:"point_of_interest_scale"`
	FloorTexture           string  `toml:"floor_texture"`
	PointOfInterestTexture string  `toml:"point_of_interest_texture"`
	Workers                int     `toml:"workers"`
	ParallelThreshold      int     `toml:"parallel_threshold"`
}

type AssetsConfig struct {
	Dir     string   `toml:"dir"`
	Preload []string `toml:"preload"`
}

type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the configuration used for every unset field.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window:   WindowConfig{Title: "oxy-ar", Width: 1280, Height: 720},
		Renderer: RendererConfig{PresentMode: "vsync", TickRate: 60},
		Sensor: SensorConfig{
			Threshold:            0.1,
			CompassInterval:      Duration(200 * time.Millisecond),
			OrientationInterval:  Duration(200 * time.Millisecond),
			InclinometerInterval: Duration(20 * time.Millisecond),
		},
		Camera: CameraConfig{FovDegrees: 60, Near: 0.01, Far: 100},
		Scene: SceneConfig{
			CreatureScale:          1,
			PointOfInterestScale:   10,
			FloorTexture:           "floor.png",
			PointOfInterestTexture: "pokestop.png",
			ParallelThreshold:      64,
		},
		Assets: AssetsConfig{Dir: "assets"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Parse decodes TOML, fills unset fields from Default and validates the result. Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged configuration
//   - error: a decode error, or error wrapping ErrInvalid
func Parse(data []byte) (Config, error) {
	var c Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a TOML file. A missing file yields Default.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Marshal encodes c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func (c Config) withDefaults() Config {
	d := Default()

	c.Window.Title = common.Coalesce(c.Window.Title, d.Window.Title)
	c.Window.Width = common.Coalesce(c.Window.Width, d.Window.Width)
	c.Window.Height = common.Coalesce(c.Window.Height, d.Window.Height)

	c.Renderer.PresentMode = common.Coalesce(strings.ToLower(c.Renderer.PresentMode), d.Renderer.PresentMode)
	c.Renderer.TickRate = common.Coalesce(c.Renderer.TickRate, d.Renderer.TickRate)

	c.Sensor.Threshold = common.Coalesce(c.Sensor.Threshold, d.Sensor.Threshold)
	c.Sensor.CompassInterval = common.Coalesce(c.Sensor.CompassInterval, d.Sensor.CompassInterval)
	c.Sensor.OrientationInterval = common.Coalesce(c.Sensor.OrientationInterval, d.Sensor.OrientationInterval)
	c.Sensor.InclinometerInterval = common.Coalesce(c.Sensor.InclinometerInterval, d.Sensor.InclinometerInterval)

	c.Camera.FovDegrees = common.Coalesce(c.Camera.FovDegrees, d.Camera.FovDegrees)
	c.Camera.Near = common.Coalesce(c.Camera.Near, d.Camera.Near)
	c.Camera.Far = common.Coalesce(c.Camera.Far, d.Camera.Far)

	c.Scene.CreatureScale = common.Coalesce(c.Scene.CreatureScale, d.Scene.CreatureScale)
	c.Scene.PointOfInterestScale = common.Coalesce(c.Scene.PointOfInterestScale, d.Scene.PointOfInterestScale)
	c.Scene.FloorTexture = common.Coalesce(c.Scene.FloorTexture, d.Scene.FloorTexture)
	c.Scene.PointOfInterestTexture = common.Coalesce(c.Scene.PointOfInterestTexture, d.Scene.PointOfInterestTexture)
	c.Scene.ParallelThreshold = common.Coalesce(c.Scene.ParallelThreshold, d.Scene.ParallelThreshold)

	c.Assets.Dir = common.Coalesce(c.Assets.Dir, d.Assets.Dir)

	c.Log.Level = common.Coalesce(strings.ToLower(c.Log.Level), d.Log.Level)
	c.Log.Format = common.Coalesce(strings.ToLower(c.Log.Format), d.Log.Format)
	return c
}

// Validate reports the first out-of-range field.
//
// Returns:
//   - error: error wrapping ErrInvalid, nil for a valid configuration
func (c Config) Validate() error {
	switch {
	case c.Window.Width < 0 || c.Window.Height < 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Renderer.PresentMode != "vsync" && c.Renderer.PresentMode != "uncapped":
		return fmt.Errorf("%w: present_mode %q", ErrInvalid, c.Renderer.PresentMode)
	case c.Renderer.FrameLimit < 0 || c.Renderer.TickRate < 0:
		return fmt.Errorf("%w: negative frame_limit or tick_rate", ErrInvalid)
	case c.Sensor.Threshold < 0 || c.Sensor.Threshold > 1:
		return fmt.Errorf("%w: sensor threshold %v outside [0, 1]", ErrInvalid, c.Sensor.Threshold)
	case c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180:
		return fmt.Errorf("%w: fov_degrees %v", ErrInvalid, c.Camera.FovDegrees)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("%w: near %v far %v", ErrInvalid, c.Camera.Near, c.Camera.Far)
	case c.Scene.CreatureScale < 0 || c.Scene.PointOfInterestScale < 0 || c.Scene.Workers < 0:
		return fmt.Errorf("%w: negative scene scale or workers", ErrInvalid)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// NewLogger builds the logger described by l, writing to w.
//
// Parameters:
//   - w: the output, typically os.Stderr
//
// Returns:
//   - *slog.Logger: the logger
//   - error: error if the level does not parse
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
