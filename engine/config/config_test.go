package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyYieldsDefaults(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseOverridesAndFillsGaps(t *testing.T) {
	c, err := Parse([]byte(`
[window]
width = 800

[renderer]
present_mode = "Uncapped"
frame_limit = 30

[sensor]
threshold = 0.25
compass_interval = "500ms"

[camera]
fov_degrees = 75

[assets]
preload = ["floor.png", "1.png"]

[log]
level = "DEBUG"
format = "json"
`))
	require.NoError(t, err)

	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, 720, c.Window.Height)
	assert.Equal(t, "oxy-ar", c.Window.Title)
	assert.Equal(t, "uncapped", c.Renderer.PresentMode)
	assert.InDelta(t, 30, c.Renderer.FrameLimit, 1e-9)
	assert.InDelta(t, 60, c.Renderer.TickRate, 1e-9)
	assert.InDelta(t, 0.25, c.Sensor.Threshold, 1e-6)
	assert.Equal(t, Duration(500*time.Millisecond), c.Sensor.CompassInterval)
	assert.Equal(t, Duration(20*time.Millisecond), c.Sensor.InclinometerInterval)
	assert.InDelta(t, 75, c.Camera.FovDegrees, 1e-6)
	assert.InDelta(t, 100, c.Camera.Far, 1e-6)
	assert.Equal(t, []string{"floor.png", "1.png"}, c.Assets.Preload)
	assert.Equal(t, "assets", c.Assets.Dir)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "[window]\ncolour = 3\n"},
		{"present mode", "[renderer]\npresent_mode = \"adaptive\"\n"},
		{"threshold", "[sensor]\nthreshold = 1.5\n"},
		{"fov", "[camera]\nfov_degrees = 190\n"},
		{"clip planes", "[camera]\nnear = 10\nfar = 5\n"},
		{"log level", "[log]\nlevel = \"loud\"\n"},
		{"log format", "[log]\nformat = \"xml\"\n"},
		{"negative workers", "[scene]\nworkers = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseMalformedDocument(t *testing.T) {
	_, err := Parse([]byte("[window\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestParseBadDuration(t *testing.T) {
	_, err := Parse([]byte("[sensor]\ncompass_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	c, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	path := filepath.Join(dir, "oxy-ar.toml")
	require.NoError(t, os.WriteFile(path, []byte("[scene]\nworkers = 3\n"), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Scene.Workers)

	require.NoError(t, os.WriteFile(path, []byte("[scene]\nworkers = -3\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), path)
}

func TestMarshalParsesBack(t *testing.T) {
	want := Default()
	want.Sensor.CompassInterval = Duration(750 * time.Millisecond)
	want.Assets.Preload = []string{"1.png"}

	data, err := want.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "750ms")

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", "k", 1)
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

type fixedOrientation mgl32.Mat3

func (o fixedOrientation) Matrix() mgl32.Mat3 { return mgl32.Mat3(o) }

func TestCameraFromConfig(t *testing.T) {
	c := Default()
	c.Camera.FovDegrees = 90
	c.Camera.Near = 0.5

	cam := c.NewCamera(fixedOrientation(mgl32.Ident3()))
	assert.InDelta(t, mgl32.DegToRad(90), cam.Fov(), 1e-6)
	assert.InDelta(t, 0.5, cam.Near(), 1e-6)
	assert.InDelta(t, 100, cam.Far(), 1e-6)

	assert.NotNil(t, c.NewCamera(nil).Controller())
}

func TestOptionMappers(t *testing.T) {
	c := Default()
	assert.Len(t, c.WindowOptions(), 2)
	assert.Len(t, c.RendererOptions(), 2)
	assert.Len(t, c.FilterOptions(), 2)
	assert.Len(t, c.LoaderOptions(), 1)
	assert.Len(t, c.SceneOptions(nil), 4)

	c.Scene.Workers = 2
	assert.Len(t, c.SceneOptions(nil), 5)
}
