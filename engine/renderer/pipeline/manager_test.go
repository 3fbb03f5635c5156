package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `
struct CameraUniform { view: mat4x4<f32>, projection: mat4x4<f32>, }
struct ModelUniform { world: mat4x4<f32>, }
@group(0) @binding(0) var<uniform> camera: CameraUniform;
@group(1) @binding(0) var<uniform> model: ModelUniform;

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
}
struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = camera.projection * camera.view * model.world * vec4<f32>(input.position, 1.0);
    out.uv = input.uv;
    return out;
}
`

const pixelSource = `
@group(2) @binding(0) var mainTexture: texture_2d<f32>;
@group(2) @binding(1) var mainTextureSampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(mainTexture, mainTextureSampler, uv);
}
`

const tintSource = `
@fragment
fn fs_tint() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func newTestManager(t *testing.T) (*Manager, *devicetest.Fake) {
	t.Helper()
	dev := devicetest.New(device.Config{Width: 64, Height: 64})
	m := NewManager()
	m.Attach(dev)
	require.NoError(t, m.RegisterVertexStage(vertexSource, "vs", device.VertexLayout{}))
	require.NoError(t, m.RegisterPixelStage(pixelSource, "ps"))
	return m, dev
}

func TestRegisterVertexStageReflectsLayout(t *testing.T) {
	m, _ := newTestManager(t)
	vs, ok := m.Stage("vs")
	require.True(t, ok)
	assert.Equal(t, uint64(20), vs.Layout().Stride)
	assert.Equal(t, shader.ShaderTypeVertex, vs.Type())

	explicit := device.VertexLayout{Stride: 32, Attributes: []device.VertexAttribute{{Format: device.VertexFormatFloat32x4}}}
	require.NoError(t, m.RegisterVertexStage(vertexSource, "vs32", explicit))
	vs32, _ := m.Stage("vs32")
	assert.Equal(t, explicit, vs32.Layout())
}

func TestRegisterStageErrors(t *testing.T) {
	m, _ := newTestManager(t)

	assert.ErrorIs(t, m.RegisterVertexStage(pixelSource, "bad", device.VertexLayout{}), shader.ErrNoEntryPoint)
	assert.ErrorIs(t, m.RegisterPixelStage(vertexSource, "bad"), shader.ErrNoEntryPoint)
	assert.ErrorIs(t, m.RegisterPixelStage(pixelSource, "vs"), ErrStageKind)
	_, ok := m.Stage("bad")
	assert.False(t, ok)

	detached := NewManager()
	assert.ErrorIs(t, detached.RegisterPixelStage(pixelSource, "ps"), ErrDetached)
}

func TestRegisterEffectValidatesStages(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		name          string
		vertex, pixel string
		want          error
	}{
		{"missing vertex", "nope", "ps", ErrStageNotFound},
		{"missing pixel", "vs", "nope", ErrStageNotFound},
		{"vertex is pixel", "ps", "ps", ErrStageKind},
		{"pixel is vertex", "vs", "vs", ErrStageKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.RegisterEffect("broken", tt.vertex, tt.pixel)
			assert.ErrorIs(t, err, tt.want)
			_, ok := m.Effect("broken")
			assert.False(t, ok, "no partial effect is registered")
		})
	}

	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)
	assert.Equal(t, "plainObj", e.Key())
	assert.True(t, e.Declares("camera"))
	assert.True(t, e.Declares("mainTexture"))
	assert.False(t, e.Declares("lights"))
}

func TestBindEffectIsIdempotent(t *testing.T) {
	m, dev := newTestManager(t)
	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)

	require.NoError(t, m.BindEffect(e))
	require.NoError(t, m.BindEffect(e))

	assert.Equal(t, 1, dev.VertexStageSets)
	assert.Equal(t, 1, dev.PixelStageSets)
	assert.Same(t, e, m.Current())
}

func TestBindEffectOnlySetsChangedStage(t *testing.T) {
	m, dev := newTestManager(t)
	require.NoError(t, m.RegisterPixelStage(tintSource, "tint"))
	plain, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)
	tint, err := m.RegisterEffect("tinted", "vs", "tint")
	require.NoError(t, err)

	require.NoError(t, m.BindEffect(plain))
	require.NoError(t, m.BindEffect(tint))
	require.NoError(t, m.BindEffect(plain))

	assert.Equal(t, 1, dev.VertexStageSets)
	assert.Equal(t, 3, dev.PixelStageSets)
}

func TestBindUniformAndTextureByName(t *testing.T) {
	m, dev := newTestManager(t)
	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)

	buf, err := dev.CreateBuffer("model", device.BufferUniform, make([]byte, 64))
	require.NoError(t, err)
	tex, err := dev.CreateTexture("tex", stagedPixel())
	require.NoError(t, err)
	samp, err := dev.CreateSampler(device.DefaultSampler("tex"))
	require.NoError(t, err)

	assert.False(t, m.BindUniform("model", buf), "nothing bound before an effect")

	require.NoError(t, m.BindEffect(e))
	assert.True(t, m.BindUniform("model", buf))
	assert.False(t, m.BindUniform("lights", buf))
	assert.True(t, m.BindTexture("mainTexture", tex, samp))
	assert.False(t, m.BindTexture("normalMap", tex, samp))

	require.Len(t, dev.Uniforms, 1)
	assert.Equal(t, device.StageVertex, dev.Uniforms[0].Stage)
	assert.Equal(t, device.Slot{Group: 1, Binding: 0}, dev.Uniforms[0].Slot)
	require.Len(t, dev.TexturesBound, 1)
	assert.Equal(t, device.StagePixel, dev.TexturesBound[0].Stage)
	assert.Equal(t, device.TextureSlot{Group: 2, Binding: 0, SamplerBinding: 1, HasSampler: true}, dev.TexturesBound[0].Slot)
}

func TestDefineOverridesReflection(t *testing.T) {
	m, dev := newTestManager(t)
	require.NoError(t, m.DefineUniform("vs", "common", device.Slot{Group: 0, Binding: 0}))
	assert.ErrorIs(t, m.DefineTexture("missing", "mainTexture", device.TextureSlot{}), ErrStageNotFound)

	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)
	require.NoError(t, m.BindEffect(e))

	buf, err := dev.CreateBuffer("common", device.BufferUniform, make([]byte, 128))
	require.NoError(t, err)
	assert.True(t, m.BindUniform("common", buf))
}

func TestReplaceStageKeepsEffectsAndRebinds(t *testing.T) {
	m, dev := newTestManager(t)
	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)
	require.NoError(t, m.BindEffect(e))

	require.NoError(t, m.RegisterPixelStage(tintSource, "ps"))
	require.NoError(t, m.BindEffect(e))

	assert.Equal(t, 2, dev.PixelStageSets)
	assert.Equal(t, "fs_tint", e.PixelStage().Shader().EntryPoint())
	assert.Equal(t, 2, dev.Tracker.LiveOf("vertex")+dev.Tracker.LiveOf("pixel"))
}

func TestRestoreAndRelease(t *testing.T) {
	m, dev := newTestManager(t)
	e, err := m.RegisterEffect("plainObj", "vs", "ps")
	require.NoError(t, err)
	require.NoError(t, m.BindEffect(e))

	next := devicetest.New(device.Config{Width: 64, Height: 64})
	require.NoError(t, m.Restore(next))
	assert.Zero(t, dev.Tracker.Live(), "old handles released")
	assert.Equal(t, 2, next.Tracker.Live())

	require.NoError(t, m.BindEffect(e))
	assert.Equal(t, 1, next.VertexStageSets, "bind cache reset on a new device")

	m.Release()
	assert.Zero(t, next.Tracker.Live())
	_, ok := m.Effect("plainObj")
	assert.False(t, ok)
	assert.Nil(t, m.Device())
	assert.ErrorIs(t, m.BindEffect(e), ErrDetached)
}

func stagedPixel() common.TextureStagingData {
	return common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
}
