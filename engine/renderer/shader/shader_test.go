package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexSource = `
/* camera block
   /* nested */
*/
struct CameraUniform {
    view: mat4x4<f32>,
    projection: mat4x4<f32>,
}

struct ModelUniform { world: mat4x4<f32>, }

@group(0) @binding(0) var<uniform> camera: CameraUniform;
@group(1) @binding(0) var<uniform> model: ModelUniform;

struct VertexInput {
    @location(0) position: vec3<f32>, // xyz
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

const testPixelSource = `
@group(2) @binding(1) var linearSampler: sampler;
@group(2) @binding(0) var mainTexture: texture_2d<f32>;
@group(2) @binding(2) var overlay: texture_2d<f32>;
@group(2) @binding(3) var overlaySampler: sampler;

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(mainTexture, linearSampler, uv) * textureSample(overlay, overlaySampler, uv);
}
`

func TestNewShaderVertexReflection(t *testing.T) {
	s, err := NewShader("vs", ShaderTypeVertex, testVertexSource)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())

	layout := s.VertexLayout()
	assert.Equal(t, uint64(20), layout.Stride)
	assert.Equal(t, []device.VertexAttribute{
		{Location: 0, Format: device.VertexFormatFloat32x3, Offset: 0},
		{Location: 1, Format: device.VertexFormatFloat32x2, Offset: 12},
	}, layout.Attributes)

	slot, ok := s.UniformSlot("camera")
	require.True(t, ok)
	assert.Equal(t, device.Slot{Group: 0, Binding: 0}, slot)
	slot, ok = s.UniformSlot("model")
	require.True(t, ok)
	assert.Equal(t, device.Slot{Group: 1, Binding: 0}, slot)

	bindings := s.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, uint64(128), bindings[0].Size)
	assert.Equal(t, uint64(64), bindings[1].Size)

	_, ok = s.TextureSlot("mainTexture")
	assert.False(t, ok)
}

func TestNewShaderPixelPairsSamplers(t *testing.T) {
	s, err := NewShader("ps", ShaderTypeFragment, testPixelSource)
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.True(t, s.VertexLayout().IsZero())

	main, ok := s.TextureSlot("mainTexture")
	require.True(t, ok)
	assert.Equal(t, device.TextureSlot{Group: 2, Binding: 0, SamplerBinding: 1, HasSampler: true}, main)

	overlay, ok := s.TextureSlot("overlay")
	require.True(t, ok)
	assert.Equal(t, uint32(3), overlay.SamplerBinding, "named sampler wins over the first one")

	bindings := s.Bindings()
	require.Len(t, bindings, 4)
	for i, b := range bindings {
		assert.Equal(t, uint32(i), b.Binding, "sorted by binding")
	}
	base, params := bindings[0].TypeParams()
	assert.Equal(t, "texture_2d", base)
	assert.Equal(t, "f32", params)
}

func TestNewShaderMissingEntryPoint(t *testing.T) {
	_, err := NewShader("ps", ShaderTypeFragment, testVertexSource)
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = NewShader("vs", ShaderTypeVertex, "// @vertex fn commented_out() {}")
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestDefineOverrides(t *testing.T) {
	s, err := NewShader("vs", ShaderTypeVertex, testVertexSource)
	require.NoError(t, err)

	s.DefineUniform("common", device.Slot{Group: 0, Binding: 0})
	s.DefineTexture("mainTexture", device.TextureSlot{Group: 3, Binding: 1})

	slot, ok := s.UniformSlot("common")
	require.True(t, ok)
	assert.Equal(t, device.Slot{}, slot)
	tex, ok := s.TextureSlot("mainTexture")
	require.True(t, ok)
	assert.Equal(t, uint32(3), tex.Group)
}

func TestResolveTypeLayout(t *testing.T) {
	known := map[string]wgslTypeLayout{"Light": {32, 16}}
	tests := []struct {
		typeName string
		size     uint64
		ok       bool
	}{
		{"vec3<f32>", 12, true},
		{"array<vec3f, 4>", 64, true},
		{"array<Light, 2>", 64, true},
		{"array<f32>", 0, false},
		{"Unknown", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			layout, ok := resolveTypeLayout(tt.typeName, known)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.size, layout.size)
		})
	}
}
