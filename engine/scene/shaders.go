package scene

import _ "embed"

// VertexSource is the WGSL vertex stage of the plainObj effect. It reads the camera block at @group(0) and the model
// block at @group(1).
//
//go:embed shaders/plain_obj.vs.wgsl
var VertexSource string

// PixelSource is the WGSL pixel stage of the plainObj effect. It samples mainTexture at @group(2).
//
//go:embed shaders/plain_obj.ps.wgsl
var PixelSource string

const (
	// EffectName is the effect every overlay sprite is drawn with.
	EffectName = "plainObj"
	// VertexStageName is the registered name of VertexSource.
	VertexStageName = "vs"
	// PixelStageName is the registered name of PixelSource.
	PixelStageName = "ps"
	// TextureSlot is the texture slot sprites bind their texture to.
	TextureSlot = "mainTexture"

	// BillboardMesh is the registry name of the sprite quad.
	BillboardMesh = "billboard"
	// PlaneMesh is the registry name of the floor slab.
	PlaneMesh = "plane"
	// CameraBufferKey is the registry key of the camera uniform buffer.
	CameraBufferKey = "camera"
	// FloorBufferKey is the registry key of the floor's model uniform buffer.
	FloorBufferKey = "model/floor"
	// FloorTexture is the registry name of the floor texture.
	FloorTexture = "floor"
	// PointOfInterestTexture is the registry name of the texture shared by every point of interest.
	PointOfInterestTexture = "pokestop"
)
