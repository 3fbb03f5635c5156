package model

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/device"
)

// GPUVertex is the GPU-aligned representation of a textured vertex.
// Matches the VertexInput struct of the plainObj vertex stage (20 bytes, tightly packed).
type GPUVertex struct {
	Position [3]float32 // offset  0: position in model space (12 bytes)
	TexCoord [2]float32 // offset 12: UV texture coordinate (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// GPUVertexLayout is the vertex buffer layout of GPUVertex.
var GPUVertexLayout = device.VertexLayout{
	Stride: 20,
	Attributes: []device.VertexAttribute{
		{Location: 0, Format: device.VertexFormatFloat32x3, Offset: 0},
		{Location: 1, Format: device.VertexFormatFloat32x2, Offset: 12},
	},
}
