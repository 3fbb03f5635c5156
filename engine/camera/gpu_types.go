package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraBlockName is the uniform block name the camera uniform binds to.
const CameraBlockName = "camera"

// GPUCameraUniform is the GPU representation of the camera uniform buffer.
// Matches the WGSL CameraUniform struct of the plainObj vertex stage. Size: 128 bytes.
type GPUCameraUniform struct {
	View       mgl32.Mat4 // offset  0: view matrix (mat4x4<f32>)
	Projection mgl32.Mat4 // offset 64: projection matrix (mat4x4<f32>)
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.View[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Projection[i]))
	}
	return buf
}
