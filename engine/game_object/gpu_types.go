package game_object

import "github.com/go-gl/mathgl/mgl32"

// ModelUniform is the per-instance uniform block. Matches ModelUniform in the plainObj vertex stage (64 bytes).
type ModelUniform struct {
	World mgl32.Mat4
}

// ModelBlockName is the uniform block name the model transform binds to.
const ModelBlockName = "model"
