package model

// boxIndices triangulates the eight corners of a box whose corner i has x from bit 2, y from bit 1 and z from bit 0.
var boxIndices = []uint16{
	0, 2, 1, 1, 2, 3,
	4, 5, 6, 5, 7, 6,
	0, 1, 5, 0, 5, 4,
	2, 6, 7, 2, 7, 3,
	0, 4, 6, 0, 6, 2,
	1, 3, 7, 1, 7, 5,
}

// Billboard returns a thin upright sprite slab one unit wide and one unit tall, standing on the origin.
// The texture is mapped once across the front and back faces.
func Billboard() ([]GPUVertex, []uint16) {
	return []GPUVertex{
		{Position: [3]float32{-0.5, 1, -0.01}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{-0.5, 1, 0.01}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{-0.5, 0, -0.01}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{-0.5, 0, 0.01}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{0.5, 1, -0.01}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{0.5, 1, 0.01}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{0.5, 0, -0.01}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{0.5, 0, 0.01}, TexCoord: [2]float32{1, 1}},
	}, append([]uint16(nil), boxIndices...)
}

// Plane returns a flat ten by ten floor slab centered on the origin.
func Plane() ([]GPUVertex, []uint16) {
	return []GPUVertex{
		{Position: [3]float32{-5, -0.01, -5}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-5, -0.01, 5}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-5, 0.01, -5}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-5, 0.01, 5}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{5, -0.01, -5}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{5, -0.01, 5}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{5, 0.01, -5}, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{5, 0.01, 5}, TexCoord: [2]float32{0, 0}},
	}, append([]uint16(nil), boxIndices...)
}
