package volume

import "github.com/taigrr/volslice/pkg/math3d"

// Edge joins two cube corners by index into Corners and TexCoords.
type Edge struct {
	A, B int
}

// Corners are the object-space positions of the unit cube centered at the origin.
var Corners = [8]math3d.Vec3{
	{X: -0.5, Y: -0.5, Z: -0.5}, // left bottom back
	{X: -0.5, Y: 0.5, Z: -0.5},  // left top back
	{X: 0.5, Y: -0.5, Z: -0.5},  // right bottom back
	{X: 0.5, Y: 0.5, Z: -0.5},   // right top back
	{X: -0.5, Y: -0.5, Z: 0.5},  // left bottom front
	{X: -0.5, Y: 0.5, Z: 0.5},   // left top front
	{X: 0.5, Y: -0.5, Z: 0.5},   // right bottom front
	{X: 0.5, Y: 0.5, Z: 0.5},    // right top front
}

// TexCoords are the 3D texture coordinates for each corner, parallel to Corners.
var TexCoords = [8]math3d.Vec3{
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: 1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: 1, Z: 1},
}

// Edges is the cube wireframe: four edges per axis direction.
var Edges = [12]Edge{
	// back face
	{0, 1}, {2, 3}, {0, 2}, {1, 3},
	// front face
	{4, 5}, {6, 7}, {4, 6}, {5, 7},
	// back to front
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Vertex is one record of the output stream.
type Vertex struct {
	Position math3d.Vec3 // eye space
	TexCoord math3d.Vec3 // object space, [-1, 1] per axis
}
