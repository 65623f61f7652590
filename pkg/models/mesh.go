// Package models converts slice streams into indexed meshes and writes them
// in common 3D interchange formats.
package models

import (
	"errors"
	"math"

	"github.com/taigrr/volslice/pkg/math3d"
	"github.com/taigrr/volslice/pkg/volume"
)

// ErrUnsupportedFormat is returned for file extensions with no writer.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// DefaultMergeTolerance is the grid size used to merge stream vertices.
const DefaultMergeTolerance = 1e-9

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Bounding box (calculated by CalculateBounds)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	TexCoord math3d.Vec3 // 3D volume texture coordinate in [-1, 1]
	Normal   math3d.Vec3
}

// Face is a triangle of indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// quantizedKey makes a vertex hashable by snapping it to a grid. This
// handles floating point noise between slices that share a centroid or an
// edge hit.
type quantizedKey struct {
	px, py, pz int64
	tx, ty, tz int64
}

func quantize(pos, tex math3d.Vec3, tolerance float64) quantizedKey {
	if tolerance <= 0 {
		tolerance = 1e-12
	}
	scale := 1.0 / tolerance
	q := func(f float64) int64 { return int64(math.Round(f * scale)) }
	return quantizedKey{
		px: q(pos.X), py: q(pos.Y), pz: q(pos.Z),
		tx: q(tex.X), ty: q(tex.Y), tz: q(tex.Z),
	}
}

// FromStream builds an indexed mesh from a triangle stream, merging vertices
// that agree within DefaultMergeTolerance and dropping zero-area faces.
func FromStream(name string, s volume.Stream) *Mesh {
	return FromStreamTolerance(name, s, DefaultMergeTolerance)
}

// FromStreamTolerance is FromStream with an explicit merge tolerance.
// A tolerance <= 0 merges only vertices that are equal to about 1e-12.
func FromStreamTolerance(name string, s volume.Stream, tolerance float64) *Mesh {
	mesh := NewMesh(name)
	index := make(map[quantizedKey]int, len(s))

	for tri := range s.Triangles() {
		var f Face
		for j := range 3 {
			v := s[tri*3+j]
			key := quantize(v.Position, v.TexCoord, tolerance)
			idx, ok := index[key]
			if !ok {
				idx = len(mesh.Vertices)
				mesh.Vertices = append(mesh.Vertices, MeshVertex{
					Position: v.Position,
					TexCoord: v.TexCoord,
				})
				index[key] = idx
			}
			f.V[j] = idx
		}
		mesh.Faces = append(mesh.Faces, f)
	}

	mesh.RemoveDegenerateFaces()
	mesh.RemoveUnreferencedVertices()
	mesh.CalculateNormals()
	mesh.CalculateBounds()
	return mesh
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// FaceNormal returns the unit normal of face i by the right-hand rule.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// CalculateNormals averages face normals into each vertex. Slice polygons
// all face the viewer, so this is the view direction for a typical stream.
func (m *Mesh) CalculateNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0)) // area weighted

		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// RemoveDegenerateFaces removes faces with repeated indices or near-zero
// area. Returns the number of faces removed.
func (m *Mesh) RemoveDegenerateFaces() int {
	if len(m.Faces) == 0 {
		return 0
	}

	const minArea = 1e-12
	kept := m.Faces[:0]

	for _, f := range m.Faces {
		if f.V[0] == f.V[1] || f.V[1] == f.V[2] || f.V[0] == f.V[2] {
			continue
		}

		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		if v1.Sub(v0).Cross(v2.Sub(v0)).Len()*0.5 > minArea {
			kept = append(kept, f)
		}
	}

	removed := len(m.Faces) - len(kept)
	m.Faces = kept
	return removed
}

// RemoveUnreferencedVertices removes vertices that are not referenced by any
// face, compacting the vertex array and updating face indices.
func (m *Mesh) RemoveUnreferencedVertices() {
	if len(m.Vertices) == 0 {
		return
	}

	referenced := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		for _, i := range f.V {
			referenced[i] = true
		}
	}

	newIndex := make([]int, len(m.Vertices))
	newVertices := make([]MeshVertex, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if referenced[i] {
			newIndex[i] = len(newVertices)
			newVertices = append(newVertices, v)
		}
	}

	for i := range m.Faces {
		for j := range 3 {
			m.Faces[i].V[j] = newIndex[m.Faces[i].V[j]]
		}
	}

	m.Vertices = newVertices
}
