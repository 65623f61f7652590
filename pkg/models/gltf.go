package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/volslice/pkg/math3d"
)

// AttrTexCoord3D is the custom glTF vertex attribute carrying the 3D volume
// texture coordinate. glTF only standardizes 2D TEXCOORD_n.
const AttrTexCoord3D = "_TEXCOORD3D"

// WriteGLB writes mesh as binary glTF with POSITION, NORMAL, AttrTexCoord3D
// and uint32 indices in a single node.
func WriteGLB(w io.Writer, mesh *Mesh) error {
	doc := buildDocument(mesh)
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

func buildDocument(mesh *Mesh) *gltf.Document {
	positions := make([][3]float32, len(mesh.Vertices))
	normals := make([][3]float32, len(mesh.Vertices))
	texcoords := make([][3]float32, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = vec3f(v.Position)
		normals[i] = vec3f(v.Normal)
		texcoords[i] = vec3f(v.TexCoord)
	}
	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	doc := gltf.NewDocument()
	if len(mesh.Vertices) == 0 {
		return doc
	}
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION:  modeler.WritePosition(doc, positions),
			gltf.NORMAL:    modeler.WriteNormal(doc, normals),
			AttrTexCoord3D: modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, texcoords),
		},
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: mesh.Name, Primitives: []*gltf.Primitive{prim}})
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: mesh.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	return doc
}

func vec3f(v math3d.Vec3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// ReadGLB decodes the first mesh primitive of a binary glTF, including the
// AttrTexCoord3D attribute when present.
func ReadGLB(r io.Reader, name string) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	return meshFromDocument(doc, name)
}

// meshFromDocument reads the first primitive of doc. Every index the
// document holds is range checked before use.
func meshFromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	if len(doc.Meshes) == 0 || doc.Meshes[0] == nil || len(doc.Meshes[0].Primitives) == 0 {
		return mesh, nil
	}
	prim := doc.Meshes[0].Primitives[0]
	if prim == nil {
		return nil, fmt.Errorf("mesh %d has a null primitive", 0)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("primitive has no %s attribute", gltf.POSITION)
	}
	positions, err := readVec3Accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var texcoords []math3d.Vec3
	if texIdx, ok := prim.Attributes[AttrTexCoord3D]; ok {
		if texcoords, err = readVec3Accessor(doc, texIdx); err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	mesh.Vertices = make([]MeshVertex, len(positions))
	for i, p := range positions {
		mesh.Vertices[i].Position = p
		if i < len(texcoords) {
			mesh.Vertices[i].TexCoord = texcoords[i]
		}
	}

	if prim.Indices == nil {
		// Non-indexed: consecutive triples
		for i := 0; i+2 < len(positions); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{i, i + 1, i + 2}})
		}
	} else {
		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			f := Face{V: [3]int{indices[i], indices[i+1], indices[i+2]}}
			for _, idx := range f.V {
				if idx < 0 || idx >= len(positions) {
					return nil, fmt.Errorf("index %d out of range", idx)
				}
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	mesh.CalculateNormals()
	mesh.CalculateBounds()
	return mesh, nil
}

func accessorAt(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range (%d accessors)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v / %v", accessor.Type, accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		result[i] = math3d.V3(
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		)
	}
	return result, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range result {
		b := data[i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return result, nil
}

// accessorBytes returns the embedded bytes from the accessor's first
// element onward, and the element stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	viewIdx := *accessor.BufferView
	if viewIdx < 0 || viewIdx >= len(doc.BufferViews) || doc.BufferViews[viewIdx] == nil {
		return nil, 0, fmt.Errorf("buffer view %d out of range (%d views)", viewIdx, len(doc.BufferViews))
	}
	view := doc.BufferViews[viewIdx]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return nil, 0, fmt.Errorf("buffer %d out of range (%d buffers)", view.Buffer, len(doc.Buffers))
	}
	buffer := doc.Buffers[view.Buffer]
	if buffer.URI != "" {
		return nil, 0, fmt.Errorf("external buffers not supported")
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	if start < 0 || accessor.Count < 0 || stride < elemSize {
		return nil, 0, fmt.Errorf("accessor layout invalid (offset %d, count %d, stride %d)", start, accessor.Count, stride)
	}
	end := start
	if accessor.Count > 0 {
		end += (accessor.Count-1)*stride + elemSize
	}
	if end > len(buffer.Data) {
		return nil, 0, fmt.Errorf("accessor reads past buffer end (%d > %d)", end, len(buffer.Data))
	}
	return buffer.Data[start:end], stride, nil
}
