package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/volslice/pkg/math3d"
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50 // normal + 3 vertices as float32, 2-byte attribute
)

// WriteSTL writes mesh as binary STL. Texture coordinates are not
// representable in STL and are dropped.
func WriteSTL(w io.Writer, mesh *Mesh) error {
	bw := bufio.NewWriter(w)

	var header [stlHeaderSize]byte
	copy(header[:], "volslice "+mesh.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write STL header: %w", err)
	}

	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(mesh.Faces)))
	for i, f := range mesh.Faces {
		buf = appendVec3f(buf, mesh.FaceNormal(i))
		for _, idx := range f.V {
			buf = appendVec3f(buf, mesh.Vertices[idx].Position)
		}
		buf = binary.LittleEndian.AppendUint16(buf, 0)
	}
	if _, err := bw.Write(buf); err != nil {
		return fmt.Errorf("write STL facets: %w", err)
	}
	return bw.Flush()
}

func appendVec3f(b []byte, v math3d.Vec3) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.X)))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.Y)))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(float32(v.Z)))
}

// STLLoader loads STL files in both ASCII and binary formats.
type STLLoader struct {
	// MergeTolerance is the grid for vertex merging (0 = exact match).
	MergeTolerance float64
	// NoDedupe gives every triangle its own vertices.
	NoDedupe bool
}

// NewSTLLoader creates a new STL loader with default settings.
func NewSTLLoader() *STLLoader {
	return &STLLoader{}
}

// LoadFile loads an STL file from disk.
func (l *STLLoader) LoadFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL file: %w", err)
	}
	return l.LoadBytes(data, path)
}

// Load parses STL from a reader. The whole input is read to detect the
// format.
func (l *STLLoader) Load(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL data: %w", err)
	}
	return l.LoadBytes(data, name)
}

// LoadBytes parses STL from a byte slice.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	b := &stlBuilder{mesh: NewMesh(name), loader: l, index: make(map[quantizedKey]int)}
	var err error
	if isBinarySTL(data) {
		err = b.binary(data)
	} else {
		err = b.ascii(data)
	}
	if err != nil {
		return nil, err
	}
	b.mesh.CalculateNormals()
	b.mesh.CalculateBounds()
	return b.mesh, nil
}

// LoadSTL loads an STL file with default settings.
func LoadSTL(path string) (*Mesh, error) {
	return NewSTLLoader().LoadFile(path)
}

// isBinarySTL reports whether data is binary STL. ASCII files start with
// "solid", but so do some binary headers, so a matching facet count wins.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return true
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == stlHeaderSize+4+uint64(count)*stlFacetSize
}

type stlBuilder struct {
	mesh   *Mesh
	loader *STLLoader
	index  map[quantizedKey]int
}

func (b *stlBuilder) vertex(pos math3d.Vec3) int {
	if !b.loader.NoDedupe {
		key := quantize(pos, math3d.Vec3{}, b.loader.MergeTolerance)
		if idx, ok := b.index[key]; ok {
			return idx
		}
		b.index[key] = len(b.mesh.Vertices)
	}
	b.mesh.Vertices = append(b.mesh.Vertices, MeshVertex{Position: pos})
	return len(b.mesh.Vertices) - 1
}

func (b *stlBuilder) binary(data []byte) error {
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	want := stlHeaderSize + 4 + uint64(count)*stlFacetSize
	if uint64(len(data)) < want {
		return fmt.Errorf("binary STL truncated: expected %d bytes, got %d", want, len(data))
	}

	offset := stlHeaderSize + 4
	for range count {
		offset += 12 // stored normal; recomputed from winding
		var f Face
		for v := range 3 {
			f.V[v] = b.vertex(math3d.V3(
				float64(readFloat32LE(data[offset:])),
				float64(readFloat32LE(data[offset+4:])),
				float64(readFloat32LE(data[offset+8:])),
			))
			offset += 12
		}
		offset += 2
		b.mesh.Faces = append(b.mesh.Faces, f)
	}
	return nil
}

func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (b *stlBuilder) ascii(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	var face []int
	inLoop := false

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				b.mesh.Name = fields[1]
			}
		case "facet":
			face = face[:0]
		case "outer":
			inLoop = true
		case "vertex":
			if !inLoop {
				return fmt.Errorf("line %d: vertex outside loop", lineNum)
			}
			if len(fields) < 4 {
				return fmt.Errorf("line %d: vertex needs x y z", lineNum)
			}
			var xyz [3]float64
			for i := range 3 {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return fmt.Errorf("line %d: invalid vertex coordinate: %w", lineNum, err)
				}
				xyz[i] = f
			}
			face = append(face, b.vertex(math3d.V3(xyz[0], xyz[1], xyz[2])))
		case "endloop":
			inLoop = false
		case "endfacet":
			if len(face) >= 3 {
				b.mesh.Faces = append(b.mesh.Faces, Face{V: [3]int{face[0], face[1], face[2]}})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading ASCII STL: %w", err)
	}
	return nil
}
