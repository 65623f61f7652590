package models

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taigrr/volslice/pkg/math3d"
)

// WriteOBJ writes mesh as Wavefront OBJ. Texture coordinates are written as
// three-component "vt u v w" lines sharing the position index.
func WriteOBJ(w io.Writer, mesh *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# volslice %d vertices, %d triangles\n", mesh.VertexCount(), mesh.TriangleCount())
	if mesh.Name != "" {
		fmt.Fprintf(bw, "o %s\n", mesh.Name)
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", ftoa(v.Position.X), ftoa(v.Position.Y), ftoa(v.Position.Z))
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "vt %s %s %s\n", ftoa(v.TexCoord.X), ftoa(v.TexCoord.Y), ftoa(v.TexCoord.Z))
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(bw, "vn %s %s %s\n", ftoa(v.Normal.X), ftoa(v.Normal.Y), ftoa(v.Normal.Z))
	}
	for _, f := range mesh.Faces {
		a, b, c := f.V[0]+1, f.V[1]+1, f.V[2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write OBJ: %w", err)
	}
	return nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// LoadOBJ parses an OBJ from a reader. Polygons are fan triangulated and
// normals are recomputed from the face winding.
func LoadOBJ(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	// OBJ indices are 1-based and per attribute
	var positions, texcoords []math3d.Vec3
	type vertexKey struct{ pos, tex int }
	vertexMap := make(map[vertexKey]int)

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid vertex: %w", lineNum, err)
			}
			positions = append(positions, p)

		case "vt":
			// u v [w]; a missing w is 0
			t, err := parseVec3(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid texture coord: %w", lineNum, err)
			}
			texcoords = append(texcoords, t)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			var face []int
			for _, fv := range fields[1:] {
				posIdx, texIdx, _, err := parseFaceVertex(fv)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				posIdx = resolveIndex(posIdx, len(positions))
				texIdx = resolveIndex(texIdx, len(texcoords))
				if posIdx < 0 || posIdx >= len(positions) {
					return nil, fmt.Errorf("line %d: position index %d out of range", lineNum, posIdx+1)
				}

				key := vertexKey{posIdx, texIdx}
				idx, ok := vertexMap[key]
				if !ok {
					v := MeshVertex{Position: positions[posIdx]}
					if texIdx >= 0 && texIdx < len(texcoords) {
						v.TexCoord = texcoords[texIdx]
					}
					idx = len(mesh.Vertices)
					mesh.Vertices = append(mesh.Vertices, v)
					vertexMap[key] = idx
				}
				face = append(face, idx)
			}
			for i := 1; i < len(face)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{face[0], face[i], face[i+1]}})
			}

		case "o", "g":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}

	mesh.CalculateNormals()
	mesh.CalculateBounds()
	return mesh, nil
}

// parseVec3 parses up to three floats, requiring at least minFields.
func parseVec3(fields []string, minFields int) (math3d.Vec3, error) {
	if len(fields) < minFields {
		return math3d.Vec3{}, fmt.Errorf("need %d components, got %d", minFields, len(fields))
	}
	var xyz [3]float64
	for i := range min(len(fields), 3) {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, err
		}
		xyz[i] = f
	}
	return math3d.V3(xyz[0], xyz[1], xyz[2]), nil
}

// parseFaceVertex parses v, v/vt, v/vt/vn or v//vn. Missing indices are 0.
func parseFaceVertex(s string) (pos, tex, normal int, err error) {
	parts := strings.Split(s, "/")

	pos, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}
	if len(parts) > 1 && parts[1] != "" {
		if tex, err = strconv.Atoi(parts[1]); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid texture index: %s", parts[1])
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if normal, err = strconv.Atoi(parts[2]); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}
	return pos, tex, normal, nil
}

// resolveIndex converts a 1-based or negative OBJ index to 0-based.
// Returns -1 for 0 (not specified).
func resolveIndex(idx, count int) int {
	switch {
	case idx == 0:
		return -1
	case idx < 0:
		return count + idx
	default:
		return idx - 1
	}
}
