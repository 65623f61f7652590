package models

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/volslice/pkg/math3d"
	"github.com/taigrr/volslice/pkg/volume"
)

func sameMesh(t *testing.T, got, want *Mesh, texcoords bool) {
	t.Helper()
	if got.VertexCount() != want.VertexCount() {
		t.Fatalf("VertexCount = %d, want %d", got.VertexCount(), want.VertexCount())
	}
	if got.TriangleCount() != want.TriangleCount() {
		t.Fatalf("TriangleCount = %d, want %d", got.TriangleCount(), want.TriangleCount())
	}
	for i, f := range want.Faces {
		for j := range 3 {
			g := got.Vertices[got.Faces[i].V[j]]
			w := want.Vertices[f.V[j]]
			if !g.Position.ApproxEqual(w.Position, 1e-6) {
				t.Errorf("face %d vertex %d position = %v, want %v", i, j, g.Position, w.Position)
			}
			if texcoords && !g.TexCoord.ApproxEqual(w.TexCoord, 1e-6) {
				t.Errorf("face %d vertex %d texcoord = %v, want %v", i, j, g.TexCoord, w.TexCoord)
			}
		}
	}
}

func TestSTLRoundTrip(t *testing.T) {
	mesh := FromStream("squares", twoSquares(t))

	var buf bytes.Buffer
	if err := WriteSTL(&buf, mesh); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	if want := 84 + 50*mesh.TriangleCount(); buf.Len() != want {
		t.Errorf("size = %d, want %d", buf.Len(), want)
	}
	if !isBinarySTL(buf.Bytes()) {
		t.Error("written STL not detected as binary")
	}

	loaded, err := NewSTLLoader().Load(&buf, "squares.stl")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sameMesh(t, loaded, mesh, false)
	if loaded.BoundsMin != mesh.BoundsMin || loaded.BoundsMax != mesh.BoundsMax {
		t.Errorf("bounds = %v..%v, want %v..%v", loaded.BoundsMin, loaded.BoundsMax, mesh.BoundsMin, mesh.BoundsMax)
	}
}

func TestSTLLoaderASCII(t *testing.T) {
	asciiSTL := `solid square
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 1 1 0
    endloop
  endfacet
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 1 0
      vertex 0 1 0
    endloop
  endfacet
endsolid square`

	mesh, err := NewSTLLoader().Load(strings.NewReader(asciiSTL), "test.stl")
	if err != nil {
		t.Fatalf("Failed to load ASCII STL: %v", err)
	}
	if mesh.Name != "square" {
		t.Errorf("Name = %q, want %q", mesh.Name, "square")
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", mesh.TriangleCount())
	}
	if mesh.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4 (deduplicated)", mesh.VertexCount())
	}
}

func TestSTLLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"vertex outside loop", "solid x\nvertex 0 0 0\nendsolid x\n"},
		{"short vertex", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0\n"},
		{"bad number", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 zero 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSTLLoader().LoadBytes([]byte(tt.data), "bad.stl"); err == nil {
				t.Error("expected error")
			}
		})
	}

	truncated := make([]byte, 84)
	truncated[80] = 5 // claims 5 facets
	if _, err := NewSTLLoader().LoadBytes(truncated, "short.stl"); err == nil {
		t.Error("expected truncation error")
	}
}

func TestOBJRoundTrip(t *testing.T) {
	mesh := FromStream("squares", twoSquares(t))

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, mesh); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "vt 1 1 -1\n") {
		t.Errorf("missing 3-component texcoord line:\n%s", text)
	}

	loaded, err := LoadOBJ(&buf, "squares.obj")
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if loaded.Name != "squares" {
		t.Errorf("Name = %q, want squares", loaded.Name)
	}
	sameMesh(t, loaded, mesh, true)
}

func TestLoadOBJPolygonAndNegativeIndices(t *testing.T) {
	objData := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0 0.5
f -4/1 -3/2 -2/2 -1/1
`
	mesh, err := LoadOBJ(strings.NewReader(objData), "quad")
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", mesh.TriangleCount())
	}
	if got := mesh.Vertices[1].TexCoord; got != math3d.V3(1, 0, 0.5) {
		t.Errorf("TexCoord = %v, want (1, 0, 0.5)", got)
	}
	if _, err := LoadOBJ(strings.NewReader("v 0 0 0\nf 1 2 3\n"), "bad"); err == nil {
		t.Error("expected out of range error")
	}
}

func TestGLBRoundTrip(t *testing.T) {
	mesh := FromStream("squares", twoSquares(t))

	var buf bytes.Buffer
	if err := WriteGLB(&buf, mesh); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatalf("output is not binary glTF")
	}

	loaded, err := ReadGLB(&buf, "squares.glb")
	if err != nil {
		t.Fatalf("ReadGLB: %v", err)
	}
	sameMesh(t, loaded, mesh, true)
	for i, f := range mesh.Faces {
		if loaded.Faces[i] != f {
			t.Errorf("face %d = %v, want %v", i, loaded.Faces[i], f)
		}
	}
}

func TestGLBEmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGLB(&buf, NewMesh("empty")); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}
	mesh, err := ReadGLB(&buf, "empty.glb")
	if err != nil {
		t.Fatalf("ReadGLB: %v", err)
	}
	if mesh.TriangleCount() != 0 {
		t.Errorf("TriangleCount = %d, want 0", mesh.TriangleCount())
	}
}

func TestReadGLBRejectsBadReferences(t *testing.T) {
	mesh := FromStream("squares", twoSquares(t))
	tests := []struct {
		name    string
		corrupt func(doc *gltf.Document)
	}{
		{"position accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[gltf.POSITION] = len(doc.Accessors) + 3
		}},
		{"texcoord accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Attributes[AttrTexCoord3D] = -1
		}},
		{"index accessor", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0].Indices = gltf.Index(len(doc.Accessors))
		}},
		{"buffer view", func(doc *gltf.Document) {
			for _, a := range doc.Accessors {
				a.BufferView = gltf.Index(len(doc.BufferViews) + 1)
			}
		}},
		{"buffer", func(doc *gltf.Document) {
			for _, v := range doc.BufferViews {
				v.Buffer = 7
			}
		}},
		{"null primitive", func(doc *gltf.Document) {
			doc.Meshes[0].Primitives[0] = nil
		}},
		{"count past buffer", func(doc *gltf.Document) {
			for _, a := range doc.Accessors {
				a.Count = 1 << 20
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := buildDocument(mesh)
			tt.corrupt(doc)
			if _, err := meshFromDocument(doc, "bad"); err == nil {
				t.Error("malformed document should fail")
			}
		})
	}

	if _, err := meshFromDocument(buildDocument(mesh), "good"); err != nil {
		t.Errorf("untouched document: %v", err)
	}
}

func TestReadGLBTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGLB(&buf, FromStream("squares", twoSquares(t))); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}
	if _, err := ReadGLB(bytes.NewReader(buf.Bytes()[:buf.Len()/2]), "half"); err == nil {
		t.Error("truncated GLB should fail")
	}
}

func TestLoad(t *testing.T) {
	stream := twoSquares(t)
	want := FromStream("squares", stream)
	dir := t.TempDir()
	for _, f := range []Format{FormatGLB, FormatSTL, FormatOBJ, FormatJSON} {
		path := filepath.Join(dir, "squares."+string(f))
		var buf bytes.Buffer
		if err := Export(&buf, f, "squares", stream); err != nil {
			t.Fatalf("Export(%s): %v", f, err)
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", f, err)
		}
		if got.TriangleCount() != want.TriangleCount() {
			t.Errorf("%s: TriangleCount = %d, want %d", f, got.TriangleCount(), want.TriangleCount())
		}
		got.CalculateBounds()
		if !got.Center().ApproxEqual(want.Center(), 1e-6) || !got.Size().ApproxEqual(want.Size(), 1e-6) {
			t.Errorf("%s: bounds center %v size %v, want %v %v", f, got.Center(), got.Size(), want.Center(), want.Size())
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.obj")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := Load(filepath.Join(dir, "squares.ply")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s, err := volume.New(volume.Options{Step: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	stream := s.Slice(math3d.RotateX(0.3).Mul(math3d.RotateY(0.4)))

	var buf bytes.Buffer
	if err := WriteJSON(&buf, "tilted", stream); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	name, got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if name != "tilted" {
		t.Errorf("name = %q, want tilted", name)
	}
	if len(got) != len(stream) {
		t.Fatalf("len = %d, want %d", len(got), len(stream))
	}
	for i := range stream {
		if got[i] != stream[i] {
			t.Fatalf("vertex %d = %v, want %v", i, got[i], stream[i])
		}
	}
}

func TestReadJSONRejectsPartialTriangle(t *testing.T) {
	doc := `{"triangles":0,"vertices":[{"position":[0,0,0],"texcoord":[0,0,0]}]}`
	if _, _, err := ReadJSON(strings.NewReader(doc)); err == nil {
		t.Error("expected error for 1 vertex")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"out.glb", FormatGLB},
		{"dir/OUT.STL", FormatSTL},
		{"a.b.obj", FormatOBJ},
		{"stream.json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if err != nil {
			t.Errorf("FormatFromPath(%q): %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	for _, path := range []string{"out.ply", "noext"} {
		if _, err := FormatFromPath(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("FormatFromPath(%q) error = %v, want ErrUnsupportedFormat", path, err)
		}
	}
}

func TestExport(t *testing.T) {
	stream := twoSquares(t)
	for _, f := range []Format{FormatGLB, FormatSTL, FormatOBJ, FormatJSON} {
		var buf bytes.Buffer
		if err := Export(&buf, f, "squares", stream); err != nil {
			t.Errorf("Export(%s): %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Export(%s) wrote nothing", f)
		}
	}
	if err := Export(&bytes.Buffer{}, Format("ply"), "x", stream); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}
