package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/volslice/pkg/volume"
)

// Format is an export file format.
type Format string

const (
	FormatGLB  Format = "glb"
	FormatSTL  Format = "stl"
	FormatOBJ  Format = "obj"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch f := Format(ext); f {
	case FormatGLB, FormatSTL, FormatOBJ, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Export writes the stream in the given format. JSON keeps the raw stream;
// the mesh formats merge vertices first.
func Export(w io.Writer, format Format, name string, s volume.Stream) error {
	if format == FormatJSON {
		return WriteJSON(w, name, s)
	}
	mesh := FromStream(name, s)
	switch format {
	case FormatGLB:
		return WriteGLB(w, mesh)
	case FormatSTL:
		return WriteSTL(w, mesh)
	case FormatOBJ:
		return WriteOBJ(w, mesh)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Load reads a mesh written by Export, picking the reader from the file
// extension. A JSON stream is merged the way Export merges it.
func Load(path string) (*Mesh, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	if format == FormatSTL {
		return LoadSTL(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch format {
	case FormatGLB:
		return ReadGLB(f, name)
	case FormatOBJ:
		return LoadOBJ(f, name)
	case FormatJSON:
		streamName, s, err := ReadJSON(f)
		if err != nil {
			return nil, err
		}
		return FromStream(streamName, s), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}
