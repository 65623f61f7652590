package models

import (
	"fmt"
	"io"

	"github.com/segmentio/encoding/json"
	"github.com/taigrr/volslice/pkg/math3d"
	"github.com/taigrr/volslice/pkg/volume"
)

// StreamDocument is the JSON form of a raw slice stream.
type StreamDocument struct {
	Name      string         `json:"name,omitempty"`
	Triangles int            `json:"triangles"`
	Vertices  []StreamRecord `json:"vertices"`
}

// StreamRecord is one interleaved vertex.
type StreamRecord struct {
	Position [3]float64 `json:"position"`
	TexCoord [3]float64 `json:"texcoord"`
}

// WriteJSON writes the stream as a StreamDocument without merging vertices.
func WriteJSON(w io.Writer, name string, s volume.Stream) error {
	doc := StreamDocument{
		Name:      name,
		Triangles: s.Triangles(),
		Vertices:  make([]StreamRecord, len(s)),
	}
	for i, v := range s {
		doc.Vertices[i] = StreamRecord{
			Position: [3]float64{v.Position.X, v.Position.Y, v.Position.Z},
			TexCoord: [3]float64{v.TexCoord.X, v.TexCoord.Y, v.TexCoord.Z},
		}
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode stream: %w", err)
	}
	return nil
}

// ReadJSON reads a stream written by WriteJSON.
func ReadJSON(r io.Reader) (string, volume.Stream, error) {
	var doc StreamDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decode stream: %w", err)
	}
	if len(doc.Vertices)%3 != 0 {
		return "", nil, fmt.Errorf("stream has %d vertices, not a multiple of 3", len(doc.Vertices))
	}
	s := make(volume.Stream, len(doc.Vertices))
	for i, rec := range doc.Vertices {
		s[i] = volume.Vertex{
			Position: math3d.V3(rec.Position[0], rec.Position[1], rec.Position[2]),
			TexCoord: math3d.V3(rec.TexCoord[0], rec.TexCoord[1], rec.TexCoord[2]),
		}
	}
	return doc.Name, s, nil
}
