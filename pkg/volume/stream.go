package volume

// Stream is a flat triangle list: every three consecutive vertices form one
// triangle.
type Stream []Vertex

// FloatsPerVertex is the interleaved layout width: position xyz, texcoord xyz.
const FloatsPerVertex = 6

// Triangles returns the number of complete triangles.
func (s Stream) Triangles() int {
	return len(s) / 3
}

// Interleaved packs the stream as float32 position/texcoord pairs, 24 bytes
// per vertex with the texcoord at byte offset 12.
func (s Stream) Interleaved() []float32 {
	out := make([]float32, 0, len(s)*FloatsPerVertex)
	for _, v := range s {
		out = append(out,
			float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
			float32(v.TexCoord.X), float32(v.TexCoord.Y), float32(v.TexCoord.Z),
		)
	}
	return out
}
