package volume

// Centroid returns the unweighted mean of the positions and texture
// coordinates in vs. It is the zero Vertex when vs is empty.
func Centroid(vs []Vertex) Vertex {
	var c Vertex
	if len(vs) == 0 {
		return c
	}
	for _, v := range vs {
		c.Position = c.Position.Add(v.Position)
		c.TexCoord = c.TexCoord.Add(v.TexCoord)
	}
	n := float64(len(vs))
	c.Position = c.Position.Div(n)
	c.TexCoord = c.TexCoord.Div(n)
	return c
}

// AppendFan appends a triangle fan around apex for the ordered polygon vs:
// (vs[i], vs[i+1], apex) for each boundary edge, closing with
// (vs[k-1], vs[0], apex). Polygons with fewer than 3 vertices append nothing.
func AppendFan(dst Stream, vs []Vertex, apex Vertex) Stream {
	k := len(vs)
	if k < 3 {
		return dst
	}
	for i := 0; i < k-1; i++ {
		dst = append(dst, vs[i], vs[i+1], apex)
	}
	return append(dst, vs[k-1], vs[0], apex)
}
