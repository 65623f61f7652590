// Package volume generates view-aligned slices through a unit cube for
// volumetric rendering.
//
// A pass projects the cube's corners into eye space, walks depth from the
// nearest corner to the farthest in fixed steps, and cuts the cube with a
// plane of constant depth at each step. Every cut is a convex polygon with
// 3 to 6 vertices; it is sorted into angular order and fanned around its
// centroid. The result is a flat triangle list of (position, texcoord)
// records ready for upload as a vertex buffer:
//
//	s, err := volume.New(volume.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	stream := s.Slice(cam.ViewMatrix())
//	upload(stream.Interleaved())
//
// Slices are always perpendicular to the line of sight, so the stack stays
// view-aligned no matter how the camera is oriented. Texture coordinates
// stay in object space and span [-1, 1] per axis.
package volume
