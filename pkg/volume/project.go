package volume

import "github.com/taigrr/volslice/pkg/math3d"

// Project transforms the cube corners into eye space. Each corner is taken as
// the homogeneous point (x, y, z, 1); w is dropped without a divide.
func Project(view math3d.Mat4) [8]math3d.Vec3 {
	var eye [8]math3d.Vec3
	for i, p := range Corners {
		eye[i] = view.MulVec4(math3d.V4FromV3(p, 1)).Vec3()
	}
	return eye
}
