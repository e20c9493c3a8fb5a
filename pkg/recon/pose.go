package recon

import "github.com/taigrr/facerecon/pkg/math3d"

// RotationMatrix builds the row-vector rotation for pose angles
// (pitch, yaw, roll): the transpose of Rz·Ry·Rx, so a point p rotates as
// p·R.
func RotationMatrix(angles math3d.Vec3) math3d.Mat3 {
	r := math3d.RotationZ(angles.Z).Mul(math3d.RotationY(angles.Y)).Mul(math3d.RotationX(angles.X))
	return r.Transpose()
}

// RigidTransform returns v·rot + t for every vertex.
func RigidTransform(vertices []math3d.Vec3, rot math3d.Mat3, t math3d.Vec3) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(vertices))
	for i, v := range vertices {
		out[i] = rot.MulRow(v).Add(t)
	}
	return out
}

// RotateAll returns v·rot for every vector. Used for normals, which take
// the rotation but not the translation.
func RotateAll(vectors []math3d.Vec3, rot math3d.Mat3) []math3d.Vec3 {
	return RigidTransform(vectors, rot, math3d.Zero3())
}
