package recon

import (
	"math"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// Projection is a pinhole camera on the +Z axis looking at the origin. The
// principal point sits at (HalfWidth, HalfWidth) and image y grows upward.
type Projection struct {
	Focal          float64 `yaml:"focal"`
	HalfWidth      float64 `yaml:"half_width"`
	CameraDistance float64 `yaml:"camera_distance"`
}

// RenderProjection is used for landmarks returned alongside rendered
// images (256 px image).
func RenderProjection() Projection {
	return Projection{Focal: 1015 * 1.22, HalfWidth: 128, CameraDistance: 10}
}

// LandmarkProjection is used by the standalone landmark query (224 px
// image).
func LandmarkProjection() Projection {
	return Projection{Focal: 1015, HalfWidth: 112, CameraDistance: 10}
}

// Project maps a world point to image coordinates. z is flipped and offset
// by the camera distance before the perspective divide.
func (p Projection) Project(v math3d.Vec3) math3d.Vec2 {
	depth := p.CameraDistance - v.Z
	return math3d.V2(
		p.Focal*v.X/depth+p.HalfWidth,
		p.Focal*v.Y/depth+p.HalfWidth,
	)
}

// ProjectAll projects every point.
func (p Projection) ProjectAll(pts []math3d.Vec3) []math3d.Vec2 {
	out := make([]math3d.Vec2, len(pts))
	for i, v := range pts {
		out[i] = p.Project(v)
	}
	return out
}

// ImageSize returns the side length of the projection's image.
func (p Projection) ImageSize() float64 {
	return 2 * p.HalfWidth
}

// FOVY returns the vertical field of view in degrees that matches the
// projection's image extent.
func (p Projection) FOVY() float64 {
	return 2 * math.Atan(p.HalfWidth/p.Focal) * 180 / math.Pi
}
