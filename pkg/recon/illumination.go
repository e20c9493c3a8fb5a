package recon

import (
	"math"

	"github.com/taigrr/facerecon/pkg/coeffs"
	"github.com/taigrr/facerecon/pkg/math3d"
)

// AmbientBias is added to the constant SH term of every channel.
const AmbientBias = 0.8

// SH normalization constants.
var (
	shA0 = math.Pi
	shA1 = 2 * math.Pi / math.Sqrt(3)
	shA2 = 2 * math.Pi / math.Sqrt(8)
	shC0 = 1 / math.Sqrt(4*math.Pi)
	shC1 = math.Sqrt(3) / math.Sqrt(4*math.Pi)
	shC2 = 3 * math.Sqrt(5) / math.Sqrt(12*math.Pi)
)

// SHBasis evaluates the 9 spherical-harmonics basis functions at unit
// normal n.
func SHBasis(n math3d.Vec3) [coeffs.SHTerms]float64 {
	x, y, z := n.X, n.Y, n.Z
	return [coeffs.SHTerms]float64{
		shA0 * shC0,
		-shA1 * shC1 * y,
		shA1 * shC1 * z,
		-shA1 * shC1 * x,
		shA2 * shC2 * x * y,
		-shA2 * shC2 * y * z,
		shA2 * shC2 * 0.5 / math.Sqrt(3) * (3*z*z - 1),
		-shA2 * shC2 * x * z,
		shA2 * shC2 * 0.5 * (x*x - y*y),
	}
}

// Illuminate shades per-vertex albedo with SH lighting. normals must already
// be rotated into camera space. The result is not clamped.
func Illuminate(texture, normals []math3d.Vec3, gamma coeffs.Lighting) []math3d.Vec3 {
	for c := range gamma {
		gamma[c][0] += AmbientBias
	}

	out := make([]math3d.Vec3, len(texture))
	for i, albedo := range texture {
		y := SHBasis(normals[i])
		var r, g, b float64
		for k, yk := range y {
			r += yk * gamma[0][k]
			g += yk * gamma[1][k]
			b += yk * gamma[2][k]
		}
		out[i] = math3d.V3(r*albedo.X, g*albedo.Y, b*albedo.Z)
	}
	return out
}
