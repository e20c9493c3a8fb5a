package render

import (
	"fmt"
	"math"
	"math/bits"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// MaxSamples caps the per-pixel sample count of the software rasterizer.
const MaxSamples = 256

// Software is a CPU rasterizer implementing the Rasterizer contract: a
// look-at perspective camera, a z-buffer, Gouraud shading (Lambert per light
// plus ambient) with perspective-correct interpolation, and ordered-grid
// supersampling. Both triangle windings are drawn.
type Software struct {
	// Workers bounds how many batch samples render concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// NewSoftware creates a software rasterizer.
func NewSoftware() *Software {
	return &Software{}
}

// Rasterize implements Rasterizer.
func (s *Software) Rasterize(req *Request) ([]*RGBABuffer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterizer, err)
	}

	sx, sy := sampleGrid(req.Samples)
	out := make([]*RGBABuffer, req.Batch())

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range out {
		g.Go(func() error {
			out[i] = renderSample(req, i, sx, sy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRasterizer, err)
	}
	return out, nil
}

// sampleGrid lays n samples out as an sx x sy grid with sx >= sy and
// sx*sy >= n.
func sampleGrid(n int) (sx, sy int) {
	if n <= 1 {
		return 1, 1
	}
	n = min(n, MaxSamples)
	sy = 1 << ((bits.Len(uint(n)) - 1) / 2)
	sx = (n + sy - 1) / sy
	return sx, sy
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64 // Screen coordinates
	Z     float64 // NDC depth
	W     float64 // Clip W (for perspective-correct interpolation)
	Color math3d.Vec3
}

func renderSample(req *Request, i, sx, sy int) *RGBABuffer {
	width, height := req.Width*sx, req.Height*sy
	sb := newSampleBuffer(width, height)

	cam := RequestCamera(req, i)
	viewProj := cam.ViewProjectionMatrix()

	verts := req.Vertices[i]
	if !cam.Frustum().IntersectAABB(BoundsOf(verts)) {
		return sb.resolve(sx, sy)
	}
	sv := make([]screenVertex, len(verts))
	for j, v := range verts {
		clip := viewProj.MulVec4(math3d.V4FromV3(v, 1))
		sv[j].W = clip.W
		if clip.W != 0 {
			sv[j].X = (clip.X/clip.W + 1) * 0.5 * float64(width)
			sv[j].Y = (1 - clip.Y/clip.W) * 0.5 * float64(height) // Y flipped
			sv[j].Z = clip.Z / clip.W
		}
		sv[j].Color = shade(v, req.Normals[i][j], req.Colors[i][j],
			req.LightPositions[i], req.LightIntensities[i], req.AmbientColor[i])
	}

	for _, tri := range req.Triangles {
		drawTriangle(sb, sv[tri[0]], sv[tri[1]], sv[tri[2]])
	}
	return sb.resolve(sx, sy)
}

// shade evaluates ambient plus Lambert diffuse lighting for a point light
// set at one vertex.
func shade(pos, normal, color math3d.Vec3, lights, intensities []math3d.Vec3, ambient math3d.Vec3) math3d.Vec3 {
	lit := color.Mul(ambient)
	n := normal.Normalize()
	for l, lp := range lights {
		ndotl := math.Max(0, n.Dot(lp.Sub(pos).Normalize()))
		if ndotl == 0 {
			continue
		}
		lit = lit.Add(color.Mul(intensities[l]).Scale(ndotl))
	}
	return lit
}

// drawTriangle rasterizes one triangle into sb. Triangles with a vertex
// behind the camera are skipped, as are samples outside the near/far range.
func drawTriangle(sb *sampleBuffer, v0, v1, v2 screenVertex) {
	if v0.W <= 0 || v1.W <= 0 || v2.W <= 0 {
		return
	}
	for _, v := range [3]screenVertex{v0, v1, v2} {
		if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
			return
		}
	}

	area := (v1.X-v0.X)*(v2.Y-v0.Y) - (v1.Y-v0.Y)*(v2.X-v0.X)
	if area == 0 {
		return
	}

	// Bounding box, clamped to the target
	minX := int(math.Max(0, math.Floor(min3(v0.X, v1.X, v2.X))))
	maxX := int(math.Min(float64(sb.width-1), math.Ceil(max3(v0.X, v1.X, v2.X))))
	minY := int(math.Max(0, math.Floor(min3(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Min(float64(sb.height-1), math.Ceil(max3(v0.Y, v1.Y, v2.Y))))

	invW := [3]float64{1 / v0.W, 1 / v1.W, 1 / v2.W}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y, px, py)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			// NDC depth is affine in screen space
			z := bc.X*v0.Z + bc.Y*v1.Z + bc.Z*v2.Z
			if z < -1 || z > 1 || !sb.test(x, y, z) {
				continue
			}

			// Perspective-correct color
			w0, w1, w2 := bc.X*invW[0], bc.Y*invW[1], bc.Z*invW[2]
			sum := w0 + w1 + w2
			c := v0.Color.Scale(w0).Add(v1.Color.Scale(w1)).Add(v2.Color.Scale(w2)).Scale(1 / sum)

			sb.write(x, y, z, [3]float64{c.X, c.Y, c.Z})
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
