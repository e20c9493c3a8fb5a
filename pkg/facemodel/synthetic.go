package facemodel

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// SyntheticOptions controls the procedural model built by Synthetic.
type SyntheticOptions struct {
	Rows, Cols int     // vertex grid size
	Seed       int64   // basis RNG seed
	ShapeScale float64 // std-dev of identity/expression basis entries
	TexScale   float64 // std-dev of texture basis entries
}

// DefaultSyntheticOptions returns a small grid suitable for demos.
func DefaultSyntheticOptions() SyntheticOptions {
	return SyntheticOptions{
		Rows:       16,
		Cols:       16,
		Seed:       1,
		ShapeScale: 0.01,
		TexScale:   2,
	}
}

// Synthetic builds a deterministic face-like model: an ellipsoidal cap
// facing +Z with random PCA bases. Its mean shape is deliberately off
// centre so re-centring is exercised. Border vertices are excluded from the
// render region.
func Synthetic(opts SyntheticOptions) (*Model, error) {
	rows, cols := opts.Rows, opts.Cols
	if rows < 4 || cols < 4 {
		return nil, fmt.Errorf("synthetic model needs at least a 4x4 grid, got %dx%d", rows, cols)
	}
	n := rows * cols
	rng := rand.New(rand.NewSource(opts.Seed))

	raw := Raw{
		MeanShape:   make([]float64, 0, 3*n),
		MeanTexture: make([]float64, 0, 3*n),
	}

	for r := range rows {
		v := 2*float64(r)/float64(rows-1) - 1
		for c := range cols {
			u := 2*float64(c)/float64(cols-1) - 1
			z := 0.6 * math.Sqrt(math.Max(0, 1-0.5*u*u-0.5*v*v))
			raw.MeanShape = append(raw.MeanShape, 0.9*u+0.1, 1.1*v+0.2, z+0.3)
			shade := 10 * (1 - 0.5*(u*u+v*v))
			raw.MeanTexture = append(raw.MeanTexture, 200+shade, 150+shade, 130+shade)
		}
	}

	// Two counter-clockwise (seen from +Z) triangles per grid cell.
	for r := range rows - 1 {
		for c := range cols - 1 {
			a := r*cols + c + 1
			b := a + 1
			d := a + cols
			e := d + 1
			raw.Triangles = append(raw.Triangles, [3]int{a, b, d}, [3]int{b, e, d})
		}
	}

	sentinel := len(raw.Triangles) + 1
	raw.PointBuf = make([][RingSize]int, n)
	fill := make([]int, n)
	for i := range raw.PointBuf {
		for k := range RingSize {
			raw.PointBuf[i][k] = sentinel
		}
	}
	for f, tri := range raw.Triangles {
		for _, v := range tri {
			if fill[v-1] < RingSize {
				raw.PointBuf[v-1][fill[v-1]] = f + 1
				fill[v-1]++
			}
		}
	}

	slot := make(map[int]int)
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			v := r*cols + c + 1
			raw.RenderRegion = append(raw.RenderRegion, v)
			slot[v] = len(raw.RenderRegion)
		}
	}
	for _, tri := range raw.Triangles {
		a, okA := slot[tri[0]]
		b, okB := slot[tri[1]]
		c, okC := slot[tri[2]]
		if okA && okB && okC {
			raw.RenderTriangles = append(raw.RenderTriangles, [3]int{a, b, c})
		}
	}

	raw.Landmarks = make([]int, LandmarkCount)
	for i := range raw.Landmarks {
		raw.Landmarks[i] = i*n/LandmarkCount + 1
	}

	raw.IDBasis = randomBasis(rng, 3*n, IdentityDim, opts.ShapeScale)
	raw.ExpBasis = randomBasis(rng, 3*n, ExpressionDim, opts.ShapeScale)
	raw.TexBasis = randomBasis(rng, 3*n, TextureDim, opts.TexScale)

	return New(raw)
}

func randomBasis(rng *rand.Rand, rows, cols int, scale float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}
