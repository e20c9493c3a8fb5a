// Package facemodel holds the statistical face model (mean shape and
// texture, PCA bases and mesh topology) consumed by the reconstruction
// pipeline.
package facemodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// Basis widths and table sizes fixed by the coefficient layout.
const (
	IdentityDim   = 80
	ExpressionDim = 64
	TextureDim    = 80
	RingSize      = 8
	LandmarkCount = 68
)

// ErrAssetLoad is returned when a model asset is missing fields or has
// inconsistent dimensions.
var ErrAssetLoad = errors.New("facemodel: invalid model asset")

// Raw holds the model arrays exactly as stored in the asset. Every index
// table is 1-based.
type Raw struct {
	MeanShape   []float64  // [3N] xyz interleaved
	IDBasis     *mat.Dense // [3N x 80]
	ExpBasis    *mat.Dense // [3N x 64]
	MeanTexture []float64  // [3N] rgb interleaved, 0-255
	TexBasis    *mat.Dense // [3N x 80]

	PointBuf        [][RingSize]int // triangles around each vertex, padded with F+1
	Triangles       [][3]int        // vertex indices per triangle
	RenderRegion    []int           // vertex subset used for rendering
	RenderTriangles [][3]int        // triangles indexing into RenderRegion
	Landmarks       []int           // 68 landmark vertices
}

// Model is a validated, read-only face model. It is safe to share between
// goroutines; nothing mutates it after New returns.
type Model struct {
	Raw

	topo   *Topology
	center math3d.Vec3
}

// New validates raw and derives the zero-based topology and shape centre.
func New(raw Raw) (*Model, error) {
	if err := validate(&raw); err != nil {
		return nil, err
	}

	topo, err := newTopology(&raw)
	if err != nil {
		return nil, err
	}

	m := &Model{Raw: raw, topo: topo}
	m.center = math3d.Mean(Reshape(raw.MeanShape))
	return m, nil
}

// NumVertices returns N, the number of mesh vertices.
func (m *Model) NumVertices() int {
	return len(m.MeanShape) / 3
}

// NumTriangles returns F, the number of mesh triangles.
func (m *Model) NumTriangles() int {
	return len(m.Triangles)
}

// Topology returns the zero-based index tables.
func (m *Model) Topology() *Topology {
	return m.topo
}

// ShapeCenter returns the mean vertex of the mean shape. Synthesized shapes
// are re-centred by subtracting it.
func (m *Model) ShapeCenter() math3d.Vec3 {
	return m.center
}

// Reshape views a flat xyz-interleaved slice as N vectors.
func Reshape(flat []float64) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(flat)/3)
	for i := range out {
		out[i] = math3d.V3(flat[3*i], flat[3*i+1], flat[3*i+2])
	}
	return out
}

func validate(raw *Raw) error {
	if len(raw.MeanShape) == 0 || len(raw.MeanShape)%3 != 0 {
		return fmt.Errorf("%w: meanshape has %d values, want a positive multiple of 3", ErrAssetLoad, len(raw.MeanShape))
	}
	rows := len(raw.MeanShape)

	bases := []struct {
		name string
		m    *mat.Dense
		cols int
	}{
		{"idBase", raw.IDBasis, IdentityDim},
		{"exBase", raw.ExpBasis, ExpressionDim},
		{"texBase", raw.TexBasis, TextureDim},
	}
	for _, b := range bases {
		if b.m == nil {
			return fmt.Errorf("%w: %s is missing", ErrAssetLoad, b.name)
		}
		r, c := b.m.Dims()
		if r != rows || c != b.cols {
			return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrAssetLoad, b.name, r, c, rows, b.cols)
		}
	}

	if len(raw.MeanTexture) != rows {
		return fmt.Errorf("%w: meantex has %d values, want %d", ErrAssetLoad, len(raw.MeanTexture), rows)
	}
	if len(raw.PointBuf) != rows/3 {
		return fmt.Errorf("%w: point_buf has %d rows, want %d", ErrAssetLoad, len(raw.PointBuf), rows/3)
	}
	if len(raw.Triangles) == 0 {
		return fmt.Errorf("%w: tri is empty", ErrAssetLoad)
	}
	if len(raw.RenderRegion) == 0 || len(raw.RenderTriangles) == 0 {
		return fmt.Errorf("%w: render region is empty", ErrAssetLoad)
	}
	if len(raw.Landmarks) != LandmarkCount {
		return fmt.Errorf("%w: keypoints has %d entries, want %d", ErrAssetLoad, len(raw.Landmarks), LandmarkCount)
	}
	return nil
}
