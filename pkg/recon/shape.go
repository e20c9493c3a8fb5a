// Package recon turns reconstruction coefficients into posed, lit face
// meshes, 2D landmarks and rendered images.
package recon

import (
	"gonum.org/v1/gonum/mat"

	"github.com/taigrr/facerecon/pkg/facemodel"
	"github.com/taigrr/facerecon/pkg/math3d"
)

// linearModel evaluates coeff·basisᵀ + mean for a whole batch in one matrix
// product and returns one row of 3N values per sample.
func linearModel(coeff, basis *mat.Dense, mean []float64) *mat.Dense {
	var out mat.Dense
	out.Mul(coeff, basis.T())
	rows, _ := out.Dims()
	for i := range rows {
		row := out.RawRowView(i)
		for j, m := range mean {
			row[j] += m
		}
	}
	return &out
}

// SynthesizeShapes deforms the mean shape by the identity and expression
// weights (B x 80, B x 64) and re-centres every result by the model's shape
// centre.
func SynthesizeShapes(m *facemodel.Model, id, ex *mat.Dense) [][]math3d.Vec3 {
	shape := linearModel(id, m.IDBasis, m.MeanShape)
	var exp mat.Dense
	exp.Mul(ex, m.ExpBasis.T())
	shape.Add(shape, &exp)

	center := m.ShapeCenter()
	rows, _ := shape.Dims()
	out := make([][]math3d.Vec3, rows)
	for i := range rows {
		verts := facemodel.Reshape(shape.RawRowView(i))
		for j := range verts {
			verts[j] = verts[j].Sub(center)
		}
		out[i] = verts
	}
	return out
}

// ComputeNormals returns unit vertex normals for one shape. Each triangle
// normal is normalize((v0-v1) x (v1-v2)); a vertex normal is the normalized
// sum over its ring. Ring padding addresses a zero normal, and sums of zero
// length stay zero.
func ComputeNormals(vertices []math3d.Vec3, topo *facemodel.Topology) []math3d.Vec3 {
	faceNormals := make([]math3d.Vec3, len(topo.Faces)+1) // last entry is the padding sentinel
	for f, tri := range topo.Faces {
		v0, v1, v2 := vertices[tri[0]], vertices[tri[1]], vertices[tri[2]]
		faceNormals[f] = v0.Sub(v1).Cross(v1.Sub(v2)).Normalize()
	}

	normals := make([]math3d.Vec3, len(topo.PointFaces))
	for v, ring := range topo.PointFaces {
		var sum math3d.Vec3
		for _, f := range ring {
			sum = sum.Add(faceNormals[f])
		}
		normals[v] = sum.Normalize()
	}
	return normals
}
