package facemodel

import (
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"gonum.org/v1/gonum/mat"
)

// Save writes the model to a binary glTF container readable by Load.
func Save(m *Model, path string) error {
	if err := gltf.SaveBinary(m.Document(), path); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Document encodes the model arrays as named accessors of a new glTF
// document.
func (m *Model) Document() *gltf.Document {
	doc := gltf.NewDocument()

	writeFloats := func(name string, vals []float64) {
		data := make([]float32, len(vals))
		for i, v := range vals {
			data[i] = float32(v)
		}
		idx := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, data)
		doc.Accessors[idx].Name = name
	}
	writeInts := func(name string, vals []int) {
		idx := modeler.WriteAccessor(doc, gltf.TargetArrayBuffer, indexTable(vals))
		doc.Accessors[idx].Name = name
	}

	writeFloats(nameMeanShape, m.MeanShape)
	writeFloats(nameIDBasis, denseValues(m.IDBasis))
	writeFloats(nameExpBasis, denseValues(m.ExpBasis))
	writeFloats(nameMeanTexture, m.MeanTexture)
	writeFloats(nameTexBasis, denseValues(m.TexBasis))

	ring := make([]int, 0, len(m.PointBuf)*RingSize)
	for _, r := range m.PointBuf {
		ring = append(ring, r[:]...)
	}
	writeInts(namePointBuf, ring)
	writeInts(nameTriangles, flattenTriples(m.Triangles))
	writeInts(nameRenderRegion, m.RenderRegion)
	writeInts(nameRenderTriangles, flattenTriples(m.RenderTriangles))
	writeInts(nameLandmarks, m.Landmarks)

	return doc
}

// denseValues returns the matrix elements in row-major order.
func denseValues(d *mat.Dense) []float64 {
	r, c := d.Dims()
	out := make([]float64, 0, r*c)
	for i := range r {
		out = append(out, d.RawRowView(i)...)
	}
	return out
}

// indexTable packs vals as uint16 when every entry fits, uint32 otherwise.
func indexTable(vals []int) any {
	for _, v := range vals {
		if v > math.MaxUint16 {
			wide := make([]uint32, len(vals))
			for i, v := range vals {
				wide[i] = uint32(v)
			}
			return wide
		}
	}
	narrow := make([]uint16, len(vals))
	for i, v := range vals {
		narrow[i] = uint16(v)
	}
	return narrow
}

func flattenTriples(t [][3]int) []int {
	out := make([]int, 0, len(t)*3)
	for _, tri := range t {
		out = append(out, tri[:]...)
	}
	return out
}
