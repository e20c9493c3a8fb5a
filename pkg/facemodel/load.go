package facemodel

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"gonum.org/v1/gonum/mat"
)

// Accessor names used inside the model container.
const (
	nameMeanShape       = "meanshape"
	nameIDBasis         = "idBase"
	nameExpBasis        = "exBase"
	nameMeanTexture     = "meantex"
	nameTexBasis        = "texBase"
	namePointBuf        = "point_buf"
	nameTriangles       = "tri"
	nameRenderRegion    = "gan_mask"
	nameRenderTriangles = "gan_tl"
	nameLandmarks       = "keypoints"
)

// Load reads a model asset from a GLB/glTF container. Each field is stored
// as a named scalar accessor: float accessors hold row-major matrices, uint
// accessors hold 1-based index tables.
func Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrAssetLoad, path, err)
	}
	return FromDocument(doc)
}

// FromDocument decodes a model from an already opened glTF document.
func FromDocument(doc *gltf.Document) (*Model, error) {
	r := &docReader{doc: doc, byName: make(map[string]*gltf.Accessor)}
	for _, acc := range doc.Accessors {
		if acc.Name != "" {
			r.byName[acc.Name] = acc
		}
	}

	var raw Raw
	raw.MeanShape = r.floats(nameMeanShape)
	rows := len(raw.MeanShape)
	raw.IDBasis = r.matrix(nameIDBasis, rows, IdentityDim)
	raw.ExpBasis = r.matrix(nameExpBasis, rows, ExpressionDim)
	raw.MeanTexture = r.floats(nameMeanTexture)
	raw.TexBasis = r.matrix(nameTexBasis, rows, TextureDim)

	raw.PointBuf = rings(r.ints(namePointBuf))
	raw.Triangles = triples(r.ints(nameTriangles))
	raw.RenderRegion = r.ints(nameRenderRegion)
	raw.RenderTriangles = triples(r.ints(nameRenderTriangles))
	raw.Landmarks = r.ints(nameLandmarks)

	if r.err != nil {
		return nil, r.err
	}
	return New(raw)
}

// docReader collects the first error so field decoding reads linearly.
type docReader struct {
	doc    *gltf.Document
	byName map[string]*gltf.Accessor
	err    error
}

func (r *docReader) accessor(name string) *gltf.Accessor {
	if r.err != nil {
		return nil
	}
	acc, ok := r.byName[name]
	if !ok {
		r.err = fmt.Errorf("%w: missing field %q", ErrAssetLoad, name)
		return nil
	}
	if acc.Type != gltf.AccessorScalar {
		r.err = fmt.Errorf("%w: field %q has type %v, want SCALAR", ErrAssetLoad, name, acc.Type)
		return nil
	}
	return acc
}

func (r *docReader) floats(name string) []float64 {
	acc := r.accessor(name)
	if acc == nil {
		return nil
	}
	if acc.ComponentType != gltf.ComponentFloat {
		r.err = fmt.Errorf("%w: field %q is not float", ErrAssetLoad, name)
		return nil
	}
	data, err := modeler.ReadAccessor(r.doc, acc, nil)
	if err != nil {
		r.err = fmt.Errorf("%w: field %q: %v", ErrAssetLoad, name, err)
		return nil
	}
	vals, ok := data.([]float32)
	if !ok {
		r.err = fmt.Errorf("%w: field %q decoded as %T", ErrAssetLoad, name, data)
		return nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

func (r *docReader) matrix(name string, rows, cols int) *mat.Dense {
	vals := r.floats(name)
	if r.err != nil {
		return nil
	}
	if rows == 0 || len(vals) != rows*cols {
		r.err = fmt.Errorf("%w: field %q has %d values, want %dx%d", ErrAssetLoad, name, len(vals), rows, cols)
		return nil
	}
	return mat.NewDense(rows, cols, vals)
}

// ints accepts any unsigned component width.
func (r *docReader) ints(name string) []int {
	acc := r.accessor(name)
	if acc == nil {
		return nil
	}
	vals, err := modeler.ReadIndices(r.doc, acc, nil)
	if err != nil {
		r.err = fmt.Errorf("%w: field %q: %v", ErrAssetLoad, name, err)
		return nil
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out
}

func triples(flat []int) [][3]int {
	out := make([][3]int, len(flat)/3)
	for i := range out {
		out[i] = [3]int{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out
}

func rings(flat []int) [][RingSize]int {
	out := make([][RingSize]int, len(flat)/RingSize)
	for i := range out {
		copy(out[i][:], flat[i*RingSize:(i+1)*RingSize])
	}
	return out
}
