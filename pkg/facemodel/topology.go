package facemodel

import "fmt"

// Topology is the zero-based form of the model's index tables.
type Topology struct {
	// Faces lists the vertex indices of each triangle.
	Faces [][3]int

	// PointFaces lists, per vertex, the triangles of its one-ring. Padding
	// entries equal len(Faces), which addresses the zero-normal sentinel
	// appended after the real triangles.
	PointFaces [][RingSize]int

	// RegionVertices maps render-region slots to mesh vertices.
	RegionVertices []int

	// RegionFaces are triangles indexing into RegionVertices.
	RegionFaces [][3]int

	// Landmarks are the 68 landmark vertices.
	Landmarks []int
}

// zeroBased converts a 1-based asset index. It is the only place the model
// tables are decremented.
func zeroBased(i int) int {
	return i - 1
}

func newTopology(raw *Raw) (*Topology, error) {
	n := len(raw.MeanShape) / 3
	f := len(raw.Triangles)
	region := len(raw.RenderRegion)

	topo := &Topology{
		Faces:          make([][3]int, f),
		PointFaces:     make([][RingSize]int, n),
		RegionVertices: make([]int, region),
		RegionFaces:    make([][3]int, len(raw.RenderTriangles)),
		Landmarks:      make([]int, len(raw.Landmarks)),
	}

	for i, tri := range raw.Triangles {
		for k, v := range tri {
			idx := zeroBased(v)
			if idx < 0 || idx >= n {
				return nil, fmt.Errorf("%w: tri[%d] references vertex %d of %d", ErrAssetLoad, i, v, n)
			}
			topo.Faces[i][k] = idx
		}
	}

	for i, ring := range raw.PointBuf {
		for k, face := range ring {
			idx := zeroBased(face)
			// idx == f is the sentinel slot.
			if idx < 0 || idx > f {
				return nil, fmt.Errorf("%w: point_buf[%d] references triangle %d of %d", ErrAssetLoad, i, face, f)
			}
			topo.PointFaces[i][k] = idx
		}
	}

	for i, v := range raw.RenderRegion {
		idx := zeroBased(v)
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: gan_mask[%d] references vertex %d of %d", ErrAssetLoad, i, v, n)
		}
		topo.RegionVertices[i] = idx
	}

	for i, tri := range raw.RenderTriangles {
		for k, v := range tri {
			idx := zeroBased(v)
			if idx < 0 || idx >= region {
				return nil, fmt.Errorf("%w: gan_tl[%d] references region vertex %d of %d", ErrAssetLoad, i, v, region)
			}
			topo.RegionFaces[i][k] = idx
		}
	}

	for i, v := range raw.Landmarks {
		idx := zeroBased(v)
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: keypoints[%d] references vertex %d of %d", ErrAssetLoad, i, v, n)
		}
		topo.Landmarks[i] = idx
	}

	return topo, nil
}
