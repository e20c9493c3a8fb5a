// Package render defines the rasterizer contract used by the reconstruction
// pipeline and provides a software implementation of it, along with the
// image, overlay and terminal helpers used to display the results.
package render

import (
	"errors"
	"fmt"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// ErrRasterizer wraps every failure reported by a Rasterizer.
var ErrRasterizer = errors.New("render: rasterizer failed")

// Request is one batched rasterization call. Every per-sample slice has the
// same length B; Triangles is shared by all samples and indexes Vertices
// zero-based.
type Request struct {
	Vertices  [][]math3d.Vec3 // B x n
	Triangles [][3]int        // f
	Normals   [][]math3d.Vec3 // B x n
	Colors    [][]math3d.Vec3 // B x n, RGB in vertex-color units

	CameraPosition []math3d.Vec3
	CameraLookAt   []math3d.Vec3
	CameraUp       []math3d.Vec3

	LightPositions   [][]math3d.Vec3 // B x L
	LightIntensities [][]math3d.Vec3 // B x L
	AmbientColor     []math3d.Vec3

	Width  int
	Height int
	FOVY   float64 // degrees
	Near   float64
	Far    float64

	// Samples is the anti-aliasing sample count per pixel. Values below 1
	// mean one sample.
	Samples int
}

// Batch returns the number of samples in the request.
func (r *Request) Batch() int {
	return len(r.Vertices)
}

// Validate checks that every per-sample slice agrees with the batch size and
// that all triangle indices are in range.
func (r *Request) Validate() error {
	b := r.Batch()
	if b == 0 {
		return errors.New("empty batch")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", r.Width, r.Height)
	}
	if r.Near <= 0 || r.Far <= r.Near {
		return fmt.Errorf("invalid clip planes near=%v far=%v", r.Near, r.Far)
	}

	sizes := []struct {
		name string
		n    int
	}{
		{"normals", len(r.Normals)},
		{"colors", len(r.Colors)},
		{"camera position", len(r.CameraPosition)},
		{"camera lookat", len(r.CameraLookAt)},
		{"camera up", len(r.CameraUp)},
		{"light positions", len(r.LightPositions)},
		{"light intensities", len(r.LightIntensities)},
		{"ambient color", len(r.AmbientColor)},
	}
	for _, s := range sizes {
		if s.n != b {
			return fmt.Errorf("%s has %d entries, want %d", s.name, s.n, b)
		}
	}

	for i := range b {
		n := len(r.Vertices[i])
		if len(r.Normals[i]) != n || len(r.Colors[i]) != n {
			return fmt.Errorf("sample %d: attribute counts differ from %d vertices", i, n)
		}
		if len(r.LightPositions[i]) != len(r.LightIntensities[i]) {
			return fmt.Errorf("sample %d: %d light positions but %d intensities",
				i, len(r.LightPositions[i]), len(r.LightIntensities[i]))
		}
	}

	n := len(r.Vertices[0])
	for t, tri := range r.Triangles {
		for _, idx := range tri {
			if idx < 0 || idx >= n {
				return fmt.Errorf("triangle %d: vertex %d out of range [0,%d)", t, idx, n)
			}
		}
	}
	return nil
}

// RGBABuffer is a floating-point RGBA image, row-major with row 0 at the top.
// Color channels carry the vertex-color units of the request; alpha is in
// [0,1].
type RGBABuffer struct {
	Width  int
	Height int
	Pix    []float32 // 4 values per pixel
}

// NewRGBABuffer allocates a zeroed buffer.
func NewRGBABuffer(width, height int) *RGBABuffer {
	return &RGBABuffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// At returns the RGBA value at (x, y).
func (b *RGBABuffer) At(x, y int) [4]float32 {
	i := (y*b.Width + x) * 4
	return [4]float32{b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]}
}

// Set stores an RGBA value at (x, y).
func (b *RGBABuffer) Set(x, y int, v [4]float32) {
	i := (y*b.Width + x) * 4
	copy(b.Pix[i:i+4], v[:])
}

// Rasterizer renders a batch of colored triangle meshes to RGBA images.
// Implementations return exactly Batch() buffers of Width x Height, or an
// error wrapping ErrRasterizer.
type Rasterizer interface {
	Rasterize(req *Request) ([]*RGBABuffer, error)
}
