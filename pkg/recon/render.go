package recon

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/facerecon/pkg/math3d"
	"github.com/taigrr/facerecon/pkg/render"
)

// Fixed scene parameters of the render camera.
const (
	NearClip = 0.01
	FarClip  = 50.0
)

// LightPosition is the single scene light. Vertex colors already include
// the SH lighting, so its intensity is zero and only the ambient term
// contributes.
var LightPosition = math3d.V3(0, 0, 1e5)

// renderRequest gathers the render region of every sample and fills in the
// broadcast camera and lighting.
func (r *Reconstructor) renderRequest(g *geometry, spec RenderSpec) *render.Request {
	topo := r.model.Topology()
	b := len(g.Shapes)
	proj := r.opts.RenderProjection

	req := &render.Request{
		Vertices:         make([][]math3d.Vec3, b),
		Triangles:        topo.RegionFaces,
		Normals:          make([][]math3d.Vec3, b),
		Colors:           make([][]math3d.Vec3, b),
		CameraPosition:   make([]math3d.Vec3, b),
		CameraLookAt:     make([]math3d.Vec3, b),
		CameraUp:         make([]math3d.Vec3, b),
		LightPositions:   make([][]math3d.Vec3, b),
		LightIntensities: make([][]math3d.Vec3, b),
		AmbientColor:     make([]math3d.Vec3, b),
		Width:            spec.Resolution,
		Height:           spec.Resolution,
		FOVY:             proj.FOVY(),
		Near:             NearClip,
		Far:              FarClip,
		Samples:          spec.Samples,
	}

	for i := range b {
		req.Vertices[i] = gather(g.Shapes[i], topo.RegionVertices)
		req.Normals[i] = gather(g.Normals[i], topo.RegionVertices)
		req.Colors[i] = gather(g.Colors[i], topo.RegionVertices)
		req.CameraPosition[i] = math3d.V3(0, 0, proj.CameraDistance)
		req.CameraLookAt[i] = math3d.Zero3()
		req.CameraUp[i] = math3d.Up()
		req.LightPositions[i] = []math3d.Vec3{LightPosition}
		req.LightIntensities[i] = []math3d.Vec3{math3d.Zero3()}
		req.AmbientColor[i] = math3d.V3(1, 1, 1)
	}
	return req
}

func gather[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}

// rasterize runs the request on the device and converts the RGBA output to
// clipped 8-bit images and binary masks.
func (r *Reconstructor) rasterize(req *render.Request) ([]*render.RGBImage, []*render.Mask, error) {
	bufs, err := r.dev.Rasterize(r.opts.Rasterizer, req)
	if err != nil {
		return nil, nil, wrapRasterizer(err)
	}
	if len(bufs) != req.Batch() {
		return nil, nil, fmt.Errorf("%w: got %d images for %d samples", render.ErrRasterizer, len(bufs), req.Batch())
	}

	images := make([]*render.RGBImage, len(bufs))
	masks := make([]*render.Mask, len(bufs))
	for i, buf := range bufs {
		if buf == nil || buf.Width != req.Width || buf.Height != req.Height || len(buf.Pix) != buf.Width*buf.Height*4 {
			return nil, nil, fmt.Errorf("%w: image %d has the wrong size", render.ErrRasterizer, i)
		}
		images[i], masks[i] = quantize(buf)
	}
	return images, masks, nil
}

func wrapRasterizer(err error) error {
	if errors.Is(err, render.ErrRasterizer) {
		return err
	}
	return fmt.Errorf("%w: %w", render.ErrRasterizer, err)
}

// quantize clips color to [0,255] and truncates it to uint8; alpha of at
// least one half marks a pixel in the mask.
func quantize(buf *render.RGBABuffer) (*render.RGBImage, *render.Mask) {
	img := render.NewRGBImage(buf.Width, buf.Height)
	mask := render.NewMask(buf.Width, buf.Height)
	for p := range buf.Width * buf.Height {
		px := buf.Pix[p*4 : p*4+4]
		img.Pix[p*3] = clipByte(px[0])
		img.Pix[p*3+1] = clipByte(px[1])
		img.Pix[p*3+2] = clipByte(px[2])
		if px[3] >= 0.5 {
			mask.Pix[p] = 1
		}
	}
	return img, mask
}

func clipByte(v float32) uint8 {
	switch {
	case math.IsNaN(float64(v)) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
