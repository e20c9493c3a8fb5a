package render

import (
	"image/color"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// Wireframe draws mesh edges over a framebuffer through a camera.
type Wireframe struct {
	camera *Camera
	fb     *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(camera *Camera, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a line in 3D space. Lines with an endpoint outside the
// view are skipped rather than clipped.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c color.RGBA) {
	x1, y1, _, vis1 := w.camera.WorldToScreen(p1, w.fb.Width, w.fb.Height)
	x2, y2, _, vis2 := w.camera.WorldToScreen(p2, w.fb.Width, w.fb.Height)
	if !vis1 || !vis2 {
		return
	}
	w.fb.DrawLine(int(x1), int(y1), int(x2), int(y2), c)
}

// DrawMesh draws every triangle edge of a mesh. Shared edges are drawn
// twice.
func (w *Wireframe) DrawMesh(vertices []math3d.Vec3, triangles [][3]int, c color.RGBA) {
	for _, tri := range triangles {
		w.DrawLine3D(vertices[tri[0]], vertices[tri[1]], c)
		w.DrawLine3D(vertices[tri[1]], vertices[tri[2]], c)
		w.DrawLine3D(vertices[tri[2]], vertices[tri[0]], c)
	}
}
