package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/facerecon/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if math.Abs(plane.Normal.Len()-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", plane.Normal.Len())
	}
	if math.Abs(plane.D-2) > 1e-9 {
		t.Errorf("D = %v, want 2", plane.D)
	}

	zero := Plane{D: 3}
	zero.Normalize()
	if zero.D != 3 {
		t.Error("degenerate plane should be left untouched")
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]math3d.Vec3{
		math3d.V3(1, -2, 3),
		math3d.V3(-1, 4, 0),
		math3d.V3(0, 0, 5),
	})
	if b.Min != math3d.V3(-1, -2, 0) || b.Max != math3d.V3(1, 4, 5) {
		t.Errorf("bounds = %+v", b)
	}
	if c := b.Center(); c != math3d.V3(0, 1, 2.5) {
		t.Errorf("center = %v", c)
	}
	if !b.ContainsPoint(math3d.V3(0, 0, 1)) || b.ContainsPoint(math3d.V3(2, 0, 1)) {
		t.Error("ContainsPoint disagrees with bounds")
	}
	if BoundsOf(nil) != (AABB{}) {
		t.Error("empty input should give the zero box")
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	f := NewCamera().Frustum()

	tests := []struct {
		name  string
		point math3d.Vec3
		want  bool
	}{
		{"origin", math3d.Zero3(), true},
		{"behind camera", math3d.V3(0, 0, 20), false},
		{"beyond far plane", math3d.V3(0, 0, -200), false},
		{"far left", math3d.V3(-50, 0, 0), false},
		{"above", math3d.V3(0, 50, 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.ContainsPoint(tc.point); got != tc.want {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestFrustumIntersectAABB(t *testing.T) {
	f := NewCamera().Frustum()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"around origin", AABB{Min: math3d.V3(-1, -1, -1), Max: math3d.V3(1, 1, 1)}, true},
		{"straddles left plane", AABB{Min: math3d.V3(-50, -1, -1), Max: math3d.V3(0, 1, 1)}, true},
		{"entirely left", AABB{Min: math3d.V3(-60, -1, -1), Max: math3d.V3(-50, 1, 1)}, false},
		{"behind camera", AABB{Min: math3d.V3(-1, -1, 15), Max: math3d.V3(1, 1, 20)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IntersectAABB(tc.box); got != tc.want {
				t.Errorf("IntersectAABB = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSoftwareCullsOffscreenSample(t *testing.T) {
	req := newRequest(16, 1, quad{h: 0.5, z: 0, color: math3d.V3(1, 1, 1)})
	for j := range req.Vertices[0] {
		req.Vertices[0][j].X += 40
	}
	buf := rasterizeOne(t, req)
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 0 {
			t.Fatal("mesh outside the view should leave the buffer empty")
		}
	}
}

func TestWireframeDrawMesh(t *testing.T) {
	req := newRequest(64, 1, quad{h: 0.5, z: 0, color: math3d.V3(1, 1, 1)})
	fb := NewFramebuffer(64, 64)
	wf := NewWireframe(RequestCamera(req, 0), fb)
	edge := color.RGBA{0, 255, 0, 255}
	wf.DrawMesh(req.Vertices[0], req.Triangles, edge)

	if fb.GetPixel(32, 16) != edge {
		t.Errorf("top edge pixel = %v, want %v", fb.GetPixel(32, 16), edge)
	}
	// Interior, away from the shared diagonal.
	if fb.GetPixel(40, 40) == edge {
		t.Error("wireframe should not fill triangle interiors")
	}
}
