package render

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// faceFOV matches the reconstruction camera: 2*atan(128/(1015*1.22)) degrees.
var faceFOV = 2 * math.Atan(128/(1015*1.22)) * 180 / math.Pi

// quad is a square of half-size h at depth z facing +Z.
type quad struct {
	h, z  float64
	color math3d.Vec3
}

// newRequest builds a single-sample request from quads, with the camera at
// (0,0,10) looking at the origin and ambient-only lighting.
func newRequest(res, samples int, quads ...quad) *Request {
	var verts, normals, colors []math3d.Vec3
	var tris [][3]int
	for _, q := range quads {
		base := len(verts)
		verts = append(verts,
			math3d.V3(-q.h, -q.h, q.z),
			math3d.V3(q.h, -q.h, q.z),
			math3d.V3(q.h, q.h, q.z),
			math3d.V3(-q.h, q.h, q.z),
		)
		for range 4 {
			normals = append(normals, math3d.V3(0, 0, 1))
			colors = append(colors, q.color)
		}
		tris = append(tris, [3]int{base, base + 1, base + 2}, [3]int{base, base + 2, base + 3})
	}

	return &Request{
		Vertices:         [][]math3d.Vec3{verts},
		Triangles:        tris,
		Normals:          [][]math3d.Vec3{normals},
		Colors:           [][]math3d.Vec3{colors},
		CameraPosition:   []math3d.Vec3{math3d.V3(0, 0, 10)},
		CameraLookAt:     []math3d.Vec3{math3d.Zero3()},
		CameraUp:         []math3d.Vec3{math3d.Up()},
		LightPositions:   [][]math3d.Vec3{{math3d.V3(0, 0, 1e5)}},
		LightIntensities: [][]math3d.Vec3{{math3d.Zero3()}},
		AmbientColor:     []math3d.Vec3{math3d.V3(1, 1, 1)},
		Width:            res,
		Height:           res,
		FOVY:             faceFOV,
		Near:             0.01,
		Far:              50,
		Samples:          samples,
	}
}

func rasterizeOne(t *testing.T, req *Request) *RGBABuffer {
	t.Helper()
	out, err := NewSoftware().Rasterize(req)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(out) != req.Batch() {
		t.Fatalf("got %d buffers, want %d", len(out), req.Batch())
	}
	return out[0]
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestBarycentric(t *testing.T) {
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Triangle: (0,0), (1,0), (0,1)
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)

			if math.Abs(bc.X-tc.expected.X) > 0.001 ||
				math.Abs(bc.Y-tc.expected.Y) > 0.001 ||
				math.Abs(bc.Z-tc.expected.Z) > 0.001 {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})
}

func TestSampleGrid(t *testing.T) {
	tests := []struct {
		n      int
		sx, sy int
	}{
		{-1, 1, 1},
		{0, 1, 1},
		{1, 1, 1},
		{2, 2, 1},
		{4, 2, 2},
		{8, 4, 2},
		{16, 4, 4},
		{32, 8, 4},
		{64, 8, 8},
		{1000, 16, 16},
	}
	for _, tc := range tests {
		sx, sy := sampleGrid(tc.n)
		if sx != tc.sx || sy != tc.sy {
			t.Errorf("sampleGrid(%d) = %dx%d, want %dx%d", tc.n, sx, sy, tc.sx, tc.sy)
		}
	}
}

func TestSoftwareCoverage(t *testing.T) {
	for _, samples := range []int{1, 4, 16, 64} {
		red := math3d.V3(200, 10, 10)
		buf := rasterizeOne(t, newRequest(32, samples, quad{h: 0.5, z: 0, color: red}))

		if buf.Width != 32 || buf.Height != 32 {
			t.Fatalf("samples=%d: size %dx%d, want 32x32", samples, buf.Width, buf.Height)
		}

		center := buf.At(16, 16)
		if center[3] != 1 || !approx(center[0], 200) || !approx(center[1], 10) {
			t.Errorf("samples=%d: center = %v, want opaque red", samples, center)
		}
		if corner := buf.At(0, 0); corner != [4]float32{} {
			t.Errorf("samples=%d: corner = %v, want transparent black", samples, corner)
		}

		for i := 3; i < len(buf.Pix); i += 4 {
			if a := buf.Pix[i]; a != 0 && a != 1 {
				t.Fatalf("samples=%d: alpha %v is not binary", samples, a)
			}
		}
	}
}

func TestSoftwareDepthTest(t *testing.T) {
	far := quad{h: 0.5, z: 0, color: math3d.V3(255, 0, 0)}
	near := quad{h: 0.3, z: 1, color: math3d.V3(0, 255, 0)}

	tests := []struct {
		name  string
		quads []quad
	}{
		{"near drawn last", []quad{far, near}},
		{"near drawn first", []quad{near, far}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := rasterizeOne(t, newRequest(32, 1, tc.quads...))
			c := buf.At(16, 16)
			if !approx(c[1], 255) || c[0] != 0 {
				t.Errorf("center = %v, want the nearer green quad", c)
			}
		})
	}
}

func TestSoftwareDrawsBothWindings(t *testing.T) {
	req := newRequest(16, 1, quad{h: 0.5, z: 0, color: math3d.V3(1, 1, 1)})
	for i, tri := range req.Triangles {
		req.Triangles[i] = [3]int{tri[0], tri[2], tri[1]}
	}
	buf := rasterizeOne(t, req)
	if buf.At(8, 8)[3] != 1 {
		t.Error("clockwise triangles should still be rasterized")
	}
}

func TestSoftwareClipping(t *testing.T) {
	tests := []struct {
		name string
		z    float64
	}{
		{"behind camera", 20},
		{"beyond far plane", -45},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := rasterizeOne(t, newRequest(16, 1, quad{h: 0.5, z: tc.z, color: math3d.V3(1, 1, 1)}))
			for i := 3; i < len(buf.Pix); i += 4 {
				if buf.Pix[i] != 0 {
					t.Fatal("expected an empty image")
				}
			}
		})
	}
}

func TestSoftwareLighting(t *testing.T) {
	tests := []struct {
		name   string
		normal math3d.Vec3
		want   float32
	}{
		{"facing light", math3d.V3(0, 0, 1), 100},
		{"perpendicular", math3d.V3(1, 0, 0), 0},
		{"facing away", math3d.V3(0, 0, -1), 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(16, 1, quad{h: 0.5, z: 0, color: math3d.V3(100, 100, 100)})
			req.LightIntensities[0][0] = math3d.V3(1, 1, 1)
			req.AmbientColor[0] = math3d.Zero3()
			for i := range req.Normals[0] {
				req.Normals[0][i] = tc.normal
			}

			c := rasterizeOne(t, req).At(8, 8)
			if c[3] != 1 || !approx(c[0], tc.want) {
				t.Errorf("center = %v, want red %v", c, tc.want)
			}
		})
	}
}

func TestSoftwareBatch(t *testing.T) {
	a := newRequest(16, 4, quad{h: 0.5, color: math3d.V3(10, 0, 0)})
	b := newRequest(16, 4, quad{h: 0.5, color: math3d.V3(20, 0, 0)})

	req := a
	req.Vertices = append(req.Vertices, b.Vertices...)
	req.Normals = append(req.Normals, b.Normals...)
	req.Colors = append(req.Colors, b.Colors...)
	req.CameraPosition = append(req.CameraPosition, b.CameraPosition...)
	req.CameraLookAt = append(req.CameraLookAt, b.CameraLookAt...)
	req.CameraUp = append(req.CameraUp, b.CameraUp...)
	req.LightPositions = append(req.LightPositions, b.LightPositions...)
	req.LightIntensities = append(req.LightIntensities, b.LightIntensities...)
	req.AmbientColor = append(req.AmbientColor, b.AmbientColor...)

	out, err := (&Software{Workers: 1}).Rasterize(req)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d buffers, want 2", len(out))
	}
	if !approx(out[0].At(8, 8)[0], 10) || !approx(out[1].At(8, 8)[0], 20) {
		t.Errorf("samples mixed up: %v %v", out[0].At(8, 8), out[1].At(8, 8))
	}
}

func TestSoftwareInvalidRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"empty batch", func(r *Request) { r.Vertices = nil }},
		{"zero width", func(r *Request) { r.Width = 0 }},
		{"bad clip planes", func(r *Request) { r.Far = r.Near }},
		{"missing colors", func(r *Request) { r.Colors = nil }},
		{"short normals", func(r *Request) { r.Normals[0] = r.Normals[0][:1] }},
		{"triangle out of range", func(r *Request) { r.Triangles[0][2] = 99 }},
		{"negative index", func(r *Request) { r.Triangles[1][0] = -1 }},
		{"light mismatch", func(r *Request) { r.LightIntensities[0] = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(8, 1, quad{h: 0.5, color: math3d.V3(1, 1, 1)})
			tc.mutate(req)
			if _, err := NewSoftware().Rasterize(req); !errors.Is(err, ErrRasterizer) {
				t.Errorf("error = %v, want ErrRasterizer", err)
			}
		})
	}
}

func TestSampleBufferClearDepth(t *testing.T) {
	sb := newSampleBuffer(10, 10)
	sb.write(5, 5, 0.5, [3]float64{1, 2, 3})
	if sb.test(5, 5, 0.6) {
		t.Error("farther sample should fail the depth test")
	}
	if !sb.test(5, 5, 0.4) {
		t.Error("nearer sample should pass the depth test")
	}

	sb.clearDepth()
	if sb.depth[55] != math.MaxFloat64 {
		t.Error("clearDepth should reset to MaxFloat64")
	}
	if sb.test(-1, 0, 0) || sb.test(10, 0, 0) {
		t.Error("out-of-bounds samples must fail the depth test")
	}
}

func TestResolveHalfCoverage(t *testing.T) {
	sb := newSampleBuffer(2, 2)
	sb.write(0, 0, 0, [3]float64{4, 0, 0})
	sb.write(1, 0, 0, [3]float64{8, 0, 0})

	got := sb.resolve(2, 2).At(0, 0)
	if got[3] != 1 || !approx(got[0], 6) {
		t.Errorf("half covered pixel = %v, want opaque mean color 6", got)
	}

	sb = newSampleBuffer(2, 2)
	sb.write(0, 0, 0, [3]float64{4, 0, 0})
	if got := sb.resolve(2, 2).At(0, 0); got != [4]float32{} {
		t.Errorf("quarter covered pixel = %v, want transparent", got)
	}
}

func BenchmarkSoftwareRasterize(b *testing.B) {
	tests := []struct {
		name         string
		res, samples int
	}{
		{"8px/64x", 8, 64},
		{"64px/8x", 64, 8},
		{"256px/4x", 256, 4},
	}
	for _, tc := range tests {
		b.Run(tc.name, func(b *testing.B) {
			req := newRequest(tc.res, tc.samples, quad{h: 0.8, color: math3d.V3(128, 128, 128)})
			sw := NewSoftware()
			for b.Loop() {
				if _, err := sw.Rasterize(req); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
