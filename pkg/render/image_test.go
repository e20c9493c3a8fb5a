package render

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/taigrr/facerecon/pkg/math3d"
)

func TestRGBImageToImage(t *testing.T) {
	img := NewRGBImage(2, 2)
	img.SetRGB(1, 0, [3]uint8{10, 20, 30})

	rgba := img.ToImage()
	if got := rgba.RGBAAt(1, 0); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("pixel = %v", got)
	}

	mask := NewMask(2, 2)
	mask.Set(1, 0, 1)
	nrgba := img.ToImageMasked(mask)
	if nrgba.NRGBAAt(1, 0).A != 255 || nrgba.NRGBAAt(0, 0).A != 0 {
		t.Error("masked alpha not taken from mask")
	}
}

func TestMask(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(0, 0, 1)
	m.Set(1, 1, 1)

	if got := m.Coverage(); got != 0.5 {
		t.Errorf("Coverage = %v, want 0.5", got)
	}
	gray := m.ToImage()
	if gray.GrayAt(0, 0).Y != 255 || gray.GrayAt(1, 0).Y != 0 {
		t.Error("mask image not black and white")
	}
}

func TestUpscaleAndSave(t *testing.T) {
	img := NewRGBImage(4, 4)
	for y := range 4 {
		for x := range 4 {
			img.SetRGB(x, y, [3]uint8{200, 100, 50})
		}
	}

	up := Upscale(img.ToImage(), 16)
	if up.Bounds().Dx() != 16 || up.Bounds().Dy() != 16 {
		t.Fatalf("upscaled bounds = %v", up.Bounds())
	}
	if c := up.RGBAAt(8, 8); absInt(int(c.R)-200) > 1 || absInt(int(c.G)-100) > 1 {
		t.Errorf("uniform image changed color: %v", c)
	}

	if err := SavePNG(up, filepath.Join(t.TempDir(), "face.png")); err != nil {
		t.Errorf("SavePNG: %v", err)
	}
}

func TestDrawLandmarks(t *testing.T) {
	fb := NewFramebuffer(64, 64)
	// Landmark y grows upward, so (32, 48) in a 64px image lands on row 16.
	DrawLandmarks(fb, []math3d.Vec2{math3d.V2(32, 48)}, 64, LandmarkColor)

	if fb.GetPixel(32, 16) != LandmarkColor {
		t.Error("landmark center not marked")
	}
	if fb.GetPixel(33, 16) != LandmarkColor || fb.GetPixel(32, 17) != LandmarkColor {
		t.Error("landmark cross arms missing")
	}
	if fb.GetPixel(32, 48) == LandmarkColor {
		t.Error("landmark drawn without flipping y")
	}
}

func TestFramebufferCompose(t *testing.T) {
	fb := NewFramebuffer(2, 1)
	fb.Clear(color.RGBA{1, 1, 1, 255})

	img := NewRGBImage(2, 1)
	img.SetRGB(0, 0, [3]uint8{9, 9, 9})
	img.SetRGB(1, 0, [3]uint8{7, 7, 7})
	mask := NewMask(2, 1)
	mask.Set(0, 0, 1)

	fb.Compose(img, mask)
	if fb.GetPixel(0, 0).R != 9 || fb.GetPixel(1, 0).R != 1 {
		t.Errorf("compose = %v %v", fb.GetPixel(0, 0), fb.GetPixel(1, 0))
	}
}

func TestFramebufferDrawImage(t *testing.T) {
	img := NewRGBImage(2, 2)
	img.SetRGB(0, 0, [3]uint8{255, 0, 0})

	fb := NewFramebuffer(4, 4)
	fb.DrawImage(img.ToImage(), false)
	if fb.GetPixel(1, 1).R != 255 || fb.GetPixel(3, 3).R != 0 {
		t.Errorf("nearest-neighbor scale: %v %v", fb.GetPixel(1, 1), fb.GetPixel(3, 3))
	}
}

func TestCameraWorldToScreen(t *testing.T) {
	cam := NewCamera()
	x, y, _, ok := cam.WorldToScreen(math3d.Zero3(), 100, 100)
	if !ok || x != 50 || y != 50 {
		t.Errorf("origin maps to (%v, %v, %v), want screen center", x, y, ok)
	}
	if _, _, _, ok := cam.WorldToScreen(math3d.V3(0, 0, 20), 100, 100); ok {
		t.Error("point behind the camera should not be visible")
	}
	_, y, _, _ = cam.WorldToScreen(math3d.V3(0, 1, 0), 100, 100)
	if y >= 50 {
		t.Errorf("world +Y should map above center, got y=%v", y)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
