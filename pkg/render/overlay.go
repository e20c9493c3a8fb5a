package render

import (
	"image/color"
	"math"

	"github.com/taigrr/facerecon/pkg/math3d"
)

// LandmarkColor is the default marker color for landmark overlays.
var LandmarkColor = color.RGBA{0, 255, 0, 255}

// DrawLandmarks marks each landmark with a small cross. Landmarks are in the
// projection's image space (y grows upward, extent imageSize) and are scaled
// to the framebuffer.
func DrawLandmarks(fb *Framebuffer, pts []math3d.Vec2, imageSize float64, c color.RGBA) {
	if imageSize <= 0 {
		return
	}
	sx := float64(fb.Width) / imageSize
	sy := float64(fb.Height) / imageSize
	arm := max(1, min(fb.Width, fb.Height)/64)

	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		x := int(math.Round(p.X * sx))
		y := int(math.Round((imageSize - p.Y) * sy))
		fb.DrawLine(x-arm, y, x+arm, y, c)
		fb.DrawLine(x, y-arm, x, y+arm, c)
	}
}

// Compose writes img over the framebuffer, leaving pixels where mask is 0
// untouched. img and mask must match the framebuffer size.
func (fb *Framebuffer) Compose(img *RGBImage, mask *Mask) {
	for y := range min(fb.Height, img.Height) {
		for x := range min(fb.Width, img.Width) {
			if mask != nil && mask.At(x, y) == 0 {
				continue
			}
			c := img.RGBAt(x, y)
			fb.Pixels[y*fb.Width+x] = color.RGBA{c[0], c[1], c[2], 255}
		}
	}
}
