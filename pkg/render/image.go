package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// RGBImage is an 8-bit RGB image, row-major with row 0 at the top.
type RGBImage struct {
	Width  int
	Height int
	Pix    []uint8 // 3 bytes per pixel
}

// NewRGBImage allocates a black image.
func NewRGBImage(width, height int) *RGBImage {
	return &RGBImage{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// RGBAt returns the pixel at (x, y).
func (m *RGBImage) RGBAt(x, y int) [3]uint8 {
	i := (y*m.Width + x) * 3
	return [3]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

// SetRGB sets the pixel at (x, y).
func (m *RGBImage) SetRGB(x, y int, c [3]uint8) {
	i := (y*m.Width + x) * 3
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = c[0], c[1], c[2]
}

// ToImage converts to an opaque image.RGBA.
func (m *RGBImage) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			c := m.RGBAt(x, y)
			img.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], 255})
		}
	}
	return img
}

// ToImageMasked converts to an image.NRGBA whose alpha comes from mask.
func (m *RGBImage) ToImageMasked(mask *Mask) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			c := m.RGBAt(x, y)
			a := uint8(0)
			if mask.At(x, y) > 0 {
				a = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{c[0], c[1], c[2], a})
		}
	}
	return img
}

// Mask is a single-channel coverage mask holding 0 or 1 per pixel.
type Mask struct {
	Width  int
	Height int
	Pix    []float32
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// At returns the mask value at (x, y).
func (m *Mask) At(x, y int) float32 {
	return m.Pix[y*m.Width+x]
}

// Set sets the mask value at (x, y).
func (m *Mask) Set(x, y int, v float32) {
	m.Pix[y*m.Width+x] = v
}

// Coverage returns the fraction of pixels set in the mask.
func (m *Mask) Coverage() float64 {
	if len(m.Pix) == 0 {
		return 0
	}
	var n int
	for _, v := range m.Pix {
		if v > 0 {
			n++
		}
	}
	return float64(n) / float64(len(m.Pix))
}

// ToImage converts to a black and white image.Gray.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v > 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// Upscale resizes src to size x size with Catmull-Rom filtering.
func Upscale(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SavePNG writes img to path as PNG.
func SavePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
