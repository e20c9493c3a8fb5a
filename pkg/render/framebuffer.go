package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Framebuffer is an 8-bit RGBA canvas used for overlays and terminal display.
// Terminal output draws two framebuffer rows per cell with half blocks, so
// Height is usually twice the number of terminal rows.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets a pixel at (x, y). Out-of-bounds writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRect draws a filled rectangle.
func (fb *Framebuffer) DrawRect(x, y, w, h int, c color.RGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			fb.SetPixel(px, py, c)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// DrawImage scales src to fill the framebuffer. Nearest-neighbor keeps the
// pixel grid of low-resolution tiers visible; smooth uses Catmull-Rom.
func (fb *Framebuffer) DrawImage(src image.Image, smooth bool) {
	dst := fb.ToImage()
	scaler := draw.Scaler(draw.NearestNeighbor)
	if smooth {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	for y := range fb.Height {
		for x := range fb.Width {
			fb.Pixels[y*fb.Width+x] = dst.RGBAAt(x, y)
		}
	}
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// sampleBuffer is the supersampled render target of the software rasterizer:
// linear color, NDC depth and a coverage flag per sample.
type sampleBuffer struct {
	width   int
	height  int
	color   []float64 // 3 per sample
	depth   []float64
	covered []bool
}

func newSampleBuffer(width, height int) *sampleBuffer {
	sb := &sampleBuffer{
		width:   width,
		height:  height,
		color:   make([]float64, width*height*3),
		depth:   make([]float64, width*height),
		covered: make([]bool, width*height),
	}
	sb.clearDepth()
	return sb
}

// clearDepth resets the depth buffer using copy-doubling.
func (sb *sampleBuffer) clearDepth() {
	n := len(sb.depth)
	if n == 0 {
		return
	}
	sb.depth[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(sb.depth[i:], sb.depth[:i])
	}
}

// test reports whether z is nearer than the stored depth at (x, y).
func (sb *sampleBuffer) test(x, y int, z float64) bool {
	if x < 0 || x >= sb.width || y < 0 || y >= sb.height {
		return false
	}
	return z < sb.depth[y*sb.width+x]
}

func (sb *sampleBuffer) write(x, y int, z float64, c [3]float64) {
	i := y*sb.width + x
	sb.depth[i] = z
	sb.covered[i] = true
	copy(sb.color[i*3:i*3+3], c[:])
}

// resolve averages each sx x sy block into one output pixel. A pixel is
// opaque when at least half of its samples are covered; its color is the
// mean of the covered samples. Other pixels are transparent black.
func (sb *sampleBuffer) resolve(sx, sy int) *RGBABuffer {
	out := NewRGBABuffer(sb.width/sx, sb.height/sy)
	total := sx * sy

	for y := range out.Height {
		for x := range out.Width {
			var sum [3]float64
			hits := 0
			for j := range sy {
				row := (y*sy + j) * sb.width
				for i := range sx {
					idx := row + x*sx + i
					if !sb.covered[idx] {
						continue
					}
					hits++
					sum[0] += sb.color[idx*3]
					sum[1] += sb.color[idx*3+1]
					sum[2] += sb.color[idx*3+2]
				}
			}
			if hits*2 < total {
				continue
			}
			inv := 1 / float64(hits)
			out.Set(x, y, [4]float32{
				float32(sum[0] * inv),
				float32(sum[1] * inv),
				float32(sum[2] * inv),
				1,
			})
		}
	}
	return out
}
