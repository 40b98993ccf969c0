package capture

import (
	"image"
	"image/color"
	"image/draw"

	"posemarket-be/pkg/pose"
)

var (
	jointColor = color.RGBA{R: 0, G: 220, B: 130, A: 255}
	edgeColor  = color.RGBA{R: 0, G: 180, B: 255, A: 255}
)

// Compositor owns the surface every frame is drawn onto. The encoder
// reads the same surface, so blur, skeleton, and recorded pixels are
// always consistent with each other. Not safe for concurrent use; the
// session loop is its only caller.
type Compositor struct {
	surface *image.RGBA
}

func NewCompositor(width, height int) *Compositor {
	return &Compositor{surface: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Compositor) Surface() *image.RGBA {
	return c.surface
}

func (c *Compositor) Width() int  { return c.surface.Rect.Dx() }
func (c *Compositor) Height() int { return c.surface.Rect.Dy() }

// DrawFrame paints the raw camera frame onto the surface.
func (c *Compositor) DrawFrame(img image.Image) {
	draw.Draw(c.surface, c.surface.Rect, img, img.Bounds().Min, draw.Src)
}

// Redact box-blurs the face region in place. Runs before the skeleton
// overlay and before the surface is handed to the encoder. Returns
// false when no usable face region exists for this frame; the frame is
// still encoded.
func (c *Compositor) Redact(f pose.Frame) bool {
	region, ok := pose.FaceRegion(f, c.Width(), c.Height())
	if !ok {
		return false
	}
	radius := region.Dx() / 6
	if radius < 4 {
		radius = 4
	}
	boxBlur(c.surface, region, radius)
	return true
}

// DrawSkeleton overlays edges and joints for reliable keypoints only.
func (c *Compositor) DrawSkeleton(f pose.Frame) {
	for _, e := range pose.Edges(f) {
		drawLine(c.surface, int(e[0].X), int(e[0].Y), int(e[1].X), int(e[1].Y), edgeColor)
	}
	for _, k := range f.Keypoints {
		if !k.Reliable() {
			continue
		}
		drawDot(c.surface, int(k.X), int(k.Y), 3, jointColor)
	}
}

// boxBlur runs two horizontal+vertical passes over the region, which
// approximates a gaussian well enough to defeat recognition.
func boxBlur(img *image.RGBA, region image.Rectangle, radius int) {
	for pass := 0; pass < 2; pass++ {
		blurAxis(img, region, radius, true)
		blurAxis(img, region, radius, false)
	}
}

func blurAxis(img *image.RGBA, region image.Rectangle, radius int, horizontal bool) {
	src := make([]uint8, len(img.Pix))
	copy(src, img.Pix)

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			var r, g, b, n int
			for d := -radius; d <= radius; d++ {
				sx, sy := x, y
				if horizontal {
					sx += d
				} else {
					sy += d
				}
				if sx < region.Min.X || sx >= region.Max.X || sy < region.Min.Y || sy >= region.Max.Y {
					continue
				}
				o := img.PixOffset(sx, sy)
				r += int(src[o])
				g += int(src[o+1])
				b += int(src[o+2])
				n++
			}
			if n == 0 {
				continue
			}
			o := img.PixOffset(x, y)
			img.Pix[o] = uint8(r / n)
			img.Pix[o+1] = uint8(g / n)
			img.Pix[o+2] = uint8(b / n)
		}
	}
}

func drawDot(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) > r*r {
				continue
			}
			if image.Pt(x, y).In(img.Rect) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// Bresenham.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Rect) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
