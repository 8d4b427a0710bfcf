// Package uvraster draws uv layout of mesh: triangle edges and vertex points in uv space.
//
// Raster is stored as regular go image (row 0 at the top) with v=0 on the bottom row,
// so encoded preview looks the same as texture it maps to.
package uvraster

import (
	"image"
	"image/color"
	"math"

	"github.com/inimart/uv_transfer_tool/mesh"
)

const DefaultResolution = 512

var (
	BackgroundColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff} // 0.2 gray
	LineColor       = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	PointColor      = color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
)

type canvas struct {
	img        *image.RGBA
	resolution int
}

func (c *canvas) inside(x, y int) bool {
	return x >= 0 && x < c.resolution && y >= 0 && y < c.resolution
}

// set silently drops pixels outside of image
func (c *canvas) set(x, y int, col color.RGBA) {
	if c.inside(x, y) {
		c.img.SetRGBA(x, c.resolution-1-y, col)
	}
}

// toPixel maps uv to pixel space without clamping, halfway values round to even.
// Coordinates not representable as int32 are rejected like NaN and Inf
func (c *canvas) toPixel(uv mesh.UV) (int, int, bool) {
	x := math.RoundToEven(float64(uv[0] * float32(c.resolution)))
	y := math.RoundToEven(float64(uv[1] * float32(c.resolution)))
	if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > math.MaxInt32 || math.Abs(y) > math.MaxInt32 {
		return 0, 0, false
	}
	return int(x), int(y), true
}

// line draws same pixels as integer bresenham with endpoints inclusive.
// Step k along major axis is offset on minor axis by dminor*k/dmajor, halves rounded towards
// start point, so only steps inside of image are visited
func (c *canvas) line(_x0, _y0, _x1, _y1 int, col color.RGBA) {
	x0, y0, x1, y1 := int64(_x0), int64(_y0), int64(_x1), int64(_y1)
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)

	if dx >= dy {
		from, to := c.steps(x0, sx, dx)
		for k := from; k <= to; k++ {
			c.set(int(x0+sx*k), int(y0+sy*minor(dy, dx, k)), col)
		}
	} else {
		from, to := c.steps(y0, sy, dy)
		for k := from; k <= to; k++ {
			c.set(int(x0+sx*minor(dx, dy, k)), int(y0+sy*k), col)
		}
	}
}

// steps returns range of k in [0, count] for which start+dir*k is inside of image
func (c *canvas) steps(start, dir, count int64) (from, to int64) {
	res := int64(c.resolution)
	switch dir {
	case 1:
		from, to = -start, res-1-start
	case -1:
		from, to = start-res+1, start
	default:
		if start < 0 || start >= res {
			return 0, -1
		}
		return 0, 0
	}
	if from < 0 {
		from = 0
	}
	if to > count {
		to = count
	}
	return from, to
}

// minor is round(dminor*k/dmajor) with halves rounded down, operands fit in uint32
func minor(dminor, dmajor, k int64) int64 {
	if dmajor == 0 {
		return 0
	}
	p := uint64(dminor) * uint64(k)
	q, r := p/uint64(dmajor), p%uint64(dmajor)
	if 2*r > uint64(dmajor) {
		q++
	}
	return int64(q)
}

// point stamps 3x3 block, neighbours outside of image are clipped
func (c *canvas) point(x, y int, col color.RGBA) {
	if !c.inside(x, y) {
		return
	}
	for ox := -1; ox <= 1; ox++ {
		for oy := -1; oy <= 1; oy++ {
			c.set(x+ox, y+oy, col)
		}
	}
}

func newCanvas(resolution int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, resolution, resolution))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = BackgroundColor.R
		img.Pix[i+1] = BackgroundColor.G
		img.Pix[i+2] = BackgroundColor.B
		img.Pix[i+3] = BackgroundColor.A
	}
	return &canvas{img: img, resolution: resolution}
}

// Render draws triangles edges and then uv points on top of them.
// Triangles referencing uv out of range are skipped. Trailing incomplete triangle is ignored.
// Non positive resolution produces empty image.
func Render(uvs []mesh.UV, triangles []int, resolution int) *image.RGBA {
	if resolution <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	c := newCanvas(resolution)
	if len(uvs) == 0 {
		return c.img
	}

	for i := 0; i+2 < len(triangles); i += 3 {
		a, b, d := triangles[i], triangles[i+1], triangles[i+2]
		if !inRange(a, len(uvs)) || !inRange(b, len(uvs)) || !inRange(d, len(uvs)) {
			continue
		}

		x1, y1, ok1 := c.toPixel(uvs[a])
		x2, y2, ok2 := c.toPixel(uvs[b])
		x3, y3, ok3 := c.toPixel(uvs[d])
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		c.line(x1, y1, x2, y2, LineColor)
		c.line(x2, y2, x3, y3, LineColor)
		c.line(x3, y3, x1, y1, LineColor)
	}

	for _, uv := range uvs {
		if x, y, ok := c.toPixel(uv); ok {
			c.point(x, y, PointColor)
		}
	}

	return c.img
}

// RenderMesh renders selected channel of mesh, unsupported channels fall back to channel 0
func RenderMesh(m *mesh.Mesh, ch mesh.Channel, resolution int) *image.RGBA {
	return Render(m.Channel(ch.OrDefault()), m.Triangles, resolution)
}

func inRange(i, l int) bool {
	return i >= 0 && i < l
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
