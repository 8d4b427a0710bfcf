// Package preview turns uv rasters into png/bmp images for display
package preview

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/bmp"

	"github.com/inimart/uv_transfer_tool/config"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/uvraster"
)

// MaxSize limits display scaling
const MaxSize = 4096

type Format string

const (
	PNG Format = "png"
	BMP Format = "bmp"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case PNG, BMP:
		return f, nil
	}
	return "", fmt.Errorf("Unknown preview format '%s'", s)
}

func (f Format) ContentType() string {
	if f == BMP {
		return "image/bmp"
	}
	return "image/png"
}

func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("Unknown preview format '%s'", f)
}

// Scale resizes image to size x size without smoothing, so lines stay one color.
// Non positive size keeps image as is
func Scale(img *image.RGBA, size int) *image.RGBA {
	if size <= 0 || size == img.Bounds().Dx() && size == img.Bounds().Dy() {
		return img
	}
	if size > MaxSize {
		size = MaxSize
	}
	return transform.Resize(img, size, size, transform.NearestNeighbor)
}

// Render rasterizes mesh channel at configured resolution and scales it to display size
func Render(m *mesh.Mesh, ch mesh.Channel, size int) *image.RGBA {
	return Scale(uvraster.RenderMesh(m, ch, config.GetPreviewResolution()), size)
}
