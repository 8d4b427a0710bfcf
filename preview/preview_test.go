package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/uvraster"
)

func testMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Positions: make([]mesh.Position, 3),
		UV:        []mesh.UV{{0.1, 0.1}, {0.9, 0.1}, {0.5, 0.8}},
		Triangles: []int{0, 1, 2},
	}
}

func TestEncode(t *testing.T) {
	img := uvraster.RenderMesh(testMesh(), 0, 64)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, PNG))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	assert.Equal(t, img.At(6, 57), decoded.At(6, 57))

	buf.Reset()
	require.NoError(t, Encode(&buf, img, BMP))
	decoded, err = bmp.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.Error(t, Encode(&buf, img, Format("gif")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	f, err = ParseFormat("bmp")
	require.NoError(t, err)
	assert.Equal(t, "image/bmp", f.ContentType())

	_, err = ParseFormat("jpg")
	assert.Error(t, err)
}

func TestScale(t *testing.T) {
	img := uvraster.RenderMesh(testMesh(), 0, 32)
	assert.Same(t, img, Scale(img, 0))
	assert.Same(t, img, Scale(img, 32))

	scaled := Scale(img, 96)
	assert.Equal(t, 96, scaled.Bounds().Dx())
	assert.Equal(t, 96, scaled.Bounds().Dy())

	assert.Equal(t, MaxSize, Scale(img, MaxSize*2).Bounds().Dx())
}

func TestRenderUsesConfiguredResolution(t *testing.T) {
	img := Render(testMesh(), 9, 0)
	assert.Equal(t, uvraster.DefaultResolution, img.Bounds().Dx())
}
