package asset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
)

func TestAssetKeepsEveryChannel(t *testing.T) {
	m := &mesh.Mesh{
		Name:      "crate_FixedUV",
		Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   []mesh.Normal{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UV:        []mesh.UV{{0, 0}, {1, 0}, {0, 1}},
		UV4:       []mesh.UV{{0.25, 0.5}, {0.5, 0.5}, {0.5, 0.75}},
		Triangles: []int{0, 1, 2},
	}

	var buf bytes.Buffer
	require.NoError(t, formats.Save(&buf, "asset", m))
	assert.Contains(t, buf.String(), "guid: ")
	assert.NotContains(t, buf.String(), "uv2:")

	s, err := formats.Load("crate_FixedUV.asset", &buf)
	require.NoError(t, err)
	h, err := s.Resolve("crate_FixedUV")
	require.NoError(t, err)

	got := h.Mesh()
	assert.Equal(t, m.Positions, got.Positions)
	assert.Equal(t, m.UV, got.UV)
	assert.Equal(t, m.UV4, got.UV4)
	assert.Empty(t, got.UV2)
	assert.Equal(t, m.Triangles, got.Triangles)
}

func TestAssetValidation(t *testing.T) {
	_, err := Decode(strings.NewReader("version: 7\nname: x\n"))
	assert.Error(t, err)

	a, err := Decode(strings.NewReader("version: 1\nname: x\nvertexCount: 2\npositions: [[0, 0, 0]]\n"))
	require.NoError(t, err)
	_, err = a.Mesh()
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("version: 1\nuv: [[0, 0, 0]]\n"))
	assert.Error(t, err, "uv must have two components")
}
