package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inimart/uv_transfer_tool/mesh"
)

func testScene() (*Scene, *mesh.Mesh, *mesh.Mesh) {
	body := &mesh.Mesh{Name: "body", Positions: make([]mesh.Position, 3), UV: make([]mesh.UV, 3)}
	prop := &mesh.Mesh{Name: "prop", Positions: make([]mesh.Position, 4)}

	s := NewScene("character.glb")
	character := s.Root.AddChild(&Object{Name: "character"})
	character.AddChild(&Object{Name: "prop", Filter: &Renderer{Kind: Static, SharedMesh: prop}})
	armature := character.AddChild(&Object{Name: "armature"})
	armature.AddChild(&Object{Name: "body", Skinned: &Renderer{Kind: Skinned, SharedMesh: body}})
	s.Root.AddChild(&Object{Name: "empty"})
	s.Root.AddChild(&Object{Name: "broken", Filter: &Renderer{Kind: Static}})
	return s, body, prop
}

func TestResolvePrefersSkinned(t *testing.T) {
	s, body, prop := testScene()

	// static prop comes first in tree but skinned renderer is searched first
	h, err := s.Resolve("character")
	require.NoError(t, err)
	assert.Equal(t, Skinned, h.Kind())
	assert.Same(t, body, h.Mesh())

	h, err = s.Resolve("character/prop")
	require.NoError(t, err)
	assert.Equal(t, Static, h.Kind())
	assert.Same(t, prop, h.Mesh())
}

func TestResolveErrors(t *testing.T) {
	s, _, _ := testScene()

	_, err := s.Resolve("empty")
	assert.True(t, errors.Is(err, ErrNoMesh))

	_, err = s.Resolve("broken")
	assert.True(t, errors.Is(err, ErrNoMesh))

	_, err = s.Resolve("character/missing")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMesh))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAssignMesh(t *testing.T) {
	s, body, _ := testScene()
	h, err := s.Resolve("character/armature/body")
	require.NoError(t, err)

	fixed := body.Clone()
	fixed.Name = "body_FixedUV"
	AssignMesh(h, fixed)

	h, err = s.Resolve("character")
	require.NoError(t, err)
	assert.Same(t, fixed, h.Mesh())
	assert.Equal(t, "body", body.Name)
}

func TestObjects(t *testing.T) {
	s, _, _ := testScene()
	infos := s.Objects()

	paths := make([]string, len(infos))
	for i, info := range infos {
		paths[i] = info.Path
	}
	assert.Equal(t, []string{
		"character", "character/prop", "character/armature", "character/armature/body", "empty", "broken",
	}, paths)

	assert.Equal(t, Skinned, infos[0].Kind)
	assert.Equal(t, 3, infos[0].VertexCount)
	assert.Equal(t, [mesh.ChannelsCount]int{3, 0, 0, 0}, infos[0].UVCounts)
	assert.Equal(t, Static, infos[1].Kind)
	assert.Empty(t, infos[4].Kind)
}

func TestNameUnnamed(t *testing.T) {
	s := NewScene("x.glb")
	a := s.Root.AddChild(&Object{})
	b := a.AddChild(&Object{})
	s.NameUnnamed()

	assert.NotEmpty(t, a.Name)
	assert.NotEmpty(t, b.Name)
	found, err := s.Find(a.Name + "/" + b.Name)
	require.NoError(t, err)
	assert.Same(t, b, found)
}
