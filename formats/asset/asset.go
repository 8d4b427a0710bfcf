// Package asset is yaml mesh asset, format used to save meshes with transferred uvs
package asset

import (
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
)

const Version = 1

type Asset struct {
	Version     int             `yaml:"version"`
	GUID        string          `yaml:"guid"`
	Name        string          `yaml:"name"`
	VertexCount int             `yaml:"vertexCount"`
	Positions   []mesh.Position `yaml:"positions,flow"`
	Normals     []mesh.Normal   `yaml:"normals,omitempty,flow"`
	UV          []mesh.UV       `yaml:"uv,omitempty,flow"`
	UV2         []mesh.UV       `yaml:"uv2,omitempty,flow"`
	UV3         []mesh.UV       `yaml:"uv3,omitempty,flow"`
	UV4         []mesh.UV       `yaml:"uv4,omitempty,flow"`
	Triangles   []int           `yaml:"triangles,flow"`
}

func FromMesh(m *mesh.Mesh) *Asset {
	return &Asset{
		Version:     Version,
		GUID:        uuid.New().String(),
		Name:        m.Name,
		VertexCount: m.VertexCount(),
		Positions:   m.Positions,
		Normals:     m.Normals,
		UV:          m.UV,
		UV2:         m.UV2,
		UV3:         m.UV3,
		UV4:         m.UV4,
		Triangles:   m.Triangles,
	}
}

func (a *Asset) Mesh() (*mesh.Mesh, error) {
	if a.VertexCount != len(a.Positions) {
		return nil, errors.Errorf("Asset %q declares %d vertices but has %d positions", a.Name, a.VertexCount, len(a.Positions))
	}
	return &mesh.Mesh{
		Name:      a.Name,
		Positions: a.Positions,
		Normals:   a.Normals,
		UV:        a.UV,
		UV2:       a.UV2,
		UV3:       a.UV3,
		UV4:       a.UV4,
		Triangles: a.Triangles,
	}, nil
}

func Encode(w io.Writer, m *mesh.Mesh) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(FromMesh(m)); err != nil {
		return errors.Wrapf(err, "Failed to marshal yaml")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrapf(err, "Failed to close yaml encoder")
	}
	return nil
}

func Decode(r io.Reader) (*Asset, error) {
	var a Asset
	if err := yaml.NewDecoder(r).Decode(&a); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal yaml")
	}
	if a.Version != Version {
		return nil, errors.Errorf("Unsupported asset version %d", a.Version)
	}
	return &a, nil
}

// Load makes scene with single object holding asset mesh in mesh filter
func Load(name string, r io.Reader) (*scene.Scene, error) {
	a, err := Decode(r)
	if err != nil {
		return nil, err
	}
	m, err := a.Mesh()
	if err != nil {
		return nil, err
	}

	s := scene.NewScene(name)
	s.Root.AddChild(&scene.Object{
		Name:   a.Name,
		Filter: &scene.Renderer{Kind: scene.Static, SharedMesh: m},
	})
	return s, nil
}

func init() {
	formats.Register(&formats.Format{
		Name: "asset",
		Exts: []string{".asset"},
		Load: Load,
		Save: Encode,
	})
}
