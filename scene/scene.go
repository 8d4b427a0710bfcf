// Package scene is the mesh access layer: objects tree where every object may carry
// skinned renderer and/or mesh filter, both referencing shared mesh.
package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/utils"
)

var (
	ErrNoMesh   = errors.New("object doesn't have a mesh")
	ErrNotFound = errors.New("no such object")
)

type RendererKind string

const (
	Skinned RendererKind = "skinned"
	Static  RendererKind = "static"
)

type Renderer struct {
	Kind       RendererKind
	SharedMesh *mesh.Mesh
}

type Object struct {
	Name     string
	Skinned  *Renderer
	Filter   *Renderer
	Children []*Object
}

func (o *Object) AddChild(child *Object) *Object {
	o.Children = append(o.Children, child)
	return child
}

// Walk visits object and then its children depth first until fn returns false
func (o *Object) Walk(fn func(o *Object, path string) bool) {
	o.walk("", fn)
}

func (o *Object) walk(path string, fn func(o *Object, path string) bool) bool {
	if !fn(o, path) {
		return false
	}
	for _, child := range o.Children {
		childPath := child.Name
		if path != "" {
			childPath = path + "/" + child.Name
		}
		if !child.walk(childPath, fn) {
			return false
		}
	}
	return true
}

func (o *Object) findRenderer(get func(o *Object) *Renderer) (found *Renderer) {
	o.Walk(func(o *Object, _ string) bool {
		if r := get(o); r != nil {
			found = r
			return false
		}
		return true
	})
	return found
}

// Handle is resolved mesh together with renderer it came from
type Handle struct {
	Object   *Object
	Renderer *Renderer
}

func (h *Handle) Mesh() *mesh.Mesh {
	return h.Renderer.SharedMesh
}

func (h *Handle) Kind() RendererKind {
	return h.Renderer.Kind
}

// ResolveMesh looks for skinned renderer in object and its children,
// and only then for mesh filter. Renderer without mesh is ErrNoMesh
func (o *Object) ResolveMesh() (*Handle, error) {
	r := o.findRenderer(func(o *Object) *Renderer { return o.Skinned })
	if r == nil {
		r = o.findRenderer(func(o *Object) *Renderer { return o.Filter })
	}
	if r == nil || r.SharedMesh == nil {
		return nil, fmt.Errorf("%q: %w", o.Name, ErrNoMesh)
	}
	return &Handle{Object: o, Renderer: r}, nil
}

// AssignMesh replaces mesh of live renderer. This is the only place where scene is changed
func AssignMesh(h *Handle, m *mesh.Mesh) {
	h.Renderer.SharedMesh = m
}

// Scene root is unnamed container for top level objects
type Scene struct {
	Name string
	Root *Object
}

func NewScene(name string) *Scene {
	return &Scene{Name: name, Root: &Object{}}
}

// Find returns object by slash separated names path, empty path is scene root
func (s *Scene) Find(path string) (*Object, error) {
	o := s.Root
	if path == "" {
		return o, nil
	}
	for _, name := range strings.Split(path, "/") {
		var next *Object
		for _, child := range o.Children {
			if child.Name == name {
				next = child
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("Cannot find object %q in %q: %w", path, s.Name, ErrNotFound)
		}
		o = next
	}
	return o, nil
}

func (s *Scene) Resolve(path string) (*Handle, error) {
	o, err := s.Find(path)
	if err != nil {
		return nil, err
	}
	return o.ResolveMesh()
}

// NameUnnamed gives generated names to objects without one, so every object has a path
func (s *Scene) NameUnnamed() {
	var rng utils.RandomNameGenerator
	s.Root.Walk(func(o *Object, _ string) bool {
		for _, child := range o.Children {
			if child.Name == "" {
				child.Name = rng.RandomName()
			}
		}
		return true
	})
}

type ObjectInfo struct {
	Path          string
	Kind          RendererKind `json:",omitempty"`
	MeshName      string       `json:",omitempty"`
	VertexCount   int
	TriangleCount int
	UVCounts      [mesh.ChannelsCount]int
}

// Objects lists every object below root with mesh it resolves to
func (s *Scene) Objects() []ObjectInfo {
	list := make([]ObjectInfo, 0)
	s.Root.Walk(func(o *Object, path string) bool {
		if o == s.Root {
			return true
		}
		info := ObjectInfo{Path: path}
		if h, err := o.ResolveMesh(); err == nil {
			m := h.Mesh()
			info.Kind = h.Kind()
			info.MeshName = m.Name
			info.VertexCount = m.VertexCount()
			info.TriangleCount = m.TriangleCount()
			for i, uvs := range m.Channels() {
				info.UVCounts[i] = len(uvs)
			}
		}
		list = append(list, info)
		return true
	})
	return list
}
