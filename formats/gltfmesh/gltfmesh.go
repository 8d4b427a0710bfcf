// Package gltfmesh loads gltf/glb scenes and saves single mesh as gltf document
package gltfmesh

import (
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/utils/gltfutils"
)

func texCoordAttribute(ch mesh.Channel) string {
	return fmt.Sprintf("TEXCOORD_%d", ch)
}

type importer struct {
	doc    *gltf.Document
	meshes map[uint32]*mesh.Mesh // nodes share meshes same as renderers do
}

func (imp *importer) accessor(i uint32) (*gltf.Accessor, error) {
	if int(i) >= len(imp.doc.Accessors) {
		return nil, errors.Errorf("Accessor index %d out of range", i)
	}
	a := imp.doc.Accessors[i]
	if a.BufferView != nil {
		if int(*a.BufferView) >= len(imp.doc.BufferViews) {
			return nil, errors.Errorf("Accessor %d buffer view %d out of range", i, *a.BufferView)
		}
		if view := imp.doc.BufferViews[*a.BufferView]; int(view.Buffer) >= len(imp.doc.Buffers) {
			return nil, errors.Errorf("Buffer view %d buffer %d out of range", *a.BufferView, view.Buffer)
		}
	}
	return a, nil
}

// primitives of gltf mesh are merged into one mesh.
// Uv channel is kept only if every primitive has it
func (imp *importer) mesh(iMesh uint32) (*mesh.Mesh, error) {
	if m, ok := imp.meshes[iMesh]; ok {
		return m, nil
	}
	if int(iMesh) >= len(imp.doc.Meshes) {
		return nil, errors.Errorf("Mesh index %d out of range", iMesh)
	}
	gm := imp.doc.Meshes[iMesh]

	m := &mesh.Mesh{Name: gm.Name}
	if m.Name == "" {
		m.Name = fmt.Sprintf("mesh%d", iMesh)
	}

	var channels [mesh.ChannelsCount][]mesh.UV
	var haveChannel [mesh.ChannelsCount]bool
	for i := range haveChannel {
		haveChannel[i] = true
	}
	haveNormals := true
	primitives := 0

	for iPrimitive, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			log.Printf("[gltf] Skipping primitive %d of mesh %q: not triangles", iPrimitive, m.Name)
			continue
		}
		iPosition, ok := p.Attributes["POSITION"]
		if !ok {
			log.Printf("[gltf] Skipping primitive %d of mesh %q: no positions", iPrimitive, m.Name)
			continue
		}
		a, err := imp.accessor(iPosition)
		if err != nil {
			return nil, errors.Wrapf(err, "Mesh %q primitive %d positions", m.Name, iPrimitive)
		}
		positions, err := modeler.ReadPosition(imp.doc, a, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "Mesh %q primitive %d positions", m.Name, iPrimitive)
		}
		offset := len(m.Positions)
		primitives++

		for _, pos := range positions {
			m.Positions = append(m.Positions, pos)
		}

		if iNormal, ok := p.Attributes["NORMAL"]; ok && haveNormals {
			a, err := imp.accessor(iNormal)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d normals", m.Name, iPrimitive)
			}
			normals, err := modeler.ReadNormal(imp.doc, a, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d normals", m.Name, iPrimitive)
			}
			for _, n := range normals {
				m.Normals = append(m.Normals, n)
			}
		} else {
			haveNormals = false
		}

		for ch := mesh.Channel(0); ch < mesh.ChannelsCount; ch++ {
			iUV, ok := p.Attributes[texCoordAttribute(ch)]
			if !ok || !haveChannel[ch] {
				haveChannel[ch] = false
				continue
			}
			a, err := imp.accessor(iUV)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d %s", m.Name, iPrimitive, texCoordAttribute(ch))
			}
			uvs, err := modeler.ReadTextureCoord(imp.doc, a, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d %s", m.Name, iPrimitive, texCoordAttribute(ch))
			}
			for _, uv := range uvs {
				channels[ch] = append(channels[ch], uv)
			}
		}

		if p.Indices != nil {
			a, err := imp.accessor(*p.Indices)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d indices", m.Name, iPrimitive)
			}
			indices, err := modeler.ReadIndices(imp.doc, a, nil)
			if err != nil {
				return nil, errors.Wrapf(err, "Mesh %q primitive %d indices", m.Name, iPrimitive)
			}
			for _, index := range indices {
				m.Triangles = append(m.Triangles, offset+int(index))
			}
		} else {
			for i := range positions {
				m.Triangles = append(m.Triangles, offset+i)
			}
		}
	}

	if !haveNormals {
		m.Normals = nil
	}
	if primitives != 0 {
		for ch := mesh.Channel(0); ch < mesh.ChannelsCount; ch++ {
			if haveChannel[ch] {
				m.SetChannel(ch, channels[ch])
			}
		}
	}

	imp.meshes[iMesh] = m
	return m, nil
}

func (imp *importer) node(iNode uint32, parent *scene.Object, visiting map[uint32]bool) error {
	if int(iNode) >= len(imp.doc.Nodes) {
		return errors.Errorf("Node index %d out of range", iNode)
	}
	if visiting[iNode] {
		return errors.Errorf("Node %d is own ancestor", iNode)
	}
	visiting[iNode] = true
	defer delete(visiting, iNode)

	n := imp.doc.Nodes[iNode]
	o := parent.AddChild(&scene.Object{Name: n.Name})

	if n.Mesh != nil {
		m, err := imp.mesh(*n.Mesh)
		if err != nil {
			return err
		}
		if n.Skin != nil {
			o.Skinned = &scene.Renderer{Kind: scene.Skinned, SharedMesh: m}
		} else {
			o.Filter = &scene.Renderer{Kind: scene.Static, SharedMesh: m}
		}
	}

	for _, iChild := range n.Children {
		if err := imp.node(iChild, o, visiting); err != nil {
			return err
		}
	}
	return nil
}

// roots are nodes of default scene, or nodes without parent when scene lists none
func (imp *importer) roots() []uint32 {
	if len(imp.doc.Scenes) != 0 {
		iScene := uint32(0)
		if imp.doc.Scene != nil && int(*imp.doc.Scene) < len(imp.doc.Scenes) {
			iScene = *imp.doc.Scene
		}
		if nodes := imp.doc.Scenes[iScene].Nodes; len(nodes) != 0 {
			return nodes
		}
	}

	isChild := make(map[uint32]bool)
	for _, n := range imp.doc.Nodes {
		for _, iChild := range n.Children {
			isChild[iChild] = true
		}
	}
	roots := make([]uint32, 0)
	for iNode := range imp.doc.Nodes {
		if !isChild[uint32(iNode)] {
			roots = append(roots, uint32(iNode))
		}
	}
	return roots
}

func SceneFromDocument(name string, doc *gltf.Document) (*scene.Scene, error) {
	imp := &importer{doc: doc, meshes: make(map[uint32]*mesh.Mesh)}
	s := scene.NewScene(name)
	for _, iNode := range imp.roots() {
		if err := imp.node(iNode, s.Root, make(map[uint32]bool)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func Load(name string, r io.Reader) (*scene.Scene, error) {
	doc, err := gltfutils.Import(r)
	if err != nil {
		return nil, err
	}
	return SceneFromDocument(name, doc)
}

func DocumentFromMesh(m *mesh.Mesh) *gltf.Document {
	doc := gltfutils.NewDocument()
	attributes := make(map[string]uint32)

	{
		positions := make([][3]float32, len(m.Positions))
		for iVertex, pos := range m.Positions {
			positions[iVertex] = pos
		}
		attributes["POSITION"] = modeler.WritePosition(doc, positions)
	}

	if len(m.Normals) != 0 && len(m.Normals) == m.VertexCount() {
		normals := make([][3]float32, len(m.Normals))
		for iVertex, normal := range m.Normals {
			normals[iVertex] = normal
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	for iChannel, channel := range m.Channels() {
		if len(channel) == 0 {
			continue
		}
		uvs := make([][2]float32, len(channel))
		for iVertex, uv := range channel {
			uvs[iVertex] = uv
		}
		attributes[texCoordAttribute(mesh.Channel(iChannel))] = modeler.WriteTextureCoord(doc, uvs)
	}

	indices := make([]uint32, len(m.Triangles))
	for i, index := range m.Triangles {
		indices[i] = uint32(index)
	}
	indicesAccessor := modeler.WriteIndices(doc, indices)

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Name,
		Primitives: []*gltf.Primitive{
			&gltf.Primitive{
				Indices:    &indicesAccessor,
				Attributes: attributes,
			},
		},
	})
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name: m.Name,
		Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
	})
	return doc
}

func SaveBinary(w io.Writer, m *mesh.Mesh) error {
	return gltfutils.Export(w, DocumentFromMesh(m), true)
}

func SaveText(w io.Writer, m *mesh.Mesh) error {
	return gltfutils.Export(w, DocumentFromMesh(m), false)
}

func init() {
	formats.Register(&formats.Format{
		Name: "glb",
		Exts: []string{".glb"},
		Load: Load,
		Save: SaveBinary,
	})
	formats.Register(&formats.Format{
		Name: "gltf",
		Exts: []string{".gltf"},
		Load: Load,
		Save: SaveText,
	})
}
