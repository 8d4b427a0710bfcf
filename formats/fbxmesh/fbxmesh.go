// Package fbxmesh exports mesh into binary fbx 7.4, every non empty uv channel goes into own layer
package fbxmesh

import (
	"io"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/utils/fbxbuilder"
)

type FbxExporter struct {
	GeometryId int64
	Geometry   *fbx.Node
	ModelId    int64
	Model      *fbx.Node
}

func layer(ch mesh.Channel) *fbx.Node {
	switch ch {
	case 1:
		return bfbx73.Layer(1)
	case 2:
		return bfbx73.Layer(2)
	case 3:
		return bfbx73.Layer(3)
	}
	return bfbx73.Layer(0)
}

func layerElementUV(ch mesh.Channel) *fbx.Node {
	switch ch {
	case 1:
		return bfbx73.LayerElementUV(1)
	case 2:
		return bfbx73.LayerElementUV(2)
	case 3:
		return bfbx73.LayerElementUV(3)
	}
	return bfbx73.LayerElementUV(0)
}

func typedIndex(ch mesh.Channel) *fbx.Node {
	switch ch {
	case 1:
		return bfbx73.TypedIndex(1)
	case 2:
		return bfbx73.TypedIndex(2)
	case 3:
		return bfbx73.TypedIndex(3)
	}
	return bfbx73.TypedIndex(0)
}

func uvSetName(ch mesh.Channel) string {
	return []string{"map1", "map2", "map3", "map4"}[ch]
}

func setTemplates(f *fbxbuilder.FBXBuilder) {
	f.SetTemplate("Model", bfbx73.PropertyTemplate("FbxNode").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("QuaternionInterpolate", "enum", "", "", int32(0)),
			bfbx73.P("Show", "bool", "", "", int32(1)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
			bfbx73.P("Visibility Inheritance", "Visibility Inheritance", "", "", int32(1)),
		),
	))
	f.SetTemplate("Geometry", bfbx73.PropertyTemplate("FbxMesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Primary Visibility", "bool", "", "", int32(1)),
			bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
			bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
		),
	))
}

// Export adds model with geometry to f, caller connects model to parent
func Export(f *fbxbuilder.FBXBuilder, m *mesh.Mesh) (*FbxExporter, error) {
	vertices := make([]float64, 0, len(m.Positions)*3)
	for _, pos := range m.Positions {
		vertices = append(vertices, float64(pos[0]), float64(pos[1]), float64(pos[2]))
	}

	indexes := make([]int32, 0, len(m.Triangles))
	for iIndex := 0; iIndex+2 < len(m.Triangles); iIndex += 3 {
		tri := m.Triangles[iIndex : iIndex+3]
		for _, index := range tri {
			if index < 0 || index >= m.VertexCount() {
				return nil, errors.Errorf("Mesh %q index %d out of range [0:%d]", m.Name, index, m.VertexCount())
			}
		}
		// polygon end is marked by negative index
		indexes = append(indexes, int32(tri[0]), int32(tri[1]), -int32(tri[2])-1)
	}

	fe := &FbxExporter{GeometryId: f.GenerateId()}

	layers := make([]*fbx.Node, 0, mesh.ChannelsCount)
	getLayer := func(i int) *fbx.Node {
		for len(layers) <= i {
			layers = append(layers, layer(mesh.Channel(len(layers))).AddNodes(bfbx73.Version(100)))
		}
		return layers[i]
	}

	fe.Geometry = bfbx73.Geometry(fe.GeometryId, m.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
	)

	if len(m.Normals) != 0 && len(m.Normals) == m.VertexCount() {
		normals := make([]float64, 0, len(m.Normals)*3)
		for _, normal := range m.Normals {
			normals = append(normals, float64(normal[0]), float64(normal[1]), float64(normal[2]))
		}
		fe.Geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		getLayer(0).AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	iLayer := 0
	for iChannel, uvs := range m.Channels() {
		if len(uvs) == 0 {
			continue
		}
		if len(uvs) != m.VertexCount() {
			return nil, errors.Errorf("Mesh %q uv channel %d has %d coordinates for %d vertices",
				m.Name, iChannel, len(uvs), m.VertexCount())
		}

		uv := make([]float64, 0, len(uvs)*2)
		for _, c := range uvs {
			uv = append(uv, float64(c[0]), float64(c[1]))
		}
		uvindexes := make([]int32, len(indexes))
		for i, index := range indexes {
			if index < 0 {
				index = -index - 1
			}
			uvindexes[i] = index
		}

		ch := mesh.Channel(iLayer)
		fe.Geometry.AddNode(
			layerElementUV(ch).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(uvSetName(mesh.Channel(iChannel))),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		getLayer(iLayer).AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				typedIndex(ch),
			),
		)
		iLayer++
	}

	if len(layers) == 0 {
		getLayer(0)
	}
	fe.Geometry.AddNodes(layers...)

	fe.ModelId = f.GenerateId()
	fe.Model = bfbx73.Model(fe.ModelId, m.Name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	setTemplates(f)
	f.AddObjects(fe.Model, fe.Geometry)
	f.AddConnections(bfbx73.C("OO", fe.GeometryId, fe.ModelId))
	return fe, nil
}

func Save(w io.Writer, m *mesh.Mesh) error {
	f := fbxbuilder.NewFBXBuilder(m.Name+".fbx", m.Name)
	fe, err := Export(f, m)
	if err != nil {
		return err
	}
	f.AddConnections(bfbx73.C("OO", fe.ModelId, 0))
	return f.Write(w)
}

func init() {
	formats.Register(&formats.Format{
		Name: "fbx",
		Exts: []string{".fbx"},
		Save: Save,
	})
}
