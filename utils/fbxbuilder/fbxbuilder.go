// Package fbxbuilder assembles binary fbx 7.4 document.
// Definitions section is counted from added objects when document is written
package fbxbuilder

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	fbxVersion = 7400

	creator            = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
	applicationVendor  = "inimart"
	applicationName    = "uv_transfer_tool"
	applicationVersion = "1.0"

	// file id is checked against creation time by sdk readers, they go together
	dateTimeGMT  = "01/01/1970 00:00:00.000"
	creationTime = "1970-01-01 10:00:00:000"
)

var fileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

type FBXBuilder struct {
	fileName   string
	title      string
	lastId     int64
	documentId int64

	templates   map[string]*fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

// NewFBXBuilder starts document saved as fileName, title goes into scene metadata
func NewFBXBuilder(fileName, title string) *FBXBuilder {
	f := &FBXBuilder{
		fileName:    fileName,
		title:       title,
		lastId:      1000000,
		templates:   make(map[string]*fbx.Node),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.documentId = f.GenerateId()
	return f
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }

// SetTemplate sets property template written into definition of objects of type objectType
func (f *FBXBuilder) SetTemplate(objectType string, template *fbx.Node) {
	f.templates[objectType] = template
}

func (f *FBXBuilder) headerExtension() *fbx.Node {
	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970),
			bfbx73.Month(1),
			bfbx73.Day(1),
			bfbx73.Hour(10),
			bfbx73.Minute(0),
			bfbx73.Second(0),
			bfbx73.Millisecond(0),
		),
		bfbx73.Creator(creator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.MetaData().AddNodes(
				bfbx73.Version(100),
				bfbx73.Title(f.title),
				bfbx73.Subject(""),
				bfbx73.Author(""),
				bfbx73.Keywords(""),
				bfbx73.Revision(""),
				bfbx73.Comment(""),
			),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("DocumentUrl", "KString", "Url", "", f.fileName),
				bfbx73.P("SrcDocumentUrl", "KString", "Url", "", f.fileName),
				bfbx73.P("Original", "Compound", "", ""),
				bfbx73.P("Original|ApplicationVendor", "KString", "", "", applicationVendor),
				bfbx73.P("Original|ApplicationName", "KString", "", "", applicationName),
				bfbx73.P("Original|ApplicationVersion", "KString", "", "", applicationVersion),
				bfbx73.P("Original|DateTime_GMT", "DateTime", "", "", dateTimeGMT),
				bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(f.fileName)),
				bfbx73.P("LastSaved", "Compound", "", ""),
				bfbx73.P("LastSaved|ApplicationVendor", "KString", "", "", applicationVendor),
				bfbx73.P("LastSaved|ApplicationName", "KString", "", "", applicationName),
				bfbx73.P("LastSaved|ApplicationVersion", "KString", "", "", applicationVersion),
				bfbx73.P("LastSaved|DateTime_GMT", "DateTime", "", "", dateTimeGMT),
			),
		),
	)
}

// y up, right handed, units of mesh are kept as is
func globalSettings() *fbx.Node {
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
			bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
			bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
			bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("OriginalUpAxis", "int", "Integer", "", int32(1)),
			bfbx73.P("OriginalUpAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
		),
	)
}

func count(n int32) *fbx.Node {
	node := bfbx73.Count(0)
	node.Properties[0] = n
	return node
}

// Definitions lists object types in name order, GlobalSettings first
func (f *FBXBuilder) Definitions() *fbx.Node {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	total := int32(1)
	types := []*fbx.Node{bfbx73.ObjectType("GlobalSettings").AddNodes(count(1))}
	for _, name := range names {
		total += counts[name]
		objectType := bfbx73.ObjectType(name).AddNodes(count(counts[name]))
		if template, ok := f.templates[name]; ok {
			objectType.AddNodes(template)
		}
		types = append(types, objectType)
	}

	definitions := bfbx73.Definitions().AddNodes(bfbx73.Version(100), count(total))
	definitions.AddNodes(types...)
	return definitions
}

func (f *FBXBuilder) document() *fbx.FBX {
	doc := fbx.NewFBX(fbxVersion)
	doc.Root.AddNodes(
		f.headerExtension(),
		bfbx73.FileId(fileId),
		bfbx73.CreationTime(creationTime),
		bfbx73.Creator(creator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.documentId, "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		f.Definitions(),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(
			bfbx73.Current(""),
		),
	)
	return doc
}

// Write encodes document through temporary file, fbx writer needs to seek back
// for node end offsets and w is usually http response or vfs file
func (f *FBXBuilder) Write(w io.Writer) error {
	tempFile, err := ioutil.TempFile("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Unable to create temp file")
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.document()); err != nil {
		return errors.Wrapf(err, "Unable to write fbx")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}
