package gltfutils

import (
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// Export puts every root node into default scene and encodes document,
// text documents get buffers embedded as data uri
func Export(w io.Writer, doc *gltf.Document, binary bool) error {
	isChild := make(map[uint32]bool)
	for _, node := range doc.Nodes {
		for _, iChild := range node.Children {
			isChild[iChild] = true
		}
	}
	for iNode := range doc.Nodes {
		if !isChild[uint32(iNode)] {
			doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(iNode))
		}
	}

	if !binary {
		for _, buffer := range doc.Buffers {
			if len(buffer.Data) != 0 {
				buffer.EmbeddedResource()
			}
		}
	}

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrapf(err, "Failed to encode gltf")
	}
	return nil
}

func Import(r io.Reader) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode gltf")
	}
	return doc, nil
}
