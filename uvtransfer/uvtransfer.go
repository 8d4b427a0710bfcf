// Package uvtransfer copies one uv channel between meshes with equal vertex count.
// Input meshes are never modified, result is always a new mesh.
package uvtransfer

import (
	"github.com/inimart/uv_transfer_tool/mesh"
)

const OutputNameSuffix = "_FixedUV"

type Result struct {
	Mesh    *mesh.Mesh
	Channel mesh.Channel
	// non nil when source channel was empty and target was left as is
	Warning *ChannelMissingError
}

func (r *Result) Copied() bool {
	return r.Warning == nil
}

// OutputName is default name of saved asset
func (r *Result) OutputName() string {
	return r.Mesh.Name + OutputNameSuffix
}

func Transfer(source, target *mesh.Mesh, channel mesh.Channel) (*Result, error) {
	src := source.Clone()
	dst := target.Clone()

	if src.VertexCount() != dst.VertexCount() {
		return nil, &VertexCountMismatchError{SourceCount: src.VertexCount(), TargetCount: dst.VertexCount()}
	}
	if !channel.Valid() {
		return nil, &UnsupportedChannelError{Channel: channel}
	}

	r := &Result{Mesh: dst, Channel: channel}

	uvs := src.Channel(channel)
	if len(uvs) == 0 {
		r.Warning = &ChannelMissingError{Channel: channel}
		return r, nil
	}

	// src is private copy, no need to copy uvs again
	if err := dst.SetChannel(channel, uvs); err != nil {
		return nil, err
	}
	return r, nil
}
