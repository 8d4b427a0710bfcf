package uvtransfer

import (
	"fmt"

	"github.com/inimart/uv_transfer_tool/mesh"
)

type VertexCountMismatchError struct {
	SourceCount int
	TargetCount int
}

func (e *VertexCountMismatchError) Error() string {
	return fmt.Sprintf("Meshes must have the same vertex count! Source: %d vs Target: %d", e.SourceCount, e.TargetCount)
}

type UnsupportedChannelError struct {
	Channel mesh.Channel
}

func (e *UnsupportedChannelError) Error() string {
	return fmt.Sprintf("Unsupported UV channel: %d", e.Channel)
}

// ChannelMissingError is warning, transfer still returns result
type ChannelMissingError struct {
	Channel mesh.Channel
}

func (e *ChannelMissingError) Error() string {
	return fmt.Sprintf("Source mesh doesn't have UV channel %d.", e.Channel)
}
