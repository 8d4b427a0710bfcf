package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"
)

type Position = mgl32.Vec3
type UV = mgl32.Vec2
type Normal = mgl32.Vec3

const ChannelsCount = 4

type Mesh struct {
	Name      string
	Positions []Position
	Normals   []Normal
	UV        []UV
	UV2       []UV
	UV3       []UV
	UV4       []UV
	Triangles []int // 3 indexes per triangle
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

func (m *Mesh) slot(ch Channel) *[]UV {
	switch ch {
	case 0:
		return &m.UV
	case 1:
		return &m.UV2
	case 2:
		return &m.UV3
	case 3:
		return &m.UV4
	default:
		return nil
	}
}

// Channel returns uv array of channel or nil for unsupported channel
func (m *Mesh) Channel(ch Channel) []UV {
	if s := m.slot(ch); s != nil {
		return *s
	}
	return nil
}

func (m *Mesh) SetChannel(ch Channel, uvs []UV) error {
	s := m.slot(ch)
	if s == nil {
		return fmt.Errorf("Unsupported UV channel: %d", ch)
	}
	*s = uvs
	return nil
}

// Channels returns all uv arrays in channel order
func (m *Mesh) Channels() [ChannelsCount][]UV {
	return [ChannelsCount][]UV{m.UV, m.UV2, m.UV3, m.UV4}
}

// Clone returns deep copy, no slices are shared with original.
// Missing channels of clone may be empty instead of nil
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{}
	if err := copier.CopyWithOption(c, m, copier.Option{DeepCopy: true}); err != nil {
		// same type on both sides, copier can't fail here
		panic(err)
	}
	return c
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh<%s>[v:%d,t:%d,uv:%d/%d/%d/%d]", m.Name, m.VertexCount(), m.TriangleCount(),
		len(m.UV), len(m.UV2), len(m.UV3), len(m.UV4))
}
