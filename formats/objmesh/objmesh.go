// Package objmesh reads and writes wavefront obj meshes.
// Obj has single texture coordinates set, it is loaded into and saved from uv channel 0
package objmesh

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/utils"
)

type faceVertex struct {
	position, uv, normal int // -1 when missing
}

type object struct {
	name      string
	faces     [][]faceVertex
	haveUV    bool
	haveNorms bool
}

type parser struct {
	positions []mesh.Position
	uvs       []mesh.UV
	normals   []mesh.Normal
	objects   []*object
	line      int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return errors.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

func (p *parser) floats(args []string, min int) ([]float32, error) {
	if len(args) < min {
		return nil, p.errorf("want %d values, got %d", min, len(args))
	}
	result := make([]float32, len(args))
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, p.errorf("bad number %q", arg)
		}
		result[i] = float32(f)
	}
	return result, nil
}

// index converts obj 1 based or negative relative index into 0 based one
func (p *parser) index(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, p.errorf("bad index %q", s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, p.errorf("index %d out of range [1:%d]", i, count)
}

func (p *parser) current() *object {
	if len(p.objects) == 0 {
		p.objects = append(p.objects, &object{haveUV: true, haveNorms: true})
	}
	return p.objects[len(p.objects)-1]
}

func (p *parser) face(args []string) error {
	if len(args) < 3 {
		return p.errorf("face needs at least 3 vertices")
	}
	o := p.current()
	face := make([]faceVertex, len(args))
	for i, arg := range args {
		refs := strings.Split(arg, "/")
		if len(refs) > 3 {
			return p.errorf("bad face vertex %q", arg)
		}
		for len(refs) < 3 {
			refs = append(refs, "")
		}

		var err error
		fv := &face[i]
		if refs[0] == "" {
			return p.errorf("face vertex %q without position", arg)
		}
		if fv.position, err = p.index(refs[0], len(p.positions)); err != nil {
			return err
		}
		if fv.uv, err = p.index(refs[1], len(p.uvs)); err != nil {
			return err
		}
		if fv.normal, err = p.index(refs[2], len(p.normals)); err != nil {
			return err
		}
		o.haveUV = o.haveUV && fv.uv >= 0
		o.haveNorms = o.haveNorms && fv.normal >= 0
	}
	o.faces = append(o.faces, face)
	return nil
}

func (p *parser) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		ident, args := fields[0], fields[1:]

		switch ident {
		case "v":
			f, err := p.floats(args, 3)
			if err != nil {
				return err
			}
			p.positions = append(p.positions, mesh.Position{f[0], f[1], f[2]})
		case "vn":
			f, err := p.floats(args, 3)
			if err != nil {
				return err
			}
			p.normals = append(p.normals, mesh.Normal{f[0], f[1], f[2]})
		case "vt":
			f, err := p.floats(args, 1)
			if err != nil {
				return err
			}
			uv := mesh.UV{f[0], 0}
			if len(f) > 1 {
				uv[1] = f[1]
			}
			p.uvs = append(p.uvs, uv)
		case "f":
			if err := p.face(args); err != nil {
				return err
			}
		case "o", "g":
			name, err := decodeName(strings.TrimSpace(text[len(ident):]))
			if err != nil {
				return p.errorf("%v", err)
			}
			if o := p.current(); len(o.faces) == 0 && o.name == "" {
				o.name = name
			} else {
				p.objects = append(p.objects, &object{name: name, haveUV: true, haveNorms: true})
			}
		case "s", "mtllib", "usemtl", "l", "p":
		default:
			log.Printf("[obj] line %d: %q not supported", p.line, ident)
		}
	}
	return scanner.Err()
}

func decodeName(s string) (string, error) {
	if utf8.ValidString(s) {
		return s, nil
	}
	return utils.DecodeString([]byte(s))
}

// span is range of positions referenced by object faces
func (o *object) span() (lo, hi int) {
	lo = -1
	for _, face := range o.faces {
		for _, fv := range face {
			if lo < 0 || fv.position < lo {
				lo = fv.position
			}
			if fv.position >= hi {
				hi = fv.position + 1
			}
		}
	}
	return lo, hi
}

// build makes vertex i from position lo+i, so vertex order and count follow v lines.
// Face vertex that reuses position with another uv or normal gets extra vertex after them
func (p *parser) build(o *object, lo, hi int) *mesh.Mesh {
	count := hi - lo
	m := &mesh.Mesh{
		Name:      o.name,
		Positions: append([]mesh.Position(nil), p.positions[lo:hi]...),
	}
	if o.haveUV {
		m.UV = make([]mesh.UV, count)
		for i := range m.UV {
			if lo+i < len(p.uvs) {
				m.UV[i] = p.uvs[lo+i]
			}
		}
	}
	if o.haveNorms {
		m.Normals = make([]mesh.Normal, count)
		for i := range m.Normals {
			if lo+i < len(p.normals) {
				m.Normals[i] = p.normals[lo+i]
			}
		}
	}

	used := make([]bool, count)
	claimed := make([]faceVertex, count)
	extra := make(map[faceVertex]int)

	for _, face := range o.faces {
		indexes := make([]int, len(face))
		for i, fv := range face {
			if !o.haveUV {
				fv.uv = -1
			}
			if !o.haveNorms {
				fv.normal = -1
			}

			index := fv.position - lo
			switch {
			case !used[index]:
				used[index] = true
				claimed[index] = fv
				if o.haveUV {
					m.UV[index] = p.uvs[fv.uv]
				}
				if o.haveNorms {
					m.Normals[index] = p.normals[fv.normal]
				}
			case claimed[index] != fv:
				var ok bool
				if index, ok = extra[fv]; !ok {
					index = len(m.Positions)
					extra[fv] = index
					m.Positions = append(m.Positions, p.positions[fv.position])
					if o.haveUV {
						m.UV = append(m.UV, p.uvs[fv.uv])
					}
					if o.haveNorms {
						m.Normals = append(m.Normals, p.normals[fv.normal])
					}
				}
			}
			indexes[i] = index
		}
		for i := 1; i+1 < len(indexes); i++ {
			m.Triangles = append(m.Triangles, indexes[0], indexes[i], indexes[i+1])
		}
	}
	return m
}

func Load(name string, r io.Reader) (*scene.Scene, error) {
	p := &parser{}
	if err := p.parse(r); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", name)
	}

	defaultName := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	objects := make([]*object, 0, len(p.objects))
	for _, o := range p.objects {
		if len(o.faces) != 0 {
			objects = append(objects, o)
		}
	}

	s := scene.NewScene(name)
	for _, o := range objects {
		if o.name == "" {
			o.name = defaultName
		}
		// single object owns every position, unreferenced ones included
		lo, hi := 0, len(p.positions)
		if len(objects) > 1 {
			lo, hi = o.span()
		}
		m := p.build(o, lo, hi)
		s.Root.AddChild(&scene.Object{
			Name:   o.name,
			Filter: &scene.Renderer{Kind: scene.Static, SharedMesh: m},
		})
	}
	return s, nil
}

// formatFloat writes shortest text that parses back into same float32
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func Save(_w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(_w)
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	for i, uvs := range m.Channels() {
		if i != 0 && len(uvs) != 0 {
			log.Printf("[obj] Mesh %q uv channel %d is not saved", m.Name, i)
		}
	}

	haveUV := len(m.UV) != 0 && len(m.UV) == m.VertexCount()
	haveNorm := len(m.Normals) != 0 && len(m.Normals) == m.VertexCount()

	for _, pos := range m.Positions {
		w("v %s %s %s", formatFloat(pos[0]), formatFloat(pos[1]), formatFloat(pos[2]))
	}
	if haveUV {
		for _, uv := range m.UV {
			w("vt %s %s", formatFloat(uv[0]), formatFloat(uv[1]))
		}
	}
	if haveNorm {
		for _, normal := range m.Normals {
			w("vn %s %s %s", formatFloat(normal[0]), formatFloat(normal[1]), formatFloat(normal[2]))
		}
	}

	w("o %s", m.Name)
	for iIndex := 0; iIndex+2 < len(m.Triangles); iIndex += 3 {
		a, b, c := m.Triangles[iIndex]+1, m.Triangles[iIndex+1]+1, m.Triangles[iIndex+2]+1
		if haveNorm {
			if haveUV {
				w("f %v/%v/%v %v/%v/%v %v/%v/%v", a, a, a, b, b, b, c, c, c)
			} else {
				w("f %v//%v %v//%v %v//%v", a, a, b, b, c, c)
			}
		} else {
			if haveUV {
				w("f %v/%v %v/%v %v/%v", a, a, b, b, c, c)
			} else {
				w("f %v %v %v", a, b, c)
			}
		}
	}

	return bw.Flush()
}

func init() {
	formats.Register(&formats.Format{
		Name: "obj",
		Exts: []string{".obj"},
		Load: Load,
		Save: Save,
	})
}
