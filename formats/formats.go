// Package formats keeps mesh file codecs registered by file extension
package formats

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
)

type Loader func(name string, r io.Reader) (*scene.Scene, error)
type Saver func(w io.Writer, m *mesh.Mesh) error

type Format struct {
	Name string   // used by save requests: "glb", "obj", ...
	Exts []string // with leading dot
	Load Loader   // nil for export only formats
	Save Saver
}

var gFormats = make(map[string]*Format)
var gFormatsByExt = make(map[string]*Format)

func Register(f *Format) {
	gFormats[strings.ToLower(f.Name)] = f
	for _, ext := range f.Exts {
		gFormatsByExt[strings.ToLower(ext)] = f
	}
}

func Get(name string) (*Format, error) {
	if f, found := gFormats[strings.ToLower(name)]; found {
		return f, nil
	}
	return nil, fmt.Errorf("[formats] Unknown format '%s'", name)
}

func ForFile(fileName string) (*Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if f, found := gFormatsByExt[ext]; found {
		return f, nil
	}
	return nil, fmt.Errorf("[formats] Cannot find handler for '%s' extension", ext)
}

// Loadable reports whether file can be opened as scene
func Loadable(fileName string) bool {
	f, err := ForFile(fileName)
	return err == nil && f.Load != nil
}

func Load(fileName string, r io.Reader) (*scene.Scene, error) {
	f, err := ForFile(fileName)
	if err != nil {
		return nil, err
	}
	if f.Load == nil {
		return nil, fmt.Errorf("[formats] Format '%s' is export only", f.Name)
	}
	s, err := f.Load(fileName, r)
	if err != nil {
		return nil, fmt.Errorf("[formats] %s loader error: %v", f.Name, err)
	}
	s.NameUnnamed()
	return s, nil
}

func Save(w io.Writer, format string, m *mesh.Mesh) error {
	f, err := Get(format)
	if err != nil {
		return err
	}
	if err := f.Save(w, m); err != nil {
		return fmt.Errorf("[formats] %s saver error: %v", f.Name, err)
	}
	return nil
}

// FileName returns name of file for mesh saved with format
func (f *Format) FileName(name string) string {
	return name + f.Exts[0]
}

func Names() []string {
	names := make([]string, 0, len(gFormats))
	for name := range gFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
