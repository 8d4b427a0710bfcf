// Package library keeps scenes loaded from mesh directory and writes meshes back into it
package library

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/vfs"
)

type Library struct {
	dir vfs.Directory

	// scenes are loaded once and kept while file is unchanged.
	// Meshes are never modified in place, only renderers get new ones under lock
	lock   sync.Mutex
	scenes map[string]*scene.Scene

	watcher *watcher
}

func NewLibrary(dir vfs.Directory) *Library {
	return &Library{
		dir:    dir,
		scenes: make(map[string]*scene.Scene),
	}
}

func (l *Library) Directory() vfs.Directory {
	return l.dir
}

// List returns sorted names of files which can be opened as scenes
func (l *Library) List() ([]string, error) {
	names, err := l.dir.List()
	if err != nil {
		return nil, fmt.Errorf("[library] Cannot list directory: %v", err)
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if formats.Loadable(name) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (l *Library) scene(file string) (*scene.Scene, error) {
	if s, ok := l.scenes[file]; ok {
		return s, nil
	}

	f, err := vfs.DirectoryGetFile(l.dir, file)
	if err != nil {
		return nil, fmt.Errorf("[library] Cannot get file '%s': %w", file, err)
	}
	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, fmt.Errorf("[library] %v", err)
	}
	defer f.Close()

	s, err := formats.Load(file, r)
	if err != nil {
		return nil, err
	}
	log.Printf("[library] Loaded '%s': %d objects", file, len(s.Objects()))
	l.scenes[file] = s
	return s, nil
}

func (l *Library) Objects(file string) ([]scene.ObjectInfo, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	s, err := l.scene(file)
	if err != nil {
		return nil, err
	}
	return s.Objects(), nil
}

func (l *Library) resolve(file, object string) (*scene.Handle, error) {
	s, err := l.scene(file)
	if err != nil {
		return nil, err
	}
	h, err := s.Resolve(object)
	if err != nil {
		return nil, fmt.Errorf("[library] '%s': %w", file, err)
	}
	return h, nil
}

// Mesh returns mesh currently assigned to object, it must not be modified
func (l *Library) Mesh(file, object string) (*mesh.Mesh, scene.RendererKind, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	h, err := l.resolve(file, object)
	if err != nil {
		return nil, "", err
	}
	return h.Mesh(), h.Kind(), nil
}

func (l *Library) Invalidate(file string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.invalidate(file)
}

func (l *Library) invalidate(file string) {
	if _, ok := l.scenes[file]; ok {
		log.Printf("[library] Forgetting '%s'", file)
		delete(l.scenes, file)
	}
}

// FileName returns file name mesh called name gets when saved with format
func FileName(f *formats.Format, name string) string {
	for _, ext := range f.Exts {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return name
		}
	}
	return f.FileName(name)
}

func (l *Library) save(name, format string, m *mesh.Mesh) (string, error) {
	f, err := formats.Get(format)
	if err != nil {
		return "", err
	}
	fileName := FileName(f, name)

	var buf bytes.Buffer
	if err := formats.Save(&buf, f.Name, m); err != nil {
		return "", err
	}
	if err := vfs.DirectoryWriteFile(l.dir, fileName, &buf); err != nil {
		return "", fmt.Errorf("[library] %v", err)
	}
	l.invalidate(fileName)
	log.Printf("[library] Saved mesh '%s' to '%s'", m.Name, fileName)
	return fileName, nil
}

// Save writes mesh into library file and returns its name
func (l *Library) Save(name, format string, m *mesh.Mesh) (string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.save(name, format, m)
}

// Open returns reader of raw library file, caller closes returned file
func (l *Library) Open(file string) (vfs.File, io.Reader, error) {
	f, err := vfs.DirectoryGetFile(l.dir, file)
	if err != nil {
		return nil, nil, err
	}
	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, nil, err
	}
	return f, r, nil
}
