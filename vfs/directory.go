package vfs

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
)

type DirectoryDriver struct {
	path string
}

func (dd *DirectoryDriver) Init(parent Directory) {}

func (dd *DirectoryDriver) Name() string {
	return filepath.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) List() ([]string, error) {
	if fileinfos, err := ioutil.ReadDir(dd.path); err != nil {
		return nil, fmt.Errorf("Error getting directory '%s' info: %v", dd.path, err)
	} else {
		result := make([]string, 0, len(fileinfos))
		for _, f := range fileinfos {
			result = append(result, f.Name())
		}
		return result, nil
	}
}

// only direct children are accessible, names with path separators are rejected
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("Invalid element name '%s'", name)
	}
	return nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	newPath := filepath.Join(dd.path, name)
	if s, err := os.Stat(newPath); err != nil {
		return nil, fmt.Errorf("Stat error: %w", err)
	} else {
		var e Element
		if s.IsDir() {
			e = NewDirectoryDriver(newPath)
		} else {
			e = NewDirectoryDriverFile(newPath)
		}
		e.Init(dd)
		return e, nil
	}
}

func (dd *DirectoryDriver) Add(e Element) error {
	if err := checkName(e.Name()); err != nil {
		return err
	}
	path := filepath.Join(dd.path, e.Name())
	if e.IsDirectory() {
		return os.Mkdir(path, os.ModePerm)
	} else {
		if f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666); err != nil {
			return fmt.Errorf("file '%s' creation failure: %v", path, err)
		} else {
			f.Close()
			return nil
		}
	}
}

func (dd *DirectoryDriver) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return os.Remove(filepath.Join(dd.path, name))
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func NewDirectoryDriverFile(path string) *DirectoryDriverFile {
	return &DirectoryDriverFile{
		path: path,
	}
}

func (ddf *DirectoryDriverFile) Init(parent Directory) {
	if dd, ok := parent.(*DirectoryDriver); ok {
		ddf.path = filepath.Join(dd.path, filepath.Base(ddf.path))
	}
}

func (ddf *DirectoryDriverFile) Name() string {
	return filepath.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Size() int64 {
	if stat, err := os.Stat(ddf.path); err != nil {
		return 0
	} else {
		return stat.Size()
	}
}

func (ddf *DirectoryDriverFile) Open(readonly bool) error {
	if ddf.f != nil {
		return fmt.Errorf("File already opened")
	}

	flags := os.O_RDONLY
	if !readonly {
		flags = os.O_RDWR
	}

	f, err := os.OpenFile(ddf.path, flags, 0)
	if err != nil {
		return fmt.Errorf("os.Open('%s'): %v", ddf.path, err)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f != nil {
		if err := ddf.f.Close(); err != nil {
			return fmt.Errorf("os.File.Close(): %v", err)
		}
		ddf.f = nil
	}
	return nil
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, fmt.Errorf("First you need to open file")
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

// Copy replaces whole file content
func (ddf *DirectoryDriverFile) Copy(src io.Reader) error {
	ddf.Close()

	f, err := os.Create(ddf.path)
	if err != nil {
		return fmt.Errorf("os.Create('%s'): %v", ddf.path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("io.Copy(...): %v", err)
	}
	return f.Close()
}
