package vfs

import (
	"fmt"
	"io"
)

func OpenFileAndGetReader(f File, readonly bool) (*io.SectionReader, error) {
	if err := f.Open(readonly); err != nil {
		return nil, fmt.Errorf("Cannot open file '%s': %v", f.Name(), err)
	}
	r, err := f.Reader()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Cannot get file '%s' reader: %v", f.Name(), err)
	}
	return r, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	if f, err := d.GetElement(name); err != nil {
		return nil, fmt.Errorf("Cannot open file '%s': %w", name, err)
	} else if f.IsDirectory() {
		return nil, fmt.Errorf("File '%s' is directory, not a file!", name)
	} else {
		return f.(File), nil
	}
}

// DirectoryWriteFile creates or replaces file with content of src
func DirectoryWriteFile(d Directory, name string, src io.Reader) error {
	if err := checkName(name); err != nil {
		return err
	}
	f, err := DirectoryGetFile(d, name)
	if err != nil {
		nf := NewDirectoryDriverFile(name)
		if err := d.Add(nf); err != nil {
			return fmt.Errorf("Cannot create file '%s': %v", name, err)
		}
		nf.Init(d)
		f = nf
	}
	if err := f.Copy(src); err != nil {
		return fmt.Errorf("Cannot copy data to file '%s': %v", name, err)
	}
	return nil
}
