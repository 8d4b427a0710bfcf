package config

import (
	"io/fs"
	"io/ioutil"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "~/.uv_transfer_tool.yaml"

var (
	listenAddr        = ":8000"
	libraryDir        = "meshes"
	previewResolution = 512
	saveFormat        = "asset"
	watchLibrary      = false
)

func GetListenAddr() string      { return listenAddr }
func SetListenAddr(addr string)  { listenAddr = addr }
func GetLibraryDir() string      { return libraryDir }
func SetLibraryDir(dir string)   { libraryDir = dir }
func GetSaveFormat() string      { return saveFormat }
func SetSaveFormat(f string)     { saveFormat = f }
func GetWatchLibrary() bool      { return watchLibrary }
func SetWatchLibrary(watch bool) { watchLibrary = watch }

func GetPreviewResolution() int {
	return previewResolution
}

func SetPreviewResolution(resolution int) error {
	if resolution <= 0 {
		return errors.Errorf("Preview resolution must be positive, got %d", resolution)
	}
	previewResolution = resolution
	return nil
}

type File struct {
	Addr              string `yaml:"addr"`
	Library           string `yaml:"library"`
	PreviewResolution int    `yaml:"previewResolution"`
	SaveFormat        string `yaml:"saveFormat"`
	Encoding          string `yaml:"encoding"`
	Watch             *bool  `yaml:"watch"`
}

// Apply sets every non empty value of config file
func (f *File) Apply() error {
	if f.Addr != "" {
		SetListenAddr(f.Addr)
	}
	if f.Library != "" {
		dir, err := homedir.Expand(f.Library)
		if err != nil {
			return errors.Wrapf(err, "Failed to expand library path %q", f.Library)
		}
		SetLibraryDir(dir)
	}
	if f.PreviewResolution != 0 {
		if err := SetPreviewResolution(f.PreviewResolution); err != nil {
			return err
		}
	}
	if f.SaveFormat != "" {
		SetSaveFormat(f.SaveFormat)
	}
	if f.Encoding != "" {
		if err := SetEncoding(f.Encoding); err != nil {
			return err
		}
	}
	if f.Watch != nil {
		SetWatchLibrary(*f.Watch)
	}
	return nil
}

func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "Failed to unmarshal config")
	}
	return &f, nil
}

// LoadFile reads and applies config. Missing file at default path is not an error
func LoadFile(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to expand config path %q", path)
	}

	data, err := ioutil.ReadFile(expanded)
	if err != nil {
		if path == DefaultConfigPath && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "Cannot read config %q", expanded)
	}

	f, err := ParseFile(data)
	if err != nil {
		return errors.Wrapf(err, "Config %q", expanded)
	}
	return f.Apply()
}
