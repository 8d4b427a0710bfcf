package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/inimart/uv_transfer_tool/config"
	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/preview"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/uvraster"
	"github.com/inimart/uv_transfer_tool/uvtransfer"

	_ "github.com/inimart/uv_transfer_tool/formats/asset"
	_ "github.com/inimart/uv_transfer_tool/formats/fbxmesh"
	_ "github.com/inimart/uv_transfer_tool/formats/gltfmesh"
	_ "github.com/inimart/uv_transfer_tool/formats/objmesh"
)

// splitObject parses "file[:object]" argument
func splitObject(arg string) (file, object string) {
	// single letter before colon is windows drive
	if i := strings.LastIndexByte(arg, ':'); i > 1 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}

func resolve(arg string) (*scene.Handle, error) {
	file, object := splitObject(arg)
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := formats.Load(filepath.Base(file), f)
	if err != nil {
		return nil, err
	}
	return s.Resolve(object)
}

func writePreview(dir, name string, img image.Image) error {
	var buf bytes.Buffer
	if err := preview.Encode(&buf, img, preview.PNG); err != nil {
		return err
	}
	path := filepath.Join(dir, name+".png")
	if err := os.WriteFile(path, buf.Bytes(), 0666); err != nil {
		return errors.Wrapf(err, "Failed to write preview")
	}
	log.Printf("[uvtransfer] Preview %s", path)
	return nil
}

type options struct {
	src, dst   string
	channel    int
	out        string
	format     string
	previewDir string
}

func run(opts *options) error {
	src, err := resolve(opts.src)
	if err != nil {
		return errors.Wrapf(err, "Source %q", opts.src)
	}
	dst, err := resolve(opts.dst)
	if err != nil {
		return errors.Wrapf(err, "Target %q", opts.dst)
	}
	ch := mesh.Channel(opts.channel)

	result, err := uvtransfer.Transfer(src.Mesh(), dst.Mesh(), ch)
	if err != nil {
		return err
	}
	if result.Warning != nil {
		log.Printf("[uvtransfer] Warning: %v", result.Warning)
	}

	out := opts.out
	if out == "" {
		f, err := formats.Get(opts.format)
		if err != nil {
			return err
		}
		dstFile, _ := splitObject(opts.dst)
		out = filepath.Join(filepath.Dir(dstFile), f.FileName(result.OutputName()))
	}
	format := opts.format
	if f, err := formats.ForFile(out); err == nil {
		format = f.Name
	}
	result.Mesh.Name = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	var buf bytes.Buffer
	if err := formats.Save(&buf, format, result.Mesh); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0666); err != nil {
		return errors.Wrapf(err, "Failed to save result")
	}
	log.Printf("[uvtransfer] Saved %s (%s renderer, %d vertices)", out, dst.Kind(), result.Mesh.VertexCount())

	if opts.previewDir != "" {
		if err := os.MkdirAll(opts.previewDir, 0777); err != nil {
			return errors.Wrapf(err, "Failed to create preview directory")
		}
		resolution := config.GetPreviewResolution()
		for _, p := range []struct {
			name string
			m    *mesh.Mesh
		}{
			{"source", src.Mesh()},
			{"target", dst.Mesh()},
			{"result", result.Mesh},
		} {
			if err := writePreview(opts.previewDir, p.name, uvraster.RenderMesh(p.m, ch, resolution)); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	var opts options
	var configPath string
	var resolution int
	flag.StringVar(&opts.src, "src", "", "Source mesh file[:object]")
	flag.StringVar(&opts.dst, "dst", "", "Target mesh file[:object]")
	flag.IntVar(&opts.channel, "channel", 0, "UV channel 0-3")
	flag.StringVar(&opts.out, "out", "", "Result file, <target>_FixedUV near target by default")
	flag.StringVar(&opts.format, "format", "", "Result format when -out has no known extension")
	flag.StringVar(&opts.previewDir, "preview", "", "Directory for source/target/result previews")
	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "Path to yaml config")
	flag.IntVar(&resolution, "resolution", 0, "Preview resolution")
	flag.Parse()

	if opts.src == "" || opts.dst == "" {
		flag.PrintDefaults()
		return
	}

	if err := config.LoadFile(configPath); err != nil {
		log.Fatal(err)
	}
	if resolution != 0 {
		if err := config.SetPreviewResolution(resolution); err != nil {
			log.Fatal(err)
		}
	}
	if opts.format == "" {
		opts.format = config.GetSaveFormat()
	}

	if err := run(&opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
