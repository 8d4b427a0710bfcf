package main

import (
	"flag"
	"log"

	"github.com/inimart/uv_transfer_tool/config"
	"github.com/inimart/uv_transfer_tool/library"
	"github.com/inimart/uv_transfer_tool/status"
	"github.com/inimart/uv_transfer_tool/vfs"
	"github.com/inimart/uv_transfer_tool/web"

	_ "github.com/inimart/uv_transfer_tool/formats/asset"
	_ "github.com/inimart/uv_transfer_tool/formats/fbxmesh"
	_ "github.com/inimart/uv_transfer_tool/formats/gltfmesh"
	_ "github.com/inimart/uv_transfer_tool/formats/objmesh"
)

func main() {
	var addr, dir, configPath, webPath, encoding, format string
	var watch bool
	var resolution int
	flag.StringVar(&configPath, "config", config.DefaultConfigPath, "Path to yaml config")
	flag.StringVar(&addr, "i", "", "Address of server")
	flag.StringVar(&dir, "dir", "", "Path to mesh library directory")
	flag.StringVar(&webPath, "web", "", "Path to folder with static data/ of web ui")
	flag.StringVar(&encoding, "encoding", "", "Code page of names inside obj files")
	flag.StringVar(&format, "format", "", "Default save format")
	flag.BoolVar(&watch, "watch", false, "Reload library files changed on disk")
	flag.IntVar(&resolution, "resolution", 0, "Preview resolution")
	flag.Parse()

	if err := config.LoadFile(configPath); err != nil {
		log.Fatal(err)
	}

	// flags override config file
	if addr != "" {
		config.SetListenAddr(addr)
	}
	if dir != "" {
		config.SetLibraryDir(dir)
	}
	if format != "" {
		config.SetSaveFormat(format)
	}
	if watch {
		config.SetWatchLibrary(true)
	}
	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatalf("%v, available: %v", err, config.ListEncodings())
		}
	}
	if resolution != 0 {
		if err := config.SetPreviewResolution(resolution); err != nil {
			log.Fatal(err)
		}
	}

	lib := library.NewLibrary(vfs.NewDirectoryDriver(config.GetLibraryDir()))
	if config.GetWatchLibrary() {
		if err := lib.Watch(config.GetLibraryDir(), func(file string) {
			status.Info("%s changed on disk", file)
		}); err != nil {
			log.Fatal(err)
		}
		defer lib.Close()
	}

	if err := web.StartServer(config.GetListenAddr(), lib, webPath); err != nil {
		log.Fatal(err)
	}
}
