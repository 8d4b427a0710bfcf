package library

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/inimart/uv_transfer_tool/config"
	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/uvtransfer"
)

type TransferRequest struct {
	Source       string
	SourceObject string
	Target       string
	TargetObject string
	Channel      mesh.Channel
	Output       string // mesh name, <target mesh>_FixedUV when empty
	Format       string // config save format when empty
}

type TransferReport struct {
	SavedFile   string
	Warning     string `json:",omitempty"`
	Copied      bool
	Channel     mesh.Channel
	TargetKind  scene.RendererKind
	VertexCount int
}

// Transfer copies uv channel from source object mesh to target object mesh,
// saves result into library and assigns it to target object renderer
func (l *Library) Transfer(req *TransferRequest) (*TransferReport, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	src, err := l.resolve(req.Source, req.SourceObject)
	if err != nil {
		return nil, err
	}
	dst, err := l.resolve(req.Target, req.TargetObject)
	if err != nil {
		return nil, err
	}

	result, err := uvtransfer.Transfer(src.Mesh(), dst.Mesh(), req.Channel)
	if err != nil {
		return nil, fmt.Errorf("[transfer] %w", err)
	}

	report := &TransferReport{
		Copied:      result.Copied(),
		Channel:     result.Channel,
		TargetKind:  dst.Kind(),
		VertexCount: result.Mesh.VertexCount(),
	}
	if result.Warning != nil {
		report.Warning = result.Warning.Error()
		log.Printf("[transfer] %s/%s: %v", req.Source, req.SourceObject, result.Warning)
	}

	name := req.Output
	if name == "" {
		name = result.OutputName()
	}
	format := req.Format
	if format == "" {
		format = config.GetSaveFormat()
	}

	// saved asset is named after its file
	if _, err := formats.ForFile(name); err == nil {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	result.Mesh.Name = name

	if report.SavedFile, err = l.save(name, format, result.Mesh); err != nil {
		return nil, err
	}

	scene.AssignMesh(dst, result.Mesh)
	log.Printf("[transfer] uv%d %s/%s -> %s/%s (%s), saved '%s'",
		req.Channel, req.Source, req.SourceObject, req.Target, req.TargetObject, dst.Kind(), report.SavedFile)
	return report, nil
}
