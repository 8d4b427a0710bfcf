package library_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inimart/uv_transfer_tool/formats"
	_ "github.com/inimart/uv_transfer_tool/formats/asset"
	_ "github.com/inimart/uv_transfer_tool/formats/fbxmesh"
	_ "github.com/inimart/uv_transfer_tool/formats/objmesh"
	"github.com/inimart/uv_transfer_tool/library"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/uvtransfer"
	"github.com/inimart/uv_transfer_tool/vfs"
)

func writeMesh(t *testing.T, dir, file, format string, m *mesh.Mesh) {
	var buf bytes.Buffer
	require.NoError(t, formats.Save(&buf, format, m))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), buf.Bytes(), 0666))
}

func triangle(name string) *mesh.Mesh {
	return &mesh.Mesh{
		Name:      name,
		Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UV:        []mesh.UV{{0, 0}, {1, 0}, {0, 1}},
		Triangles: []int{0, 1, 2},
	}
}

func newLibrary(t *testing.T) (*library.Library, string) {
	dir := t.TempDir()
	src := triangle("src")
	src.UV2 = []mesh.UV{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}}
	writeMesh(t, dir, "src.asset", "asset", src)
	writeMesh(t, dir, "dst.asset", "asset", triangle("dst"))

	quad := triangle("quad")
	quad.Positions = append(quad.Positions, mesh.Position{1, 1, 0})
	quad.UV = append(quad.UV, mesh.UV{1, 1})
	writeMesh(t, dir, "quad.obj", "obj", quad)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0666))
	return library.NewLibrary(vfs.NewDirectoryDriver(dir)), dir
}

func TestList(t *testing.T) {
	l, dir := newLibrary(t)
	writeMesh(t, dir, "export.fbx", "fbx", triangle("export"))

	list, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"dst.asset", "quad.obj", "src.asset"}, list)

	objects, err := l.Objects("quad.obj")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "quad", objects[0].Path)
	assert.Equal(t, 4, objects[0].VertexCount)
	assert.Equal(t, scene.Static, objects[0].Kind)

	_, err = l.Objects("missing.obj")
	assert.Error(t, err)
}

func TestTransfer(t *testing.T) {
	l, dir := newLibrary(t)

	report, err := l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "src",
		Target: "dst.asset", TargetObject: "dst",
		Channel: 1, Format: "asset",
	})
	require.NoError(t, err)
	assert.True(t, report.Copied)
	assert.Empty(t, report.Warning)
	assert.Equal(t, "dst_FixedUV.asset", report.SavedFile)
	assert.Equal(t, scene.Static, report.TargetKind)
	assert.FileExists(t, filepath.Join(dir, "dst_FixedUV.asset"))

	// live target got new mesh
	m, _, err := l.Mesh("dst.asset", "dst")
	require.NoError(t, err)
	assert.Equal(t, "dst_FixedUV", m.Name)
	assert.Equal(t, []mesh.UV{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}}, m.UV2)

	// saved file has it too
	saved, _, err := l.Mesh("dst_FixedUV.asset", "dst_FixedUV")
	require.NoError(t, err)
	assert.Equal(t, m.UV2, saved.UV2)

	// source untouched
	src, _, err := l.Mesh("src.asset", "src")
	require.NoError(t, err)
	assert.Equal(t, "src", src.Name)
}

func TestTransferOutputAndWarning(t *testing.T) {
	l, dir := newLibrary(t)

	report, err := l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "src",
		Target: "dst.asset", TargetObject: "dst",
		Channel: 3, Output: "fixed.obj", Format: "obj",
	})
	require.NoError(t, err)
	assert.False(t, report.Copied)
	assert.Equal(t, "Source mesh doesn't have UV channel 3.", report.Warning)
	assert.Equal(t, "fixed.obj", report.SavedFile)
	assert.FileExists(t, filepath.Join(dir, "fixed.obj"))
}

func TestTransferErrors(t *testing.T) {
	l, dir := newLibrary(t)

	_, err := l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "src",
		Target: "quad.obj", TargetObject: "quad",
		Channel: 0, Format: "asset",
	})
	var mismatch *uvtransfer.VertexCountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 3, mismatch.SourceCount)
	assert.Equal(t, 4, mismatch.TargetCount)
	assert.NoFileExists(t, filepath.Join(dir, "quad_FixedUV.asset"))

	// target mesh stays as it was
	m, _, err := l.Mesh("quad.obj", "quad")
	require.NoError(t, err)
	assert.Equal(t, "quad", m.Name)

	_, err = l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "missing",
		Target: "dst.asset", TargetObject: "dst",
	})
	assert.Error(t, err)

	_, err = l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "src",
		Target: "dst.asset", TargetObject: "dst",
		Output: "../escape", Format: "asset",
	})
	assert.Error(t, err)

	_, err = l.Transfer(&library.TransferRequest{
		Source: "src.asset", SourceObject: "src",
		Target: "dst.asset", TargetObject: "dst",
		Format: "nope",
	})
	assert.Error(t, err)
}

func TestMeshFromRoot(t *testing.T) {
	l, _ := newLibrary(t)
	// root resolves through its children
	m, kind, err := l.Mesh("src.asset", "")
	require.NoError(t, err)
	assert.Equal(t, "src", m.Name)
	assert.Equal(t, scene.Static, kind)

	_, _, err = l.Mesh("src.asset", "src/nothing")
	assert.Error(t, err)
}

func TestWatchInvalidates(t *testing.T) {
	l, dir := newLibrary(t)
	changed := make(chan string, 16)
	require.NoError(t, l.Watch(dir, func(file string) {
		select {
		case changed <- file:
		default:
		}
	}))
	defer l.Close()

	m, _, err := l.Mesh("dst.asset", "dst")
	require.NoError(t, err)
	require.Len(t, m.UV, 3)

	other := triangle("dst")
	other.UV = []mesh.UV{{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5}}
	writeMesh(t, dir, "dst.asset", "asset", other)

	select {
	case file := <-changed:
		assert.Equal(t, "dst.asset", file)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher event")
	}

	assert.Eventually(t, func() bool {
		m, _, err := l.Mesh("dst.asset", "dst")
		return err == nil && len(m.UV) == 3 && m.UV[0] == mesh.UV{0.5, 0.5}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchAndCloseConcurrently(t *testing.T) {
	l, dir := newLibrary(t)
	done := make(chan error, 8)
	for i := 0; i < 4; i++ {
		go func() { done <- l.Watch(dir, nil) }()
		go func() { done <- l.Close() }()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestMissingIsNotFound(t *testing.T) {
	l, _ := newLibrary(t)

	_, _, err := l.Mesh("missing.asset", "")
	assert.True(t, errors.Is(err, os.ErrNotExist), err)

	_, _, err = l.Mesh("src.asset", "nothing")
	assert.True(t, errors.Is(err, scene.ErrNotFound), err)

	_, _, err = l.Open("missing.asset")
	assert.True(t, errors.Is(err, os.ErrNotExist), err)
}
