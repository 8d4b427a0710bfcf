package web

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inimart/uv_transfer_tool/formats"
	_ "github.com/inimart/uv_transfer_tool/formats/asset"
	_ "github.com/inimart/uv_transfer_tool/formats/objmesh"
	"github.com/inimart/uv_transfer_tool/library"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/uvraster"
	"github.com/inimart/uv_transfer_tool/vfs"
)

func newServer(t *testing.T) (*httptest.Server, string) {
	dir := t.TempDir()
	for _, m := range []*mesh.Mesh{
		{
			Name:      "src",
			Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			UV:        []mesh.UV{{0.1, 0.1}, {0.9, 0.1}, {0.5, 0.8}},
			Triangles: []int{0, 1, 2},
		},
		{
			Name:      "dst",
			Positions: []mesh.Position{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Triangles: []int{0, 1, 2},
		},
		{
			Name:      "big",
			Positions: make([]mesh.Position, 4),
		},
	} {
		var buf bytes.Buffer
		require.NoError(t, formats.Save(&buf, "asset", m))
		require.NoError(t, os.WriteFile(filepath.Join(dir, m.Name+".asset"), buf.Bytes(), 0666))
	}

	server := httptest.NewServer(NewRouter(library.NewLibrary(vfs.NewDirectoryDriver(dir)), ""))
	t.Cleanup(server.Close)
	return server, dir
}

func getJson(t *testing.T, u string, v interface{}) int {
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestLibraryHandlers(t *testing.T) {
	server, _ := newServer(t)

	var files []string
	assert.Equal(t, http.StatusOK, getJson(t, server.URL+"/json/library", &files))
	assert.Equal(t, []string{"big.asset", "dst.asset", "src.asset"}, files)

	var objects []scene.ObjectInfo
	assert.Equal(t, http.StatusOK, getJson(t, server.URL+"/json/library/src.asset", &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, "src", objects[0].Path)
	assert.Equal(t, 3, objects[0].UVCounts[0])
}

func TestPreviewHandler(t *testing.T) {
	server, _ := newServer(t)

	resp, err := http.Get(server.URL + "/preview/src.asset/src/0.png?size=256")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	// unknown channel falls back to channel 0
	resp2, err := http.Get(server.URL + "/preview/src.asset/src/7.bmp")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "image/bmp", resp2.Header.Get("Content-Type"))

	for _, u := range []string{
		"/preview/src.asset/src/0.gif",
		"/preview/src.asset/src/0.png?size=abc",
	} {
		resp, err := http.Get(server.URL + u)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, u)
	}

	resp3, err := http.Get(server.URL + "/preview/src.asset/nothing/0.png")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestMissingIsNotFound(t *testing.T) {
	server, _ := newServer(t)
	for _, u := range []string{
		"/json/library/missing.asset",
		"/preview/missing.asset/src/0.png",
		"/preview/src.asset/src/nothing/0.png",
		"/dump/src.asset/nothing",
		"/download/missing.asset",
	} {
		resp, err := http.Get(server.URL + u)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, u)
	}
}

func TestTransferHandler(t *testing.T) {
	server, dir := newServer(t)

	resp, err := http.PostForm(server.URL+"/action/transfer", url.Values{
		"source":       {"src.asset"},
		"sourceobject": {"src"},
		"target":       {"dst.asset"},
		"targetobject": {"dst"},
		"channel":      {"0"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		SavedFile string
		Copied    bool
		Preview   string
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "dst_FixedUV.asset", result.SavedFile)
	assert.True(t, result.Copied)
	assert.Equal(t, "/preview/dst.asset/dst/0.png", result.Preview)
	assert.FileExists(t, filepath.Join(dir, "dst_FixedUV.asset"))

	// refreshed target preview has vertices drawn
	presp, err := http.Get(server.URL + result.Preview)
	require.NoError(t, err)
	defer presp.Body.Close()
	img, err := png.Decode(presp.Body)
	require.NoError(t, err)
	res := uvraster.DefaultResolution
	assert.Equal(t, uvraster.PointColor, img.At(51, res-1-51))
}

func TestTransferHandlerErrors(t *testing.T) {
	server, _ := newServer(t)

	post := func(values url.Values) (int, string) {
		resp, err := http.PostForm(server.URL+"/action/transfer", values)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body.Error
	}

	code, msg := post(url.Values{
		"source": {"src.asset"}, "sourceobject": {"src"},
		"target": {"big.asset"}, "targetobject": {"big"},
		"channel": {"0"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.True(t, strings.HasSuffix(msg, "Meshes must have the same vertex count! Source: 3 vs Target: 4"), msg)

	code, msg = post(url.Values{
		"source": {"src.asset"}, "sourceobject": {"src"},
		"target": {"dst.asset"}, "targetobject": {"dst"},
		"channel": {"5"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, msg, "Unsupported UV channel: 5")

	code, _ = post(url.Values{"channel": {"x"}})
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err := http.Get(server.URL + "/action/transfer")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDumpAndDownload(t *testing.T) {
	server, _ := newServer(t)

	resp, err := http.Get(server.URL + "/dump/src.asset/src")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "static renderer")
	assert.Contains(t, buf.String(), "Triangles")

	dresp, err := http.Get(server.URL + "/download/dst.asset")
	require.NoError(t, err)
	defer dresp.Body.Close()
	assert.Equal(t, "attachment; filename=\"dst.asset\"", dresp.Header.Get("Content-Disposition"))
}

func TestPreviewURL(t *testing.T) {
	assert.Equal(t, "/preview/my%20mesh.glb/root/arm%20L/2.png", PreviewURL("my mesh.glb", "root/arm L", 2))
}
