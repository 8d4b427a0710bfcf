package web

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/inimart/uv_transfer_tool/formats"
	"github.com/inimart/uv_transfer_tool/library"
	"github.com/inimart/uv_transfer_tool/mesh"
	"github.com/inimart/uv_transfer_tool/preview"
	"github.com/inimart/uv_transfer_tool/scene"
	"github.com/inimart/uv_transfer_tool/status"
	"github.com/inimart/uv_transfer_tool/utils"
	"github.com/inimart/uv_transfer_tool/uvtransfer"
	"github.com/inimart/uv_transfer_tool/webutils"
)

func errorCode(err error) int {
	var mismatch *uvtransfer.VertexCountMismatchError
	var unsupported *uvtransfer.UnsupportedChannelError
	switch {
	case errors.Is(err, scene.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, scene.ErrNoMesh), errors.As(err, &mismatch), errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// PreviewURL is address of preview image of object uv channel
func PreviewURL(file, object string, ch mesh.Channel) string {
	segments := strings.Split(object, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/preview/%s/%s/%d.png", url.PathEscape(file), strings.Join(segments, "/"), ch)
}

func HandlerAjaxLibrary(w http.ResponseWriter, r *http.Request) {
	if files, err := ServerLibrary.List(); err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteJson(w, files)
	}
}

func HandlerAjaxLibraryFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	objects, err := ServerLibrary.Objects(file)
	if err != nil {
		log.Printf("[web] Error getting file from library: %v", err)
		webutils.WriteErrorCode(w, errorCode(err), err)
	} else {
		webutils.WriteJson(w, objects)
	}
}

func HandlerAjaxFormats(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, formats.Names())
}

func HandlerPreview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	format, err := preview.ParseFormat(vars["format"])
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	ch, err := mesh.ParseChannel(vars["channel"])
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		if size, err = strconv.Atoi(s); err != nil || size < 0 {
			webutils.WriteErrorCode(w, http.StatusBadRequest, fmt.Errorf("Invalid size '%s'", s))
			return
		}
	}

	m, _, err := ServerLibrary.Mesh(vars["file"], vars["object"])
	if err != nil {
		webutils.WriteErrorCode(w, errorCode(err), err)
		return
	}

	var buf bytes.Buffer
	if err := preview.Encode(&buf, preview.Render(m, ch, size), format); err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteImage(w, buf.Bytes(), format.ContentType())
}

type transferResponse struct {
	*library.TransferReport
	Preview string
}

func HandlerActionTransfer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	ch, err := mesh.ParseChannel(r.FormValue("channel"))
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}

	req := &library.TransferRequest{
		Source:       r.FormValue("source"),
		SourceObject: r.FormValue("sourceobject"),
		Target:       r.FormValue("target"),
		TargetObject: r.FormValue("targetobject"),
		Channel:      ch,
		Output:       r.FormValue("output"),
		Format:       r.FormValue("format"),
	}

	report, err := ServerLibrary.Transfer(req)
	if err != nil {
		status.Error("UV transfer failed: %v", err)
		webutils.WriteErrorCode(w, errorCode(err), err)
		return
	}
	if report.Warning != "" {
		status.Warning("%s", report.Warning)
	}
	status.Info("Saved %s", report.SavedFile)

	webutils.WriteJson(w, &transferResponse{
		TransferReport: report,
		Preview:        PreviewURL(req.Target, req.TargetObject, ch),
	})
}

func HandlerDumpObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m, kind, err := ServerLibrary.Mesh(vars["file"], vars["object"])
	if err != nil {
		webutils.WriteErrorCode(w, errorCode(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s renderer\n%s", kind, utils.SDump(m))
}

func HandlerDownloadFile(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	f, reader, err := ServerLibrary.Open(file)
	if err != nil {
		webutils.WriteErrorCode(w, errorCode(err), err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, reader, file)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] Status websocket upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}
