package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/inimart/uv_transfer_tool/library"
)

var ServerLibrary *library.Library

// NewRouter builds handler for library, static files from webPath/data are served when webPath is set
func NewRouter(l *library.Library, webPath string) *mux.Router {
	ServerLibrary = l

	r := mux.NewRouter()
	r.HandleFunc("/json/library", HandlerAjaxLibrary)
	r.HandleFunc("/json/library/{file}", HandlerAjaxLibraryFile)
	r.HandleFunc("/json/formats", HandlerAjaxFormats)
	r.HandleFunc("/preview/{file}/{object:.+}/{channel:-?[0-9]+}.{format}", HandlerPreview)
	r.HandleFunc("/action/transfer", HandlerActionTransfer).Methods("POST")
	r.HandleFunc("/dump/{file}/{object:.+}", HandlerDumpObject)
	r.HandleFunc("/download/{file}", HandlerDownloadFile)
	r.HandleFunc("/ws/status", HandlerStatus)

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, l *library.Library, webPath string) error {
	r := NewRouter(l, webPath)

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
