package rest

import (
	"io"
	"net/http"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/services/image/internal/service"
)

const (
	imageField = "image"
	pathField  = "path"
)

type objectStore interface {
	Put(userID, objPath string, img io.Reader) (service.Object, error)
	Delete(userID, objPath string) error
}

type APIOption func(*API) *API

func WithObjectStore(srv objectStore) APIOption {
	return func(api *API) *API {
		api.srv = srv
		return api
	}
}

func WithMaxImageSize(size int64) APIOption {
	return func(api *API) *API {
		api.maxImgSize = size
		return api
	}
}

// API serves the authenticated object endpoints. Public reads go through
// Files.
type API struct {
	srv        objectStore
	maxImgSize int64
	mux        *http.ServeMux
}

func NewAPI(opts ...APIOption) *API {
	api := &API{
		mux: http.NewServeMux(),
	}

	for _, opt := range opts {
		api = opt(api)
	}

	if api.srv == nil {
		panic("object store is required")
	}

	api.mount()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mux.ServeHTTP(w, r)
}

func (api *API) mount() {
	api.mux.HandleFunc("POST /objects", api.handlePutObject)
	api.mux.HandleFunc("DELETE /objects/{path...}", api.handleDeleteObject)
}

// Files serves stored objects read-only. Directory listings are hidden.
func Files(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

func (api *API) handlePutObject(w http.ResponseWriter, r *http.Request) {
	if api.maxImgSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, api.maxImgSize+1<<20)
	}

	f, _, err := r.FormFile(imageField)
	if err != nil {
		httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadRequest, "invalid image"))
		return
	}
	defer f.Close()

	objPath := r.FormValue(pathField)
	if objPath == "" {
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusBadRequest, "path is required"))
		return
	}

	var img io.Reader = f
	if api.maxImgSize > 0 {
		img = http.MaxBytesReader(w, f, api.maxImgSize)
	}

	obj, err := api.srv.Put(middleware.UserIDFromContext(r.Context()), objPath, img)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, obj); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (api *API) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	err := api.srv.Delete(middleware.UserIDFromContext(r.Context()), r.PathValue("path"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
