package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/composer"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/ingest"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/preview"
)

const (
	imagesField    = "images"
	maxUploadBytes = 8 * ingest.MaxOriginalBytes
	maxFormMemory  = 32 << 20
)

// session loads the caller's composer session or answers with the error.
func (api *API) session(w http.ResponseWriter, r *http.Request) (*composer.Session, bool) {
	s, err := api.sessions.Session(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return nil, false
	}
	return s, true
}

// handleGetComposer returns the session state. With wait=true it first
// lets pending resolutions and uploads settle.
func (api *API) handleGetComposer(w http.ResponseWriter, r *http.Request) {
	s, ok := api.session(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		s.Wait()
	}
	writeJSON(w, r, http.StatusOK, s.State())
}

func (api *API) handleDropComposer(w http.ResponseWriter, r *http.Request) {
	api.sessions.Drop(r.Context(), userID(r))
	w.WriteHeader(http.StatusNoContent)
}

type textRequest struct {
	Text string `json:"text"`
}

func (api *API) handleSetText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	s, ok := api.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, s.SetText(r.Context(), req.Text))
}

type categoryRequest struct {
	Category string `json:"category"`
}

func (api *API) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	s, ok := api.session(w, r)
	if !ok {
		return
	}

	state, err := s.SetCategory(req.Category)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (api *API) handleAttachFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.HandleErr(w, r, serr.NewServiceError(err, status, "invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[imagesField]
	if len(headers) == 0 {
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusBadRequest, "no files in field %q", imagesField))
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			httpx.HandleErr(w, r, fmt.Errorf("open %s: %w", h.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			httpx.HandleErr(w, r, fmt.Errorf("read %s: %w", h.Filename, err))
			return
		}

		files = append(files, ingest.File{
			Name:        h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	s, ok := api.session(w, r)
	if !ok {
		return
	}

	state, err := s.AttachFiles(r.Context(), files)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, state)
}

func (api *API) handleRemovePreview(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("url")
	if u == "" {
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusBadRequest, "url is required"))
		return
	}

	s, ok := api.session(w, r)
	if !ok {
		return
	}

	state, err := s.RemovePreview(r.Context(), u)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

// annotateRequest edits one preview. Only the fields present are applied.
type annotateRequest struct {
	URL     string  `json:"url"`
	Rating  *int    `json:"rating"`
	Review  *string `json:"review"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

func (api *API) handleAnnotatePreview(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	s, ok := api.session(w, r)
	if !ok {
		return
	}

	var edits []func() (composer.State, error)
	if req.Rating != nil {
		edits = append(edits, func() (composer.State, error) { return s.RatePreview(req.URL, *req.Rating) })
	}
	if req.Review != nil {
		edits = append(edits, func() (composer.State, error) { return s.ReviewPreview(req.URL, *req.Review) })
	}
	if req.Title != nil {
		edits = append(edits, func() (composer.State, error) { return s.TitleImage(req.URL, *req.Title) })
	}
	if req.Comment != nil {
		edits = append(edits, func() (composer.State, error) { return s.CommentImage(req.URL, *req.Comment) })
	}

	state := s.State()
	for _, edit := range edits {
		var err error
		if state, err = edit(); err != nil {
			httpx.HandleErr(w, r, err)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (api *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := api.session(w, r)
	if !ok {
		return
	}

	pick, err := s.Submit(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	api.picks.Added(pick)
	writeJSON(w, r, http.StatusCreated, pick)
}

// handleFindMovie looks a title up in the movie database, for clients that
// turn quoted titles into previews.
func (api *API) handleFindMovie(w http.ResponseWriter, r *http.Request) {
	if api.movies == nil {
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusServiceUnavailable, "movie lookup is not configured"))
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusBadRequest, "title is required"))
		return
	}

	kind := preview.KindAny
	switch t := r.URL.Query().Get("type"); t {
	case "":
	case string(preview.KindMovie), string(preview.KindSeries):
		kind = preview.Kind(t)
	default:
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusBadRequest, "unknown type %q", t))
		return
	}

	res := api.movies.ResolveTitle(r.Context(), title, kind)
	switch res.Status {
	case preview.StatusResolved:
		writeJSON(w, r, http.StatusOK, res.Preview)
	case preview.StatusNotFound:
		httpx.HandleErr(w, r, serr.NewServiceError(nil, http.StatusNotFound, "no title matches %q", title))
	default:
		httpx.HandleErr(w, r, serr.NewServiceError(res.Err, http.StatusBadGateway, "movie database unavailable"))
	}
}
