package rest

import (
	"log/slog"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/gallery"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
)

func (api *API) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, api.picks.Week())
}

func (api *API) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, api.picks.Categories())
}

func optional(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func (api *API) handleGetGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.GalleryRequest{
		Category: optional(r, "category"),
		UserID:   optional(r, "user"),
		Expanded: q.Get("expanded") == "true",
	}
	if q.Get("order") == "name" {
		req.Order = gallery.ByName
	}

	view, err := api.picks.CurrentGallery(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, view)
}

func (api *API) handleGetWeeks(w http.ResponseWriter, r *http.Request) {
	groups, err := api.picks.PastWeeks(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, groups)
}

func (api *API) handleGetMyPicks(w http.ResponseWriter, r *http.Request) {
	picks, err := api.picks.UserPicks(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, picks)
}

func (api *API) handleGetPick(w http.ResponseWriter, r *http.Request) {
	pick, err := api.picks.Pick(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, pick)
}

func (api *API) handleDeletePick(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if err := api.picks.DeletePick(r.Context(), uid, r.PathValue("id")); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	// the pick is gone either way; a stale count is fixed at the next submit
	if err := api.sessions.Recount(r.Context(), uid); err != nil {
		slog.Warn("failed to recount weekly picks", "error", err, "user_id", uid)
	}

	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
}

// handleUpsertProfile falls back to the token's email when the body has none.
func (api *API) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}
	if req.Email == "" {
		req.Email = middleware.EmailFromContext(r.Context())
	}

	p, err := api.picks.UpsertProfile(r.Context(), service.UpsertProfileRequest{
		UserID:    userID(r),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, p)
}
