package rest

import (
	"encoding/json"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
)

func invalidBody(err error) error {
	return serr.NewServiceError(err, http.StatusBadRequest, "invalid request body")
}

func (api *API) handleGetFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := api.journal.Folders(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, folders)
}

type folderRequest struct {
	Name string `json:"name"`
}

func (api *API) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	f, err := api.journal.CreateFolder(r.Context(), userID(r), req.Name)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, f)
}

func (api *API) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	f, err := api.journal.RenameFolder(r.Context(), userID(r), r.PathValue("id"), req.Name)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, f)
}

func (api *API) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := api.journal.DeleteFolder(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *API) handleGetPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := api.journal.Prompts(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, prompts)
}

type createPromptRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	FolderID *string `json:"folderId"`
}

func (api *API) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req createPromptRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	p, err := api.journal.CreatePrompt(r.Context(), service.CreatePromptRequest{
		UserID:   userID(r),
		Title:    req.Title,
		Content:  req.Content,
		FolderID: req.FolderID,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, p)
}

// updatePromptRequest leaves absent fields untouched. A present folderId
// moves the prompt; null moves it out of its folder.
type updatePromptRequest struct {
	Title    *string         `json:"title"`
	Content  *string         `json:"content"`
	FolderID json.RawMessage `json:"folderId"`
}

func (api *API) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req updatePromptRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, invalidBody(err))
		return
	}

	upd := service.UpdatePromptRequest{
		ID:      r.PathValue("id"),
		UserID:  userID(r),
		Title:   req.Title,
		Content: req.Content,
	}
	if len(req.FolderID) > 0 {
		upd.MoveFolder = true
		if err := json.Unmarshal(req.FolderID, &upd.FolderID); err != nil {
			httpx.HandleErr(w, r, invalidBody(err))
			return
		}
	}

	p, err := api.journal.UpdatePrompt(r.Context(), upd)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, p)
}

func (api *API) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := api.journal.DeletePrompt(r.Context(), userID(r), r.PathValue("id")); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
