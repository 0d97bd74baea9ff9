package rest

import (
	"context"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/composer"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/gallery"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/preview"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
)

type journalService interface {
	Folders(ctx context.Context, userID string) ([]model.Folder, error)
	CreateFolder(ctx context.Context, userID, name string) (model.Folder, error)
	RenameFolder(ctx context.Context, userID, id, name string) (model.Folder, error)
	DeleteFolder(ctx context.Context, userID, id string) error
	Prompts(ctx context.Context, userID string) ([]model.Prompt, error)
	CreatePrompt(ctx context.Context, r service.CreatePromptRequest) (model.Prompt, error)
	UpdatePrompt(ctx context.Context, r service.UpdatePromptRequest) (model.Prompt, error)
	DeletePrompt(ctx context.Context, userID, id string) error
}

type picksService interface {
	Week() service.WeekInfo
	Categories() []category.Category
	CurrentGallery(ctx context.Context, r service.GalleryRequest) (gallery.View, error)
	PastWeeks(ctx context.Context) ([]gallery.WeekGroup, error)
	UserPicks(ctx context.Context, userID string) ([]model.Pick, error)
	Pick(ctx context.Context, id string) (model.Pick, error)
	Added(p model.Pick)
	DeletePick(ctx context.Context, userID, id string) error
	UpsertProfile(ctx context.Context, r service.UpsertProfileRequest) (model.Profile, error)
}

type composerSessions interface {
	Session(ctx context.Context, userID string) (*composer.Session, error)
	Drop(ctx context.Context, userID string)
	Recount(ctx context.Context, userID string) error
}

type movieLookup interface {
	ResolveTitle(ctx context.Context, title string, kind preview.Kind) preview.Result
}

// API serves the journal and picks routes. It expects the auth middleware
// to have put the caller's id in the request context.
type API struct {
	journal  journalService
	picks    picksService
	sessions composerSessions
	movies   movieLookup
	mux      http.ServeMux
}

// NewAPI builds the API. movies may be nil when no movie database key is
// configured; the lookup route then answers 503.
func NewAPI(journal journalService, picks picksService, sessions composerSessions, movies movieLookup) *API {
	api := &API{
		journal:  journal,
		picks:    picks,
		sessions: sessions,
		movies:   movies,
		mux:      *http.NewServeMux(),
	}

	api.mount()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mux.ServeHTTP(w, r)
}

func (api *API) mount() {
	api.mux.HandleFunc("GET /folders", api.handleGetFolders)
	api.mux.HandleFunc("POST /folders", api.handleCreateFolder)
	api.mux.HandleFunc("PATCH /folders/{id}", api.handleRenameFolder)
	api.mux.HandleFunc("DELETE /folders/{id}", api.handleDeleteFolder)

	api.mux.HandleFunc("GET /prompts", api.handleGetPrompts)
	api.mux.HandleFunc("POST /prompts", api.handleCreatePrompt)
	api.mux.HandleFunc("PATCH /prompts/{id}", api.handleUpdatePrompt)
	api.mux.HandleFunc("DELETE /prompts/{id}", api.handleDeletePrompt)

	api.mux.HandleFunc("PUT /profile", api.handleUpsertProfile)

	api.mux.HandleFunc("GET /composer", api.handleGetComposer)
	api.mux.HandleFunc("DELETE /composer", api.handleDropComposer)
	api.mux.HandleFunc("PUT /composer/text", api.handleSetText)
	api.mux.HandleFunc("PUT /composer/category", api.handleSetCategory)
	api.mux.HandleFunc("POST /composer/files", api.handleAttachFiles)
	api.mux.HandleFunc("DELETE /composer/previews", api.handleRemovePreview)
	api.mux.HandleFunc("PATCH /composer/previews", api.handleAnnotatePreview)
	api.mux.HandleFunc("POST /composer/submit", api.handleSubmit)
	api.mux.HandleFunc("GET /movies", api.handleFindMovie)

	api.mux.HandleFunc("GET /week", api.handleGetWeek)
	api.mux.HandleFunc("GET /categories", api.handleGetCategories)
	api.mux.HandleFunc("GET /gallery", api.handleGetGallery)
	api.mux.HandleFunc("GET /gallery/weeks", api.handleGetWeeks)
	api.mux.HandleFunc("GET /picks/mine", api.handleGetMyPicks)
	api.mux.HandleFunc("GET /picks/{id}", api.handleGetPick)
	api.mux.HandleFunc("DELETE /picks/{id}", api.handleDeletePick)
}

func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp any) {
	if err := httpx.WriteJSON(w, status, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}
