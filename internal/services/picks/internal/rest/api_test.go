package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/composer"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/gallery"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/ingest"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/preview"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/service"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/week"
)

const thisWeek = "Jun 1 - Jun 7, 2025"

type mockJournal struct {
	FoldersFunc      func(ctx context.Context, userID string) ([]model.Folder, error)
	CreateFolderFunc func(ctx context.Context, userID, name string) (model.Folder, error)
	RenameFolderFunc func(ctx context.Context, userID, id, name string) (model.Folder, error)
	DeleteFolderFunc func(ctx context.Context, userID, id string) error
	PromptsFunc      func(ctx context.Context, userID string) ([]model.Prompt, error)
	CreatePromptFunc func(ctx context.Context, r service.CreatePromptRequest) (model.Prompt, error)
	UpdatePromptFunc func(ctx context.Context, r service.UpdatePromptRequest) (model.Prompt, error)
	DeletePromptFunc func(ctx context.Context, userID, id string) error
}

func (m *mockJournal) Folders(ctx context.Context, userID string) ([]model.Folder, error) {
	return m.FoldersFunc(ctx, userID)
}

func (m *mockJournal) CreateFolder(ctx context.Context, userID, name string) (model.Folder, error) {
	return m.CreateFolderFunc(ctx, userID, name)
}

func (m *mockJournal) RenameFolder(ctx context.Context, userID, id, name string) (model.Folder, error) {
	return m.RenameFolderFunc(ctx, userID, id, name)
}

func (m *mockJournal) DeleteFolder(ctx context.Context, userID, id string) error {
	return m.DeleteFolderFunc(ctx, userID, id)
}

func (m *mockJournal) Prompts(ctx context.Context, userID string) ([]model.Prompt, error) {
	return m.PromptsFunc(ctx, userID)
}

func (m *mockJournal) CreatePrompt(ctx context.Context, r service.CreatePromptRequest) (model.Prompt, error) {
	return m.CreatePromptFunc(ctx, r)
}

func (m *mockJournal) UpdatePrompt(ctx context.Context, r service.UpdatePromptRequest) (model.Prompt, error) {
	return m.UpdatePromptFunc(ctx, r)
}

func (m *mockJournal) DeletePrompt(ctx context.Context, userID, id string) error {
	return m.DeletePromptFunc(ctx, userID, id)
}

type mockPicks struct {
	CurrentGalleryFunc func(ctx context.Context, r service.GalleryRequest) (gallery.View, error)
	PastWeeksFunc      func(ctx context.Context) ([]gallery.WeekGroup, error)
	UserPicksFunc      func(ctx context.Context, userID string) ([]model.Pick, error)
	PickFunc           func(ctx context.Context, id string) (model.Pick, error)
	DeletePickFunc     func(ctx context.Context, userID, id string) error
	UpsertProfileFunc  func(ctx context.Context, r service.UpsertProfileRequest) (model.Profile, error)

	added []model.Pick
}

func (m *mockPicks) Week() service.WeekInfo {
	return service.WeekInfo{Label: thisWeek}
}

func (m *mockPicks) Categories() []category.Category {
	return category.Default().All()
}

func (m *mockPicks) CurrentGallery(ctx context.Context, r service.GalleryRequest) (gallery.View, error) {
	return m.CurrentGalleryFunc(ctx, r)
}

func (m *mockPicks) PastWeeks(ctx context.Context) ([]gallery.WeekGroup, error) {
	return m.PastWeeksFunc(ctx)
}

func (m *mockPicks) UserPicks(ctx context.Context, userID string) ([]model.Pick, error) {
	return m.UserPicksFunc(ctx, userID)
}

func (m *mockPicks) Pick(ctx context.Context, id string) (model.Pick, error) {
	return m.PickFunc(ctx, id)
}

func (m *mockPicks) Added(p model.Pick) {
	m.added = append(m.added, p)
}

func (m *mockPicks) DeletePick(ctx context.Context, userID, id string) error {
	return m.DeletePickFunc(ctx, userID, id)
}

func (m *mockPicks) UpsertProfile(ctx context.Context, r service.UpsertProfileRequest) (model.Profile, error) {
	return m.UpsertProfileFunc(ctx, r)
}

type mockMovies struct {
	ResolveTitleFunc func(ctx context.Context, title string, kind preview.Kind) preview.Result
}

func (m *mockMovies) ResolveTitle(ctx context.Context, title string, kind preview.Kind) preview.Result {
	return m.ResolveTitleFunc(ctx, title, kind)
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, u string) preview.Result {
	return preview.Resolved(model.LinkPreview{URL: u, Title: "Preview of " + u, Provider: model.ProviderSite})
}

type stubIngester struct{}

func (stubIngester) Ingest(ctx context.Context, userID string, f ingest.File) (model.LinkPreview, error) {
	u := "http://images.local/picks/" + userID + "/" + f.Name
	return model.LinkPreview{URL: u, Image: u, IsImage: true, Title: f.Name, State: model.PreviewResolved}, nil
}

func (stubIngester) Discard(ctx context.Context, userID string, lp model.LinkPreview) {}

type memStore struct {
	mu    sync.Mutex
	picks []model.Pick
}

func (m *memStore) CreatePick(ctx context.Context, r store.CreatePickRequest) (model.Pick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Pick{
		ID:           "pick-1",
		UserID:       r.UserID,
		Category:     r.Category,
		Content:      r.Content,
		LinkPreviews: r.LinkPreviews,
		WeekOf:       r.WeekOf,
	}
	m.picks = append(m.picks, p)
	return p, nil
}

func (m *memStore) CountUserPicks(ctx context.Context, userID, wk string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.picks {
		if p.UserID == userID && p.WeekOf == wk {
			n++
		}
	}
	return n, nil
}

type testAPI struct {
	*API
	journal *mockJournal
	picks   *mockPicks
	movies  *mockMovies
	store   *memStore
}

func newTestAPI() *testAPI {
	now := func() time.Time { return time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC) }
	st := &memStore{}
	mgr := composer.NewManager(composer.Deps{
		Resolver:   stubResolver{},
		Ingester:   stubIngester{},
		Store:      st,
		Categories: category.Default(),
		Calendar:   week.NewCalendar(time.UTC, now),
	}, composer.Config{WeeklyLimit: 2}, composer.WithClock(now))

	ta := &testAPI{
		journal: &mockJournal{},
		picks:   &mockPicks{},
		movies:  &mockMovies{},
		store:   st,
	}
	ta.API = NewAPI(ta.journal, ta.picks, mgr, ta.movies)
	return ta
}

func serveRaw(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
