package service

import (
	"context"
	"sync"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
)

type mockJournalStore struct {
	CreateFolderFunc func(ctx context.Context, r store.CreateFolderRequest) (model.Folder, error)
	GetFolderFunc    func(ctx context.Context, id string) (model.Folder, error)
	GetFoldersFunc   func(ctx context.Context, userID string) ([]model.Folder, error)
	RenameFolderFunc func(ctx context.Context, r store.RenameFolderRequest) (model.Folder, error)
	DeleteFolderFunc func(ctx context.Context, r store.DeleteFolderRequest) error
	CreatePromptFunc func(ctx context.Context, r store.CreatePromptRequest) (model.Prompt, error)
	GetPromptsFunc   func(ctx context.Context, userID string) ([]model.Prompt, error)
	UpdatePromptFunc func(ctx context.Context, r store.UpdatePromptRequest) (model.Prompt, error)
	DeletePromptFunc func(ctx context.Context, r store.DeletePromptRequest) error
}

func (m *mockJournalStore) CreateFolder(ctx context.Context, r store.CreateFolderRequest) (model.Folder, error) {
	return m.CreateFolderFunc(ctx, r)
}

func (m *mockJournalStore) GetFolder(ctx context.Context, id string) (model.Folder, error) {
	return m.GetFolderFunc(ctx, id)
}

func (m *mockJournalStore) GetFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	return m.GetFoldersFunc(ctx, userID)
}

func (m *mockJournalStore) RenameFolder(ctx context.Context, r store.RenameFolderRequest) (model.Folder, error) {
	return m.RenameFolderFunc(ctx, r)
}

func (m *mockJournalStore) DeleteFolder(ctx context.Context, r store.DeleteFolderRequest) error {
	return m.DeleteFolderFunc(ctx, r)
}

func (m *mockJournalStore) CreatePrompt(ctx context.Context, r store.CreatePromptRequest) (model.Prompt, error) {
	return m.CreatePromptFunc(ctx, r)
}

func (m *mockJournalStore) GetPrompts(ctx context.Context, userID string) ([]model.Prompt, error) {
	return m.GetPromptsFunc(ctx, userID)
}

func (m *mockJournalStore) UpdatePrompt(ctx context.Context, r store.UpdatePromptRequest) (model.Prompt, error) {
	return m.UpdatePromptFunc(ctx, r)
}

func (m *mockJournalStore) DeletePrompt(ctx context.Context, r store.DeletePromptRequest) error {
	return m.DeletePromptFunc(ctx, r)
}

type mockPicksStore struct {
	CreatePickFunc            func(ctx context.Context, r store.CreatePickRequest) (model.Pick, error)
	GetPickFunc               func(ctx context.Context, id string) (model.Pick, error)
	GetPicksByWeekFunc        func(ctx context.Context, week string) ([]model.Pick, error)
	GetPicksExcludingWeekFunc func(ctx context.Context, week string) ([]model.Pick, error)
	GetUserPicksFunc          func(ctx context.Context, userID string) ([]model.Pick, error)
	CountUserPicksFunc        func(ctx context.Context, userID, week string) (int, error)
	DeletePickFunc            func(ctx context.Context, r store.DeletePickRequest) (model.Pick, error)
	UpsertProfileFunc         func(ctx context.Context, r store.UpsertProfileRequest) (model.Profile, error)
	GetProfilesFunc           func(ctx context.Context, ids []string) (map[string]model.Profile, error)
}

func (m *mockPicksStore) CreatePick(ctx context.Context, r store.CreatePickRequest) (model.Pick, error) {
	return m.CreatePickFunc(ctx, r)
}

func (m *mockPicksStore) GetPick(ctx context.Context, id string) (model.Pick, error) {
	return m.GetPickFunc(ctx, id)
}

func (m *mockPicksStore) GetPicksByWeek(ctx context.Context, week string) ([]model.Pick, error) {
	return m.GetPicksByWeekFunc(ctx, week)
}

func (m *mockPicksStore) GetPicksExcludingWeek(ctx context.Context, week string) ([]model.Pick, error) {
	return m.GetPicksExcludingWeekFunc(ctx, week)
}

func (m *mockPicksStore) GetUserPicks(ctx context.Context, userID string) ([]model.Pick, error) {
	return m.GetUserPicksFunc(ctx, userID)
}

func (m *mockPicksStore) CountUserPicks(ctx context.Context, userID, week string) (int, error) {
	return m.CountUserPicksFunc(ctx, userID, week)
}

func (m *mockPicksStore) DeletePick(ctx context.Context, r store.DeletePickRequest) (model.Pick, error) {
	return m.DeletePickFunc(ctx, r)
}

func (m *mockPicksStore) UpsertProfile(ctx context.Context, r store.UpsertProfileRequest) (model.Profile, error) {
	return m.UpsertProfileFunc(ctx, r)
}

func (m *mockPicksStore) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	return m.GetProfilesFunc(ctx, ids)
}

type mockDiscarder struct {
	mu        sync.Mutex
	discarded []model.LinkPreview
}

func (m *mockDiscarder) Discard(_ context.Context, _ string, lp model.LinkPreview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded = append(m.discarded, lp)
}
