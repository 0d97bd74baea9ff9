package store

import (
	"context"
	"errors"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrExists    = errors.New("already exists")
	ErrForbidden = errors.New("owned by another user")

	ErrLimitReached = errors.New("weekly pick limit reached")
)

// Store is the persistence gateway for picks, the journal and profiles.
// Every mutation is scoped to the acting user: touching someone else's row
// yields ErrForbidden, a missing row ErrNotFound.
type Store interface {
	PickStore
	JournalStore
	ProfileStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type PickStore interface {
	CreatePick(ctx context.Context, r CreatePickRequest) (model.Pick, error)
	GetPick(ctx context.Context, id string) (model.Pick, error)
	GetPicksByWeek(ctx context.Context, week string) ([]model.Pick, error)
	GetPicksExcludingWeek(ctx context.Context, week string) ([]model.Pick, error)
	GetUserPicks(ctx context.Context, userID string) ([]model.Pick, error)
	CountUserPicks(ctx context.Context, userID, week string) (int, error)
	DeletePick(ctx context.Context, r DeletePickRequest) (model.Pick, error)
}

type JournalStore interface {
	CreateFolder(ctx context.Context, r CreateFolderRequest) (model.Folder, error)
	GetFolder(ctx context.Context, id string) (model.Folder, error)
	GetFolders(ctx context.Context, userID string) ([]model.Folder, error)
	RenameFolder(ctx context.Context, r RenameFolderRequest) (model.Folder, error)
	DeleteFolder(ctx context.Context, r DeleteFolderRequest) error
	CreatePrompt(ctx context.Context, r CreatePromptRequest) (model.Prompt, error)
	GetPrompts(ctx context.Context, userID string) ([]model.Prompt, error)
	UpdatePrompt(ctx context.Context, r UpdatePromptRequest) (model.Prompt, error)
	DeletePrompt(ctx context.Context, r DeletePromptRequest) error
}

type ProfileStore interface {
	UpsertProfile(ctx context.Context, r UpsertProfileRequest) (model.Profile, error)
	GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error)
}

type CreatePickRequest struct {
	UserID       string
	Category     string
	Content      string
	LinkPreviews []model.LinkPreview
	WeekOf       string
	// Limit caps the user's picks in WeekOf; zero means no cap.
	Limit int
}

type DeletePickRequest struct {
	ID     string
	UserID string
}

type CreateFolderRequest struct {
	UserID string
	Name   string
}

type RenameFolderRequest struct {
	ID     string
	UserID string
	Name   string
}

type DeleteFolderRequest struct {
	ID     string
	UserID string
}

type CreatePromptRequest struct {
	UserID   string
	Title    string
	Content  string
	FolderID *string
}

// UpdatePromptRequest changes only the fields that are set. FolderID is
// applied when MoveFolder is true; a nil FolderID then moves the prompt out
// of any folder.
type UpdatePromptRequest struct {
	ID         string
	UserID     string
	Title      *string
	Content    *string
	MoveFolder bool
	FolderID   *string
}

type DeletePromptRequest struct {
	ID     string
	UserID string
}

type UpsertProfileRequest struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	AvatarURL string
}
