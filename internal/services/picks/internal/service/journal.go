package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
)

// Journal manages a user's folders and prompts.
type Journal struct {
	store store.JournalStore
}

func NewJournal(s store.JournalStore) *Journal {
	return &Journal{store: s}
}

func (j *Journal) Folders(ctx context.Context, userID string) ([]model.Folder, error) {
	folders, err := j.store.GetFolders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get folders: %w", err)
	}
	return folders, nil
}

// CreateFolder adds a folder. Names are trimmed and must be unique per user.
func (j *Journal) CreateFolder(ctx context.Context, userID, name string) (model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Folder{}, badRequest("folder name is required")
	}

	f, err := j.store.CreateFolder(ctx, store.CreateFolderRequest{UserID: userID, Name: name})
	if err != nil {
		return f, storeErr(err, "create folder", "folder", name)
	}
	return f, nil
}

func (j *Journal) RenameFolder(ctx context.Context, userID, id, name string) (model.Folder, error) {
	if err := checkID("folder", id); err != nil {
		return model.Folder{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Folder{}, badRequest("folder name is required")
	}

	f, err := j.store.RenameFolder(ctx, store.RenameFolderRequest{ID: id, UserID: userID, Name: name})
	if err != nil {
		return f, storeErr(err, "rename folder", "folder", id)
	}
	return f, nil
}

// DeleteFolder removes a folder. Its prompts are kept and moved out of it.
func (j *Journal) DeleteFolder(ctx context.Context, userID, id string) error {
	if err := checkID("folder", id); err != nil {
		return err
	}

	if err := j.store.DeleteFolder(ctx, store.DeleteFolderRequest{ID: id, UserID: userID}); err != nil {
		return storeErr(err, "delete folder", "folder", id)
	}
	return nil
}

func (j *Journal) Prompts(ctx context.Context, userID string) ([]model.Prompt, error) {
	prompts, err := j.store.GetPrompts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get prompts: %w", err)
	}
	return prompts, nil
}

type CreatePromptRequest struct {
	UserID   string
	Title    string
	Content  string
	FolderID *string
}

func (j *Journal) CreatePrompt(ctx context.Context, r CreatePromptRequest) (model.Prompt, error) {
	if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Content) == "" {
		return model.Prompt{}, badRequest("prompt needs a title or content")
	}
	if err := j.checkFolder(ctx, r.UserID, r.FolderID); err != nil {
		return model.Prompt{}, err
	}

	p, err := j.store.CreatePrompt(ctx, store.CreatePromptRequest{
		UserID:   r.UserID,
		Title:    r.Title,
		Content:  r.Content,
		FolderID: r.FolderID,
	})
	if err != nil {
		return p, storeErr(err, "create prompt", "folder", deref(r.FolderID))
	}
	return p, nil
}

// UpdatePromptRequest changes the fields that are set. When MoveFolder is
// true the prompt moves to FolderID, or out of any folder if it is nil.
type UpdatePromptRequest struct {
	ID         string
	UserID     string
	Title      *string
	Content    *string
	MoveFolder bool
	FolderID   *string
}

func (j *Journal) UpdatePrompt(ctx context.Context, r UpdatePromptRequest) (model.Prompt, error) {
	if err := checkID("prompt", r.ID); err != nil {
		return model.Prompt{}, err
	}
	if r.MoveFolder {
		if err := j.checkFolder(ctx, r.UserID, r.FolderID); err != nil {
			return model.Prompt{}, err
		}
	}

	p, err := j.store.UpdatePrompt(ctx, store.UpdatePromptRequest{
		ID:         r.ID,
		UserID:     r.UserID,
		Title:      r.Title,
		Content:    r.Content,
		MoveFolder: r.MoveFolder,
		FolderID:   r.FolderID,
	})
	if err != nil {
		return p, storeErr(err, "update prompt", "prompt", r.ID)
	}
	return p, nil
}

func (j *Journal) DeletePrompt(ctx context.Context, userID, id string) error {
	if err := checkID("prompt", id); err != nil {
		return err
	}

	if err := j.store.DeletePrompt(ctx, store.DeletePromptRequest{ID: id, UserID: userID}); err != nil {
		return storeErr(err, "delete prompt", "prompt", id)
	}
	return nil
}

// checkFolder makes sure a prompt can only be filed in the user's own
// folders. A nil id means no folder.
func (j *Journal) checkFolder(ctx context.Context, userID string, id *string) error {
	if id == nil {
		return nil
	}
	if err := checkID("folder", *id); err != nil {
		return err
	}

	f, err := j.store.GetFolder(ctx, *id)
	if err != nil {
		return storeErr(err, "get folder", "folder", *id)
	}
	if f.UserID != userID {
		return serr.NewServiceError(store.ErrForbidden, http.StatusForbidden, "folder belongs to another user").With("id", *id)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
