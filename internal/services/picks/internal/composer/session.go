// Package composer owns pick authoring sessions: it watches the text for
// links, resolves them in the background, ingests attached photos and
// assembles the finished pick.
package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/ingest"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/preview"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/week"
)

type Resolver interface {
	Resolve(ctx context.Context, u string) preview.Result
}

type Ingester interface {
	Ingest(ctx context.Context, userID string, f ingest.File) (model.LinkPreview, error)
	Discard(ctx context.Context, userID string, lp model.LinkPreview)
}

type PickStore interface {
	CreatePick(ctx context.Context, r store.CreatePickRequest) (model.Pick, error)
	CountUserPicks(ctx context.Context, userID, week string) (int, error)
}

type Config struct {
	WeeklyLimit     int
	DefaultCategory string
	ResolveTimeout  time.Duration
	UploadTimeout   time.Duration
}

type Deps struct {
	Resolver   Resolver
	Ingester   Ingester
	Store      PickStore
	Categories *category.Registry
	Calendar   *week.Calendar
	Logger     *slog.Logger
}

type env struct {
	Deps
	cfg Config
	now func() time.Time
}

// State is a point-in-time copy of a session.
type State struct {
	Text      string              `json:"text"`
	Category  string              `json:"category"`
	Previews  []model.LinkPreview `json:"previews"`
	Errors    []string            `json:"errors"`
	Week      string              `json:"week"`
	Submitted int                 `json:"submitted"`
	Limit     int                 `json:"limit"`
	Remaining int                 `json:"remaining"`
	Quota     string              `json:"quota"`
	Pending   int                 `json:"pending"`
}

// Session is one user's pick in progress. All mutations happen under mu;
// background resolutions and uploads splice their results in by key and
// are dropped when their key is gone.
type Session struct {
	env    *env
	userID string
	wg     sync.WaitGroup

	mu        sync.Mutex
	text      string
	category  string
	previews  []model.LinkPreview
	errs      []string
	fileNames map[string]string
	absent    map[string]bool
	week      string
	submitted int
	epoch     uint64
	lastUsed  time.Time
}

func newSession(ctx context.Context, e *env, userID string) (*Session, error) {
	wk := e.Calendar.Current()
	n, err := e.Store.CountUserPicks(ctx, userID, wk)
	if err != nil {
		return nil, fmt.Errorf("count weekly picks: %w", err)
	}

	cat := e.cfg.DefaultCategory
	if !e.Categories.Valid(cat) {
		cat = e.Categories.All()[0].ID
	}

	return &Session{
		env:       e,
		userID:    userID,
		category:  cat,
		fileNames: make(map[string]string),
		absent:    make(map[string]bool),
		week:      wk,
		submitted: n,
		lastUsed:  e.now(),
	}, nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Wait blocks until every background resolution and upload has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// SetText reconciles the preview list with the links in text: new links get
// a loading preview and a background resolution, links no longer present
// lose their preview. Image previews are left alone.
func (s *Session) SetText(ctx context.Context, text string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.text = text
	urls := ExtractURLs(text)
	for _, u := range urls {
		if s.indexLocked(u) >= 0 || s.absent[u] {
			continue
		}

		s.previews = append(s.previews, model.LinkPreview{URL: u, State: model.PreviewLoading, Loading: true})
		s.resolve(ctx, u, s.epoch)
	}

	s.cullLocked(urls)
	return s.snapshotLocked()
}

func (s *Session) SetCategory(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !s.env.Categories.Valid(id) {
		return s.snapshotLocked(), unknownCategory(id)
	}

	s.category = id
	s.errs = nil
	return s.snapshotLocked(), nil
}

// AttachFiles validates a batch of photos and ingests the valid ones in the
// background. The error list is replaced by this batch's validation errors;
// upload failures are appended as they happen.
func (s *Session) AttachFiles(ctx context.Context, files []ingest.File) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !s.env.Categories.AcceptsImages(s.category) {
		return s.snapshotLocked(), imagesNotAccepted(s.category)
	}

	valid, errs := ingest.Validate(files)
	s.errs = errs

	for _, f := range valid {
		key := s.placeholderKeyLocked(f.Name)
		s.previews = append(s.previews, model.LinkPreview{
			URL:         key,
			State:       model.PreviewLoading,
			Loading:     true,
			Title:       f.Name,
			Description: "Uploading...",
			IsImage:     true,
			Provider:    model.ProviderImage,
		})
		s.upload(ctx, key, f, s.epoch)
	}

	return s.snapshotLocked(), nil
}

// RemovePreview dismisses a preview. A link preview also takes its link out
// of the text; an uploaded image is deleted from storage.
func (s *Session) RemovePreview(ctx context.Context, u string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	i := s.indexLocked(u)
	if i < 0 {
		return s.snapshotLocked(), previewNotFound(u)
	}

	p := s.previews[i]
	s.previews = slices.Delete(s.previews, i, i+1)
	delete(s.fileNames, u)

	if !p.IsImage {
		s.text = removeLink(s.text, u)
	} else if !p.IsLoading() {
		s.discard(ctx, p)
	}

	return s.snapshotLocked(), nil
}

func (s *Session) RatePreview(u string, rating int) (State, error) {
	if rating < 1 || rating > 5 {
		return s.State(), invalidRating(rating)
	}

	return s.update(u, false, func(p *model.LinkPreview) {
		p.Rating = rating
	})
}

func (s *Session) ReviewPreview(u, review string) (State, error) {
	return s.update(u, false, func(p *model.LinkPreview) {
		p.Review = review
	})
}

// TitleImage sets the user's caption for a photo. A blank title restores
// the file name.
func (s *Session) TitleImage(u, title string) (State, error) {
	return s.update(u, true, func(p *model.LinkPreview) {
		p.UserTitle = title
		p.Title = strings.TrimSpace(title)
		if p.Title == "" {
			p.Title = s.fileNames[u]
		}
		if p.Title == "" {
			p.Title = "Image"
		}
	})
}

func (s *Session) CommentImage(u, comment string) (State, error) {
	return s.update(u, true, func(p *model.LinkPreview) {
		p.UserComment = comment
	})
}

// Submit persists the pick. Empty picks and picks over the weekly quota are
// rejected before the store is called. The week label and the weekly count
// are taken now, not when the session started, so deletions and picks made
// from other instances are seen.
func (s *Session) Submit(ctx context.Context) (model.Pick, error) {
	if err := s.recount(ctx); err != nil {
		return model.Pick{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	previews := make([]model.LinkPreview, 0, len(s.previews))
	for _, p := range s.previews {
		if !p.IsLoading() {
			previews = append(previews, p)
		}
	}

	content := strings.TrimSpace(s.text)
	if content == "" && len(previews) == 0 {
		return model.Pick{}, emptyPick()
	}

	limit := s.env.cfg.WeeklyLimit
	if s.submitted >= limit {
		return model.Pick{}, quotaReached(limit)
	}

	pick, err := s.env.Store.CreatePick(ctx, store.CreatePickRequest{
		UserID:       s.userID,
		Category:     s.category,
		Content:      content,
		LinkPreviews: previews,
		WeekOf:       s.week,
		Limit:        limit,
	})
	if errors.Is(err, store.ErrLimitReached) {
		s.submitted = limit
		return model.Pick{}, quotaReached(limit)
	}
	if err != nil {
		return model.Pick{}, fmt.Errorf("create pick: %w", err)
	}

	s.clearLocked()
	s.submitted++
	return pick, nil
}

// Reset clears everything the session holds for the user and deletes
// uploaded photos that were never submitted. Background work still in
// flight is discarded when it lands.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.previews {
		if p.IsImage && !p.IsLoading() {
			s.discard(ctx, p)
		}
	}
	s.clearLocked()
}

func (s *Session) resolve(ctx context.Context, u string, epoch uint64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.env.cfg.ResolveTimeout)
		defer cancel()

		s.applyResolution(u, epoch, s.env.Resolver.Resolve(rctx, u))
	}()
}

func (s *Session) applyResolution(u string, epoch uint64, res preview.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(u)
	if epoch != s.epoch || i < 0 || !s.previews[i].IsLoading() {
		s.env.Logger.Debug("dropping stale preview", "url", u, "user_id", s.userID)
		return
	}

	switch res.Status {
	case preview.StatusResolved:
		p := res.Preview
		p.URL = u
		s.previews[i] = p

		// Swap the raw movie link for its title. The preview stays alive
		// through the title, so the rewrite doesn't trigger a new lookup.
		if title := preview.CanonicalTitle(p); title != "" && !res.Fallback {
			s.text = strings.Replace(s.text, u, title, 1)
		}
	case preview.StatusNotFound:
		s.previews = slices.Delete(s.previews, i, i+1)
		s.absent[u] = true
	default:
		s.env.Logger.Warn("preview unavailable", "url", u, "user_id", s.userID, "error", res.Err)
		s.previews[i].State = model.PreviewErrored
		s.previews[i].Loading = false
	}
}

func (s *Session) upload(ctx context.Context, key string, f ingest.File, epoch uint64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.env.cfg.UploadTimeout)
		defer cancel()

		lp, err := s.env.Ingester.Ingest(uctx, s.userID, f)
		if orphaned := s.applyUpload(key, epoch, f.Name, lp, err); orphaned {
			s.env.Ingester.Discard(uctx, s.userID, lp)
		}
	}()
}

// applyUpload reports whether a successful upload has nowhere to go and
// must be deleted.
func (s *Session) applyUpload(key string, epoch uint64, name string, lp model.LinkPreview, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := epoch == s.epoch
	i := -1
	if current {
		i = s.indexLocked(key)
	}

	if err != nil {
		s.env.Logger.Warn("image upload failed", "file", name, "user_id", s.userID, "error", err)
		if i >= 0 {
			s.previews = slices.Delete(s.previews, i, i+1)
		}
		if current {
			s.errs = append(s.errs, uploadMessage(name, err))
		}
		return false
	}

	if i < 0 {
		return true
	}

	s.previews[i] = lp
	s.fileNames[lp.URL] = name
	return false
}

func (s *Session) discard(ctx context.Context, p model.LinkPreview) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.env.cfg.UploadTimeout)
		defer cancel()
		s.env.Ingester.Discard(dctx, s.userID, p)
	}()
}

// rollover reloads the submitted count when the week label has moved on
// since the session last looked.
func (s *Session) rollover(ctx context.Context) error {
	s.mu.Lock()
	same := s.env.Calendar.Current() == s.week
	s.mu.Unlock()
	if same {
		return nil
	}
	return s.recount(ctx)
}

// recount reloads the week label and the user's pick count for it.
func (s *Session) recount(ctx context.Context) error {
	wk := s.env.Calendar.Current()
	n, err := s.env.Store.CountUserPicks(ctx, s.userID, wk)
	if err != nil {
		return fmt.Errorf("count weekly picks: %w", err)
	}

	s.mu.Lock()
	s.week = wk
	s.submitted = n
	s.mu.Unlock()
	return nil
}

func (s *Session) update(u string, imageOnly bool, fn func(p *model.LinkPreview)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	i := s.indexLocked(u)
	if i < 0 {
		return s.snapshotLocked(), previewNotFound(u)
	}
	if imageOnly && !s.previews[i].IsImage {
		return s.snapshotLocked(), notAnImage(u)
	}

	fn(&s.previews[i])
	return s.snapshotLocked(), nil
}

// cullLocked drops link previews whose link left the text. A movie preview
// whose link was swapped for its title lives as long as the title does.
func (s *Session) cullLocked(urls []string) {
	present := make(map[string]bool, len(urls))
	for _, u := range urls {
		present[u] = true
	}

	s.previews = slices.DeleteFunc(s.previews, func(p model.LinkPreview) bool {
		if p.IsImage || present[p.URL] {
			return false
		}
		if title := preview.CanonicalTitle(p); title != "" && strings.Contains(s.text, title) {
			return false
		}
		return true
	})

	for u := range s.absent {
		if !present[u] {
			delete(s.absent, u)
		}
	}
}

func (s *Session) placeholderKeyLocked(name string) string {
	key := "loading-" + name
	for n := 2; s.indexLocked(key) >= 0; n++ {
		key = fmt.Sprintf("loading-%s-%d", name, n)
	}
	return key
}

func (s *Session) indexLocked(u string) int {
	return slices.IndexFunc(s.previews, func(p model.LinkPreview) bool {
		return p.URL == u
	})
}

func (s *Session) clearLocked() {
	s.text = ""
	s.previews = nil
	s.errs = nil
	s.fileNames = make(map[string]string)
	s.absent = make(map[string]bool)
	s.epoch++
}

func (s *Session) touchLocked() {
	s.lastUsed = s.env.now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) snapshotLocked() State {
	limit := s.env.cfg.WeeklyLimit
	pending := 0
	for _, p := range s.previews {
		if p.IsLoading() {
			pending++
		}
	}

	return State{
		Text:      s.text,
		Category:  s.category,
		Previews:  append([]model.LinkPreview{}, s.previews...),
		Errors:    append([]string{}, s.errs...),
		Week:      s.week,
		Submitted: s.submitted,
		Limit:     limit,
		Remaining: max(limit-s.submitted, 0),
		Quota:     quotaMessage(s.submitted, limit),
		Pending:   pending,
	}
}

func quotaMessage(submitted, limit int) string {
	switch {
	case submitted >= limit:
		return fmt.Sprintf("You've submitted all %d picks for this week. New picks available next week!", limit)
	case submitted == limit-1:
		return fmt.Sprintf("You have 1 pick remaining this week (%d/%d)", submitted, limit)
	default:
		return fmt.Sprintf("You have %d picks remaining this week (%d/%d)", limit-submitted, submitted, limit)
	}
}

func uploadMessage(name string, err error) string {
	var fe *ingest.FileError
	if errors.As(err, &fe) {
		return fe.Msg
	}
	return fmt.Sprintf("Failed to upload %s", name)
}
