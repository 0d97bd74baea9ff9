package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/gallery"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/store"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/week"
)

const DefaultGalleryRefresh = time.Minute

type PicksStore interface {
	store.PickStore
	store.ProfileStore
}

// Discarder removes the stored object behind an uploaded image preview.
type Discarder interface {
	Discard(ctx context.Context, userID string, lp model.LinkPreview)
}

// Picks serves the weekly gallery. The current week's picks are held in one
// shared gallery that is reloaded when the week rolls over or the copy is
// older than the refresh interval.
type Picks struct {
	store     PicksStore
	discarder Discarder
	reg       *category.Registry
	cal       *week.Calendar
	refresh   time.Duration
	log       *slog.Logger

	mu       sync.Mutex
	current  *gallery.Gallery
	week     string
	loadedAt time.Time
}

type PicksOption func(*Picks)

func WithRefresh(d time.Duration) PicksOption {
	return func(p *Picks) {
		if d > 0 {
			p.refresh = d
		}
	}
}

func WithLogger(l *slog.Logger) PicksOption {
	return func(p *Picks) {
		if l != nil {
			p.log = l
		}
	}
}

func NewPicks(s PicksStore, d Discarder, reg *category.Registry, cal *week.Calendar, opts ...PicksOption) *Picks {
	p := &Picks{
		store:     s,
		discarder: d,
		reg:       reg,
		cal:       cal,
		refresh:   DefaultGalleryRefresh,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type WeekInfo struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p *Picks) Week() WeekInfo {
	now := p.cal.Now()
	start, end := week.Bounds(now)
	return WeekInfo{Label: week.Label(now), Start: start, End: end}
}

func (p *Picks) Categories() []category.Category {
	return p.reg.All()
}

type GalleryRequest struct {
	Category *string
	UserID   *string
	Order    gallery.ContributorOrder
	Expanded bool
}

// CurrentGallery renders this week's picks under the given filter.
func (p *Picks) CurrentGallery(ctx context.Context, r GalleryRequest) (gallery.View, error) {
	if r.Category != nil && !p.reg.Valid(*r.Category) {
		return gallery.View{}, badRequest("unknown category %q", *r.Category)
	}

	g, err := p.gallery(ctx)
	if err != nil {
		return gallery.View{}, err
	}

	size := gallery.TileSize
	if r.Expanded {
		size = gallery.TileSizeExpanded
	}
	return g.View(gallery.Filter{Category: r.Category, UserID: r.UserID}, r.Order, size), nil
}

// PastWeeks groups every pick outside the current week by its label.
func (p *Picks) PastWeeks(ctx context.Context) ([]gallery.WeekGroup, error) {
	current := p.cal.Current()
	picks, err := p.store.GetPicksExcludingWeek(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("get past picks: %w", err)
	}
	return gallery.WeekGroups(picks, current, p.reg), nil
}

func (p *Picks) UserPicks(ctx context.Context, userID string) ([]model.Pick, error) {
	picks, err := p.store.GetUserPicks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user picks: %w", err)
	}
	return picks, nil
}

// Pick returns one pick by id. This week's picks come from the shared
// gallery; older ones are read from the store.
func (p *Picks) Pick(ctx context.Context, id string) (model.Pick, error) {
	if err := checkID("pick", id); err != nil {
		return model.Pick{}, err
	}

	g, err := p.gallery(ctx)
	if err != nil {
		return model.Pick{}, err
	}
	if pick, ok := g.Pick(id); ok {
		return pick, nil
	}

	pick, err := p.store.GetPick(ctx, id)
	if err != nil {
		return model.Pick{}, storeErr(err, "get pick", "pick", id)
	}
	return pick, nil
}

// Added puts a freshly submitted pick into the shared gallery without a
// reload. Picks for another week are ignored.
func (p *Picks) Added(pick model.Pick) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil && p.week == pick.WeekOf {
		p.current.Add(pick)
	}
}

// DeletePick removes one of the user's picks, then the uploaded images it
// referenced. Image cleanup is best effort.
func (p *Picks) DeletePick(ctx context.Context, userID, id string) error {
	if err := checkID("pick", id); err != nil {
		return err
	}

	g, err := p.gallery(ctx)
	if err != nil {
		return err
	}
	return g.Delete(ctx, userID, id)
}

type UpsertProfileRequest struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	AvatarURL string
}

// UpsertProfile stores the user's display details. The shared gallery is
// dropped so contributor names pick up the change.
func (p *Picks) UpsertProfile(ctx context.Context, r UpsertProfileRequest) (model.Profile, error) {
	prof, err := p.store.UpsertProfile(ctx, store.UpsertProfileRequest{
		ID:        r.UserID,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     strings.TrimSpace(r.Email),
		AvatarURL: strings.TrimSpace(r.AvatarURL),
	})
	if err != nil {
		return prof, fmt.Errorf("upsert profile: %w", err)
	}

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return prof, nil
}

func (p *Picks) gallery(ctx context.Context) (*gallery.Gallery, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	label := p.cal.Current()
	now := p.cal.Now()
	if p.current != nil && p.week == label && now.Sub(p.loadedAt) < p.refresh {
		return p.current, nil
	}

	picks, err := p.store.GetPicksByWeek(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("get picks for %s: %w", label, err)
	}

	g := gallery.New(p.reg, remover{p})
	g.Load(picks)
	p.current, p.week, p.loadedAt = g, label, now
	return g, nil
}

// remover is the gallery's remote side: the store, then object storage.
type remover struct {
	p *Picks
}

func (r remover) DeletePick(ctx context.Context, userID, id string) error {
	pick, err := r.p.store.DeletePick(ctx, store.DeletePickRequest{ID: id, UserID: userID})
	if err != nil {
		return storeErr(err, "delete pick", "pick", id)
	}

	for _, lp := range pick.LinkPreviews {
		r.p.discarder.Discard(ctx, userID, lp)
	}
	r.p.log.Info("pick deleted", "pick_id", id, "user_id", userID, "previews", len(pick.LinkPreviews))
	return nil
}
