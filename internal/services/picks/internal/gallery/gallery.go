package gallery

import (
	"context"
	"slices"
	"sync"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

// Deleter removes a pick at the source of truth.
type Deleter interface {
	DeletePick(ctx context.Context, userID, id string) error
}

// Gallery owns a loaded collection of picks. Mutations land locally only
// after the remote side has confirmed them.
type Gallery struct {
	reg     *category.Registry
	deleter Deleter

	mu    sync.RWMutex
	picks []model.Pick
}

func New(reg *category.Registry, deleter Deleter) *Gallery {
	return &Gallery{reg: reg, deleter: deleter}
}

// Load replaces the collection.
func (g *Gallery) Load(picks []model.Pick) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.picks = slices.Clone(picks)
}

// Add puts a freshly submitted pick at the front.
func (g *Gallery) Add(p model.Pick) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slices.ContainsFunc(g.picks, func(x model.Pick) bool { return x.ID == p.ID }) {
		return
	}
	g.picks = append([]model.Pick{p}, g.picks...)
}

func (g *Gallery) Picks() []model.Pick {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.picks)
}

// Pick looks a pick up by id in the loaded collection.
func (g *Gallery) Pick(id string) (model.Pick, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i := slices.IndexFunc(g.picks, func(p model.Pick) bool { return p.ID == id })
	if i < 0 {
		return model.Pick{}, false
	}
	return g.picks[i], true
}

// Delete removes the pick remotely, then from the collection. When the
// remote delete fails the collection is left as it was.
func (g *Gallery) Delete(ctx context.Context, userID, id string) error {
	if err := g.deleter.DeletePick(ctx, userID, id); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.picks = slices.DeleteFunc(g.picks, func(p model.Pick) bool { return p.ID == id })
	return nil
}

// View is everything the gallery screen renders for one filter.
type View struct {
	Total        int             `json:"total"`
	Categories   []CategoryCount `json:"categories"`
	Contributors []Contributor   `json:"contributors"`
	Picks        []model.Pick    `json:"picks"`
	Tiles        []Tile          `json:"tiles"`
}

// View derives facets from the whole collection and tiles from the
// filtered picks. Each contributor's Matching count honours the category
// filter only, so every person button shows what it would select.
func (g *Gallery) View(f Filter, order ContributorOrder, tileSize int) View {
	picks := g.Picks()

	contributors := Contributors(picks, order)
	for i := range contributors {
		contributors[i].Matching = ContributorCount(picks, contributors[i].UserID, f.Category, g.reg)
	}

	filtered := f.Apply(picks, g.reg)
	return View{
		Total:        len(picks),
		Categories:   CategoryCounts(picks, g.reg),
		Contributors: contributors,
		Picks:        filtered,
		Tiles:        Tiles(filtered, g.reg, tileSize),
	}
}
