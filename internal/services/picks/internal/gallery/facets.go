// Package gallery derives what the picks gallery shows from a flat list of
// picks: category and contributor facets, tiles, and week groups.
package gallery

import (
	"cmp"
	"slices"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/fn"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

type CategoryCount struct {
	Category category.Category `json:"category"`
	Count    int               `json:"count"`
}

// CategoryCounts counts picks per configured category, in configured order.
// Legacy tags count toward the category that lists them as aliases.
// Zero-count categories are kept so the filter bar stays stable.
func CategoryCounts(picks []model.Pick, reg *category.Registry) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range picks {
		counts[reg.Canonical(p.Category)]++
	}

	return fn.Map(reg.All(), func(c category.Category) CategoryCount {
		return CategoryCount{Category: c, Count: counts[c.ID]}
	})
}

type ContributorOrder int

const (
	// ByCount puts the most active contributors first. Used for the current
	// week.
	ByCount ContributorOrder = iota
	// ByName sorts alphabetically. Used for past weeks.
	ByName
)

type Contributor struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
	// Matching is the contributor's count under the active category filter.
	Matching int `json:"matching"`
}

func Contributors(picks []model.Pick, order ContributorOrder) []Contributor {
	out := []Contributor{}
	idx := make(map[string]int)
	for _, p := range picks {
		i, ok := idx[p.UserID]
		if !ok {
			i = len(out)
			idx[p.UserID] = i
			out = append(out, Contributor{UserID: p.UserID, Name: p.DisplayName()})
		}
		out[i].Count++
		out[i].Matching++
	}

	byName := func(a, b Contributor) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.UserID, b.UserID),
		)
	}

	switch order {
	case ByName:
		slices.SortFunc(out, byName)
	default:
		slices.SortFunc(out, func(a, b Contributor) int {
			return cmp.Or(cmp.Compare(b.Count, a.Count), byName(a, b))
		})
	}
	return out
}

// Filter narrows picks by category and contributor. A nil field places no
// constraint on its axis; set fields combine with AND.
type Filter struct {
	Category *string
	UserID   *string
}

func (f Filter) Match(p model.Pick, reg *category.Registry) bool {
	if f.Category != nil && !reg.Matches(*f.Category, p.Category) {
		return false
	}
	if f.UserID != nil && p.UserID != *f.UserID {
		return false
	}
	return true
}

func (f Filter) Apply(picks []model.Pick, reg *category.Registry) []model.Pick {
	out := []model.Pick{}
	for _, p := range picks {
		if f.Match(p, reg) {
			out = append(out, p)
		}
	}
	return out
}

// ContributorCount is how many of the user's picks fall in categoryID, or
// all of them when categoryID is nil.
func ContributorCount(picks []model.Pick, userID string, categoryID *string, reg *category.Registry) int {
	f := Filter{Category: categoryID, UserID: &userID}
	return fn.Count(picks, func(p model.Pick) bool { return f.Match(p, reg) })
}
