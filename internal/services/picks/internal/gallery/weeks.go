package gallery

import (
	"cmp"
	"slices"
	"time"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

const maxPreviewImages = 4

// WeekGroup is every pick sharing one stored week label.
type WeekGroup struct {
	Week          string        `json:"week"`
	Picks         []model.Pick  `json:"picks"`
	UserCount     int           `json:"userCount"`
	Contributors  []Contributor `json:"contributors"`
	PreviewImages []string      `json:"previewImages"`
	TotalItems    int           `json:"totalItems"`
	Categories    []string      `json:"categories"`
	Latest        time.Time     `json:"latest"`
}

// WeekGroups buckets picks by their stored label, leaving out currentWeek.
// Groups are ordered by their newest pick, newest first, and picks inside
// a group likewise.
func WeekGroups(picks []model.Pick, currentWeek string, reg *category.Registry) []WeekGroup {
	var groups []WeekGroup
	idx := make(map[string]int)
	for _, p := range picks {
		if p.WeekOf == currentWeek {
			continue
		}

		i, ok := idx[p.WeekOf]
		if !ok {
			i = len(groups)
			idx[p.WeekOf] = i
			groups = append(groups, WeekGroup{Week: p.WeekOf})
		}
		groups[i].Picks = append(groups[i].Picks, p)
	}

	for i := range groups {
		g := &groups[i]
		slices.SortStableFunc(g.Picks, func(a, b model.Pick) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		g.Latest = g.Picks[0].CreatedAt
		g.Contributors = Contributors(g.Picks, ByName)
		g.UserCount = len(g.Contributors)
		g.PreviewImages = []string{}
		g.Categories = []string{}

		seen := make(map[string]bool)
		for _, p := range g.Picks {
			g.TotalItems += 1 + len(p.LinkPreviews)

			if c := reg.Canonical(p.Category); !seen[c] {
				seen[c] = true
				g.Categories = append(g.Categories, c)
			}

			for _, lp := range p.LinkPreviews {
				if lp.Image != "" && len(g.PreviewImages) < maxPreviewImages {
					g.PreviewImages = append(g.PreviewImages, lp.Image)
				}
			}
		}
	}

	slices.SortStableFunc(groups, func(a, b WeekGroup) int {
		return cmp.Or(b.Latest.Compare(a.Latest), cmp.Compare(a.Week, b.Week))
	})
	return groups
}
