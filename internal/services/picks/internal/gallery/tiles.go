package gallery

import (
	"fmt"
	"log/slog"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/category"
	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

type TileKind string

const (
	// TileUnified shows a pick's first image with its text on top.
	TileUnified TileKind = "unified"
	// TileAdditional shows each further image of a multi-image pick.
	TileAdditional TileKind = "additional"
	// TileText is a rendered text card for picks without images.
	TileText TileKind = "text"
)

const (
	TileSize         = 192
	TileSizeExpanded = 224
)

const titleLen = 50

type Tile struct {
	ID        string             `json:"id"`
	Kind      TileKind           `json:"kind"`
	PickID    string             `json:"pickId"`
	Thumbnail string             `json:"thumbnail"`
	Title     string             `json:"title"`
	Color     string             `json:"color"`
	IsImage   bool               `json:"isImage"`
	Multiple  bool               `json:"hasMultipleImages"`
	Preview   *model.LinkPreview `json:"preview,omitempty"`
}

// Tiles lays out picks for the grid. A pick with images yields one unified
// tile plus one additional tile per further image, so there can be more
// tiles than picks. A pick without images yields one text tile.
func Tiles(picks []model.Pick, reg *category.Registry, size int) []Tile {
	tiles := []Tile{}
	for _, p := range picks {
		color := reg.Color(p.Category)
		images := p.ImagePreviews()

		if len(images) == 0 {
			thumb, err := RenderTextTile(p.Content, color, size)
			if err != nil {
				slog.Error("failed to render text tile", "pick_id", p.ID, "error", err)
			}
			tiles = append(tiles, Tile{
				ID:        p.ID + "-content",
				Kind:      TileText,
				PickID:    p.ID,
				Thumbnail: thumb,
				Title:     shorten(p.Content),
				Color:     color,
			})
			continue
		}

		first := images[0]
		tiles = append(tiles, Tile{
			ID:        p.ID + "-unified",
			Kind:      TileUnified,
			PickID:    p.ID,
			Thumbnail: first.Image,
			Title:     shorten(p.Content),
			Color:     color,
			IsImage:   first.IsImage,
			Multiple:  len(images) > 1,
			Preview:   &first,
		})

		for i, lp := range images[1:] {
			title := lp.Title
			if title == "" {
				title = fmt.Sprintf("Image %d", i+2)
			}
			tiles = append(tiles, Tile{
				ID:        fmt.Sprintf("%s-extra-%d", p.ID, i),
				Kind:      TileAdditional,
				PickID:    p.ID,
				Thumbnail: lp.Image,
				Title:     title,
				Color:     color,
				IsImage:   lp.IsImage,
				Preview:   &lp,
			})
		}
	}
	return tiles
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= titleLen {
		return s
	}
	return string(r[:titleLen]) + "..."
}
