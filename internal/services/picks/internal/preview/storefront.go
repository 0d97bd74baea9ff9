package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultStoreAPIURL    = "https://store.steampowered.com/api/appdetails"
	storefrontPlaceholder = "https://via.placeholder.com/300x200/1b2838/ffffff?text=Steam"
)

var (
	appPattern = regexp.MustCompile(`/app/(\d+)/([^/?#]+)`)
	slugSplit  = regexp.MustCompile(`[-_]+`)
	errNoApp   = errors.New("app details missing")
)

// ExtractApp returns the numeric app id and the slug of a store page URL.
func ExtractApp(u string) (id, slug string, ok bool) {
	m := appPattern.FindStringSubmatch(u)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// SlugTitle turns "baldurs_gate-3" into "Baldurs Gate 3".
func SlugTitle(slug string) string {
	if s, err := url.PathUnescape(slug); err == nil {
		slug = s
	}
	words := slugSplit.Split(strings.Trim(slug, "-_"), -1)
	// Casers keep state between calls and cannot be shared.
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}

type appData struct {
	Name             string `json:"name"`
	ShortDescription string `json:"short_description"`
	HeaderImage      string `json:"header_image"`
	Genres           []struct {
		Description string `json:"description"`
	} `json:"genres"`
}

type appDetails struct {
	Success bool     `json:"success"`
	Data    *appData `json:"data"`
}

// StorefrontResolver reads game metadata from the store's app-details API.
// It always resolves; without API data the preview is built from the slug.
type StorefrontResolver struct {
	apiURL string
	proxy  Proxy
	fetcher
}

func NewStorefrontResolver(apiURL string, proxy Proxy, opts ...Option) *StorefrontResolver {
	if apiURL == "" {
		apiURL = DefaultStoreAPIURL
	}
	return &StorefrontResolver{apiURL: apiURL, proxy: proxy, fetcher: newFetcher(opts)}
}

func (s *StorefrontResolver) Match(u string) bool {
	return strings.Contains(u, "store.steampowered.com")
}

func (s *StorefrontResolver) Resolve(ctx context.Context, u string) Result {
	id, slug, ok := ExtractApp(u)
	if !ok {
		return Degraded(model.LinkPreview{
			URL:         u,
			Title:       "Steam Game",
			Description: "Available on Steam",
			Image:       storefrontPlaceholder,
			Provider:    model.ProviderStorefront,
		}, errors.New("no app id in url"))
	}

	fallback := model.LinkPreview{
		URL:         u,
		Title:       SlugTitle(slug),
		Description: "Available on Steam",
		Image:       headerImage(id),
		Provider:    model.ProviderStorefront,
	}

	details, err := s.details(ctx, id)
	if err != nil {
		return Degraded(fallback, fmt.Errorf("app %s: %w", id, err))
	}

	p := fallback
	if details.Name != "" {
		p.Title = details.Name
	}
	if details.HeaderImage != "" {
		p.Image = details.HeaderImage
	}

	switch {
	case details.ShortDescription != "":
		p.Description = details.ShortDescription
	case len(details.Genres) > 0:
		genres := make([]string, 0, len(details.Genres))
		for _, g := range details.Genres {
			genres = append(genres, g.Description)
		}
		p.Description = strings.Join(genres, ", ") + " on Steam"
	default:
		p.Description = "Game on Steam"
	}

	raw, _ := json.Marshal(details)
	p.ProviderData = raw

	return Resolved(p)
}

func (s *StorefrontResolver) details(ctx context.Context, id string) (*appData, error) {
	target := s.apiURL + "?" + url.Values{"appids": {id}, "format": {"json"}}.Encode()

	body, err := s.get(ctx, s.proxy.Wrap(target), "application/json")
	if err != nil {
		return nil, err
	}
	if s.proxy.JSON {
		if body, err = unwrapContents(body); err != nil {
			return nil, err
		}
	}

	var resp map[string]appDetails
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode app details: %w", err)
	}

	app, ok := resp[id]
	if !ok || !app.Success || app.Data == nil {
		return nil, errNoApp
	}
	return app.Data, nil
}

func headerImage(id string) string {
	return fmt.Sprintf("https://cdn.akamai.steamstatic.com/steam/apps/%s/header.jpg", id)
}
