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
)

const (
	DefaultMovieBaseURL = "https://www.omdbapi.com/"
	noPosterImage       = "https://via.placeholder.com/300x400/1a1a1a/ffffff?text=No+Poster"
)

var imdbIDPattern = regexp.MustCompile(`(?i)imdb\.com/title/(tt\d+)`)

// ExtractIMDbID finds a title id in any imdb.com title URL (www, m, or bare
// host). It returns "" when there is none.
func ExtractIMDbID(u string) string {
	m := imdbIDPattern.FindStringSubmatch(u)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// Kind narrows a title search.
type Kind string

const (
	KindAny    Kind = ""
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

type MovieRecord struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	IMDbID     string `json:"imdbID"`
	Type       string `json:"Type"`
	Poster     string `json:"Poster"`
	Plot       string `json:"Plot,omitempty"`
	IMDbRating string `json:"imdbRating,omitempty"`
	Genre      string `json:"Genre,omitempty"`
	Director   string `json:"Director,omitempty"`
	Actors     string `json:"Actors,omitempty"`
}

type movieResponse struct {
	MovieRecord
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// MovieResolver looks movies and series up in an OMDb compatible API.
type MovieResolver struct {
	apiKey  string
	baseURL string
	fetcher
}

func NewMovieResolver(apiKey, baseURL string, opts ...Option) (*MovieResolver, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("movie database api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultMovieBaseURL
	}

	return &MovieResolver{
		apiKey:  apiKey,
		baseURL: baseURL,
		fetcher: newFetcher(opts),
	}, nil
}

func (m *MovieResolver) Match(u string) bool {
	return ExtractIMDbID(u) != ""
}

func (m *MovieResolver) Resolve(ctx context.Context, u string) Result {
	id := ExtractIMDbID(u)
	if id == "" {
		return NotFound()
	}
	return m.ResolveID(ctx, id)
}

func (m *MovieResolver) ResolveID(ctx context.Context, id string) Result {
	return m.lookup(ctx, url.Values{"i": {id}, "plot": {"short"}})
}

// ResolveTitle searches by free-text title, optionally narrowed to movies or
// series.
func (m *MovieResolver) ResolveTitle(ctx context.Context, title string, kind Kind) Result {
	title = strings.TrimSpace(title)
	if title == "" {
		return NotFound()
	}

	q := url.Values{"t": {title}, "plot": {"short"}}
	if kind != KindAny {
		q.Set("type", string(kind))
	}
	return m.lookup(ctx, q)
}

func (m *MovieResolver) lookup(ctx context.Context, q url.Values) Result {
	q.Set("apikey", m.apiKey)

	var resp movieResponse
	if err := m.getJSON(ctx, m.baseURL+"?"+q.Encode(), &resp); err != nil {
		return Unavailable(fmt.Errorf("movie lookup: %w", err))
	}

	if resp.Response != "True" {
		return NotFound()
	}

	return Resolved(MoviePreview(resp.MovieRecord))
}

// MoviePreview maps a movie record onto a preview. The raw record is kept as
// provider data so the canonical title can be recovered later.
func MoviePreview(rec MovieRecord) model.LinkPreview {
	desc := ""
	if present(rec.Plot) {
		desc = rec.Plot
	} else if present(rec.Genre) {
		desc = "Genre: " + rec.Genre
	}

	if present(rec.IMDbRating) {
		if desc != "" {
			desc += " • "
		}
		desc += "IMDb: " + rec.IMDbRating + "/10"
	}

	if desc == "" {
		kind := "TV Series"
		if rec.Type == string(KindMovie) {
			kind = "Movie"
		}
		desc = fmt.Sprintf("%s from %s", kind, rec.Year)
	}

	image := noPosterImage
	if present(rec.Poster) {
		image = rec.Poster
	}

	raw, _ := json.Marshal(rec)

	return model.LinkPreview{
		URL:          "https://www.imdb.com/title/" + rec.IMDbID + "/",
		Title:        fmt.Sprintf("%s (%s) - IMDb", rec.Title, rec.Year),
		Description:  desc,
		Image:        image,
		Provider:     model.ProviderMovie,
		ProviderData: raw,
	}
}

// CanonicalTitle recovers the bare movie title from a movie preview's
// provider data.
func CanonicalTitle(p model.LinkPreview) string {
	if p.Provider != model.ProviderMovie || len(p.ProviderData) == 0 {
		return ""
	}

	var rec MovieRecord
	if err := json.Unmarshal(p.ProviderData, &rec); err != nil {
		return ""
	}
	return rec.Title
}

func present(s string) bool {
	return s != "" && s != "N/A"
}
