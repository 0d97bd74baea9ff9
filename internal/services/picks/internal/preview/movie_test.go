package preview

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractIMDbID(t *testing.T) {
	tbl := map[string]string{
		"https://www.imdb.com/title/tt1375666/":            "tt1375666",
		"https://m.imdb.com/title/tt0903747/?ref_=nv_sr_1": "tt0903747",
		"https://imdb.com/title/TT0111161":                 "tt0111161",
		"https://www.imdb.com/name/nm0000138/":             "",
		"https://example.com/title/tt1375666":              "",
	}

	for u, id := range tbl {
		assert.Equal(t, id, ExtractIMDbID(u), u)
	}
}

func movieServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *MovieResolver {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)

	m, err := NewMovieResolver("test-key", srv.URL+"/")
	require.NoError(t, err)
	return m
}

func TestMovieResolver_ResolveID(t *testing.T) {
	m := movieServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "tt1375666", r.URL.Query().Get("i"))
		assert.Equal(t, "short", r.URL.Query().Get("plot"))

		_ = json.NewEncoder(w).Encode(map[string]string{
			"Title":      "Inception",
			"Year":       "2010",
			"imdbID":     "tt1375666",
			"Type":       "movie",
			"Poster":     "https://img.example/inception.jpg",
			"Plot":       "A thief who steals corporate secrets.",
			"imdbRating": "8.8",
			"Genre":      "Action, Sci-Fi",
			"Response":   "True",
		})
	})

	res := m.Resolve(t.Context(), "https://m.imdb.com/title/tt1375666/?ref=share")
	require.Equal(t, StatusResolved, res.Status)

	p := res.Preview
	assert.Equal(t, "https://www.imdb.com/title/tt1375666/", p.URL)
	assert.Equal(t, "Inception (2010) - IMDb", p.Title)
	assert.Equal(t, "A thief who steals corporate secrets. • IMDb: 8.8/10", p.Description)
	assert.Equal(t, "https://img.example/inception.jpg", p.Image)
	assert.Equal(t, model.ProviderMovie, p.Provider)
	assert.Equal(t, model.PreviewResolved, p.State)
	assert.Equal(t, "Inception", CanonicalTitle(p))
}

func TestMovieResolver_NoMatch(t *testing.T) {
	m := movieServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	})

	res := m.ResolveID(t.Context(), "tt0000000")
	assert.Equal(t, StatusNotFound, res.Status)
	assert.False(t, res.OK())
}

func TestMovieResolver_Unavailable(t *testing.T) {
	m := movieServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	res := m.ResolveID(t.Context(), "tt1375666")
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.Error(t, res.Err)
}

func TestMovieResolver_ResolveTitle(t *testing.T) {
	m := movieServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Severance", r.URL.Query().Get("t"))
		assert.Equal(t, "series", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"Title":"Severance","Year":"2022–","imdbID":"tt11280740","Type":"series","Poster":"N/A","Plot":"N/A","Genre":"N/A","imdbRating":"N/A","Response":"True"}`))
	})

	res := m.ResolveTitle(t.Context(), " Severance ", KindSeries)
	require.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "TV Series from 2022–", res.Preview.Description)
	assert.Equal(t, noPosterImage, res.Preview.Image)

	assert.Equal(t, StatusNotFound, m.ResolveTitle(t.Context(), "  ", KindAny).Status)
}

func TestMoviePreview_Descriptions(t *testing.T) {
	tbl := []struct {
		rec  MovieRecord
		desc string
	}{
		{MovieRecord{Year: "1999", Type: "movie", Genre: "Drama"}, "Genre: Drama"},
		{MovieRecord{Year: "1999", Type: "movie", Genre: "Drama", IMDbRating: "7.1"}, "Genre: Drama • IMDb: 7.1/10"},
		{MovieRecord{Year: "1999", Type: "movie", IMDbRating: "7.1"}, "IMDb: 7.1/10"},
		{MovieRecord{Year: "1999", Type: "movie"}, "Movie from 1999"},
		{MovieRecord{Year: "2001", Type: "series"}, "TV Series from 2001"},
	}

	for _, c := range tbl {
		assert.Equal(t, c.desc, MoviePreview(c.rec).Description)
	}
}

func TestNewMovieResolver_RequiresKey(t *testing.T) {
	_, err := NewMovieResolver(" ", "")
	assert.Error(t, err)

	m, err := NewMovieResolver("k", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultMovieBaseURL, m.baseURL)
}
