package preview

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ogPage = `<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="The Great Article &amp; More">
<meta content="A summary of the article." property="og:description">
<meta name="twitter:image" content="/img/cover.png">
</head><body></body></html>`

func TestExtractMeta(t *testing.T) {
	p := ExtractMeta(ogPage, "https://blog.example.com/posts/1")

	assert.Equal(t, "The Great Article & More", p.Title)
	assert.Equal(t, "A summary of the article.", p.Description)
	assert.Equal(t, "https://blog.example.com/img/cover.png", p.Image)
}

func TestExtractMeta_TitleAndDescriptionTags(t *testing.T) {
	doc := `<html><head><title> Plain Page </title><meta content="Described here" name="description"></head></html>`
	p := ExtractMeta(doc, "https://plain.example")

	assert.Equal(t, "Plain Page", p.Title)
	assert.Equal(t, "Described here", p.Description)
	assert.Empty(t, p.Image)

	assert.Equal(t, placeholderTitle, ExtractMeta("<html></html>", "https://empty.example").Title)
}

func TestSiteResolver_Direct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		_, _ = w.Write([]byte(ogPage))
	}))
	defer srv.Close()

	res := NewSiteResolver(nil).Resolve(t.Context(), srv.URL+"/posts/1")
	require.Equal(t, StatusResolved, res.Status)
	assert.False(t, res.Fallback)
	assert.Equal(t, "The Great Article & More", res.Preview.Title)
	assert.Equal(t, srv.URL+"/img/cover.png", res.Preview.Image)
}

func TestSiteResolver_ProxyOrder(t *testing.T) {
	var firstHits atomic.Int32
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// page without an image is not good enough
		_, _ = w.Write([]byte(`<title>No image here</title>`))
	}))
	defer second.Close()

	third := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, err := url.QueryUnescape(r.URL.Query().Get("url"))
		require.NoError(t, err)
		assert.Equal(t, "https://news.example.com/story", target)
		_, _ = w.Write([]byte(`{"contents": "<meta property=\"og:title\" content=\"Story\"><meta property=\"og:image\" content=\"https://cdn.example/s.jpg\">"}`))
	}))
	defer third.Close()

	s := NewSiteResolver([]Proxy{
		{Template: first.URL + "/?{url}"},
		{Template: second.URL + "/raw?url={url}"},
		{Template: third.URL + "/get?url={url}", JSON: true},
	})

	res := s.Resolve(t.Context(), "https://news.example.com/story")
	require.Equal(t, StatusResolved, res.Status)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Story", res.Preview.Title)
	assert.Equal(t, "https://cdn.example/s.jpg", res.Preview.Image)
	assert.Equal(t, int32(1), firstHits.Load())
}

func TestSiteResolver_DomainFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSiteResolver([]Proxy{{Template: srv.URL + "/?{url}"}})
	res := s.Resolve(t.Context(), "https://www.wikipedia.org/wiki/Go")

	require.Equal(t, StatusResolved, res.Status)
	assert.True(t, res.Fallback)
	assert.Error(t, res.Err)
	assert.Equal(t, "Link Preview - wikipedia.org", res.Preview.Title)
	assert.Equal(t, "Content from wikipedia.org", res.Preview.Description)
	assert.True(t, strings.HasSuffix(res.Preview.Image, "text=wikipedia.org"))
}

func TestSiteResolver_Netflix(t *testing.T) {
	res := NewSiteResolver([]Proxy{{Template: "http://127.0.0.1:1/?{url}"}}).
		Resolve(t.Context(), "https://www.netflix.com/title/80057281")

	require.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "Netflix Content", res.Preview.Title)
	assert.Equal(t, "Watch on Netflix", res.Preview.Description)
}

func TestProxy(t *testing.T) {
	assert.Equal(t, "https://a.example/x", Direct.Wrap("https://a.example/x"))
	assert.Equal(t, "https://corsproxy.io/?https%3A%2F%2Fa.example%2Fx", ParseProxy("https://corsproxy.io/?").Wrap("https://a.example/x"))

	p := ParseProxy("json:https://api.allorigins.win/get?url={url}")
	assert.True(t, p.JSON)
	assert.Equal(t, "https://api.allorigins.win/get?url=https%3A%2F%2Fa.example", p.Wrap("https://a.example"))

	assert.Equal(t, []Proxy{Direct, {Template: "https://p/?{url}"}}, ParseProxies([]string{"direct", "https://p/?{url}"}))
}
