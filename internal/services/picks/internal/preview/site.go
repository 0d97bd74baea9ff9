package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	readability "github.com/go-shiori/go-readability"
)

const (
	placeholderTitle = "Link Preview"
	htmlAccept       = "text/html,application/xhtml+xml"
)

var titleTag = regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`)

type metaPatterns [4]*regexp.Regexp

func newMetaPatterns(name string) metaPatterns {
	q := regexp.QuoteMeta(name)
	return metaPatterns{
		regexp.MustCompile(`(?i)<meta\s+property=["']` + q + `["']\s+content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta\s+content=["']([^"']+)["']\s+property=["']` + q + `["']`),
		regexp.MustCompile(`(?i)<meta\s+name=["']` + q + `["']\s+content=["']([^"']+)["']`),
		regexp.MustCompile(`(?i)<meta\s+content=["']([^"']+)["']\s+name=["']` + q + `["']`),
	}
}

func (mp metaPatterns) find(doc string) string {
	for _, p := range mp {
		if m := p.FindStringSubmatch(doc); m != nil {
			return strings.TrimSpace(html.UnescapeString(m[1]))
		}
	}
	return ""
}

var meta = map[string]metaPatterns{}

func init() {
	for _, name := range []string{
		"og:title", "twitter:title",
		"og:description", "twitter:description", "description",
		"og:image", "twitter:image",
	} {
		meta[name] = newMetaPatterns(name)
	}
}

func firstMeta(doc string, names ...string) string {
	for _, n := range names {
		if v := meta[n].find(doc); v != "" {
			return v
		}
	}
	return ""
}

// ExtractMeta scrapes Open Graph, Twitter card and plain title/description
// tags from an HTML document. Missing fields are left empty, except the
// title which falls back to "Link Preview".
func ExtractMeta(doc, pageURL string) model.LinkPreview {
	title := firstMeta(doc, "og:title", "twitter:title")
	if title == "" {
		if m := titleTag.FindStringSubmatch(doc); m != nil {
			title = strings.TrimSpace(html.UnescapeString(m[1]))
		}
	}
	if title == "" {
		title = placeholderTitle
	}

	return model.LinkPreview{
		URL:         pageURL,
		Title:       title,
		Description: firstMeta(doc, "og:description", "twitter:description", "description"),
		Image:       absolute(pageURL, firstMeta(doc, "og:image", "twitter:image")),
		Provider:    model.ProviderSite,
	}
}

// SiteResolver scrapes arbitrary pages, trying each proxy in order until one
// yields a real title and an image. Readable-article extraction fills
// fields that the meta tags leave empty.
type SiteResolver struct {
	proxies []Proxy
	fetcher
}

func NewSiteResolver(proxies []Proxy, opts ...Option) *SiteResolver {
	if len(proxies) == 0 {
		proxies = []Proxy{Direct}
	}
	return &SiteResolver{proxies: proxies, fetcher: newFetcher(opts)}
}

func (s *SiteResolver) Match(string) bool {
	return true
}

func (s *SiteResolver) Resolve(ctx context.Context, u string) Result {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return Degraded(model.LinkPreview{
			URL:         u,
			Title:       placeholderTitle,
			Description: "Unable to load preview",
			Image:       "https://via.placeholder.com/300x200/6366f1/ffffff?text=Link",
			Provider:    model.ProviderSite,
		}, fmt.Errorf("invalid url %q", u))
	}

	if strings.Contains(parsed.Hostname(), "netflix.com") {
		return Resolved(model.LinkPreview{
			URL:         u,
			Title:       "Netflix Content",
			Description: "Watch on Netflix",
			Image:       "https://via.placeholder.com/300x200/e50914/ffffff?text=Netflix",
			Provider:    model.ProviderSite,
		})
	}

	var errs []error
	for _, proxy := range s.proxies {
		p, err := s.scrape(ctx, proxy, parsed)
		if err != nil {
			errs = append(errs, err)
			slog.Debug("proxy failed, trying next", "url", u, "proxy", proxy.Template, "error", err)
			continue
		}
		if p.Title != "" && p.Title != placeholderTitle && p.Image != "" {
			return Resolved(p)
		}
	}

	domain := strings.TrimPrefix(parsed.Hostname(), "www.")
	return Degraded(model.LinkPreview{
		URL:         u,
		Title:       placeholderTitle + " - " + domain,
		Description: "Content from " + domain,
		Image:       "https://via.placeholder.com/300x200/6366f1/ffffff?text=" + url.QueryEscape(domain),
		Provider:    model.ProviderSite,
	}, errors.Join(errs...))
}

func (s *SiteResolver) scrape(ctx context.Context, proxy Proxy, page *url.URL) (model.LinkPreview, error) {
	body, err := s.get(ctx, proxy.Wrap(page.String()), htmlAccept)
	if err != nil {
		return model.LinkPreview{}, err
	}
	if proxy.JSON {
		if body, err = unwrapContents(body); err != nil {
			return model.LinkPreview{}, err
		}
	}

	p := ExtractMeta(string(body), page.String())
	if p.Title != placeholderTitle && p.Description != "" && p.Image != "" {
		return p, nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), page)
	if err != nil {
		return p, nil
	}
	if p.Title == placeholderTitle && article.Title != "" {
		p.Title = strings.TrimSpace(article.Title)
	}
	if p.Description == "" {
		p.Description = strings.TrimSpace(article.Excerpt)
	}
	if p.Image == "" {
		p.Image = absolute(page.String(), article.Image)
	}

	return p, nil
}

func unwrapContents(body []byte) ([]byte, error) {
	var wrapped struct {
		Contents string `json:"contents"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode proxy envelope: %w", err)
	}
	return []byte(wrapped.Contents), nil
}

func absolute(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
