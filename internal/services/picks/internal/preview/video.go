package preview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
)

const (
	DefaultOEmbedURL = "https://www.youtube.com/oembed"
	videoPlaceholder = "https://via.placeholder.com/300x200/ff0000/ffffff?text=YouTube"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#/]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\n?#/]+)`),
}

// ExtractVideoID returns the video id of a YouTube watch, short, embed or
// youtu.be link, or "".
func ExtractVideoID(u string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}

	// watch URLs with v= after other parameters
	parsed, err := url.Parse(u)
	if err == nil && strings.HasSuffix(parsed.Hostname(), "youtube.com") && parsed.Path == "/watch" {
		return parsed.Query().Get("v")
	}
	return ""
}

type oEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoResolver reads video metadata from an oEmbed endpoint. It always
// resolves: failures produce a generic video preview.
type VideoResolver struct {
	endpoint string
	fetcher
}

func NewVideoResolver(endpoint string, opts ...Option) *VideoResolver {
	if endpoint == "" {
		endpoint = DefaultOEmbedURL
	}
	return &VideoResolver{endpoint: endpoint, fetcher: newFetcher(opts)}
}

func (v *VideoResolver) Match(u string) bool {
	return strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be")
}

func (v *VideoResolver) Resolve(ctx context.Context, u string) Result {
	id := ExtractVideoID(u)
	if id == "" {
		return Degraded(videoFallback(u), errors.New("no video id in url"))
	}

	q := url.Values{
		"url":    {"https://www.youtube.com/watch?v=" + id},
		"format": {"json"},
	}

	var data oEmbed
	if err := v.getJSON(ctx, v.endpoint+"?"+q.Encode(), &data); err != nil {
		return Degraded(videoFallback(u), fmt.Errorf("oembed %s: %w", id, err))
	}

	title := data.Title
	if title == "" {
		title = "YouTube Video"
	}
	author := data.AuthorName
	if author == "" {
		author = "Unknown"
	}
	image := data.ThumbnailURL
	if image == "" {
		image = fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
	}

	return Resolved(model.LinkPreview{
		URL:         u,
		Title:       title,
		Description: fmt.Sprintf("By %s on YouTube", author),
		Image:       image,
		Provider:    model.ProviderVideo,
	})
}

func videoFallback(u string) model.LinkPreview {
	return model.LinkPreview{
		URL:         u,
		Title:       "YouTube Video",
		Description: "Watch on YouTube",
		Image:       videoPlaceholder,
		Provider:    model.ProviderVideo,
	}
}
