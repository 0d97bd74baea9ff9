package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/httpx"
	"github.com/alxvallejo/promptd/internal/pkg/serr"
)

// Route forwards every request under Prefix to Upstream, path unchanged.
type Route struct {
	Prefix   string
	Upstream *url.URL
}

// New builds a handler that dispatches to the route with the longest
// matching prefix. Requests matching no route get 404.
func New(routes ...Route) http.Handler {
	mux := http.NewServeMux()
	for _, rt := range routes {
		mux.Handle(rt.Prefix, upstream(rt.Upstream))
		if p := strings.TrimSuffix(rt.Prefix, "/"); p != rt.Prefix && p != "" {
			mux.Handle(p, upstream(rt.Upstream))
		}
	}
	return mux
}

func upstream(target *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		// The gateway owns CORS; upstream headers would duplicate ours.
		ModifyResponse: func(resp *http.Response) error {
			for k := range resp.Header {
				if strings.HasPrefix(k, "Access-Control-") {
					resp.Header.Del(k)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadGateway, "upstream unavailable").
				With("upstream", target.Host))
		},
	}
}
