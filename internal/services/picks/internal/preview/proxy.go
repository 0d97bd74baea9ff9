package preview

import (
	"net/url"
	"strings"

	"github.com/alxvallejo/promptd/internal/pkg/fn"
)

// Proxy rewrites a target URL into a fetch URL. Template holds a "{url}"
// placeholder that receives the escaped target; an empty template fetches
// the target directly. JSON proxies answer {"contents": "<body>"}.
type Proxy struct {
	Template string
	JSON     bool
}

var Direct = Proxy{}

// ParseProxy reads "template" or "json:template".
func ParseProxy(s string) Proxy {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "json:"); ok {
		return Proxy{Template: rest, JSON: true}
	}
	if s == "direct" {
		return Direct
	}
	return Proxy{Template: s}
}

func ParseProxies(list []string) []Proxy {
	return fn.Map(list, ParseProxy)
}

func (p Proxy) Wrap(target string) string {
	if p.Template == "" {
		return target
	}
	if !strings.Contains(p.Template, "{url}") {
		return p.Template + url.QueryEscape(target)
	}
	return strings.ReplaceAll(p.Template, "{url}", url.QueryEscape(target))
}
