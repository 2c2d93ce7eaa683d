package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/zonewatch/internal/logger"
)

// hostPatterns holds exact host names and "*.suffix" wildcards, lowercased
type hostPatterns struct {
	exact    map[string]struct{}
	suffixes []string // ".example.com" for "*.example.com"
}

func newHostPatterns(allowed []string) hostPatterns {
	p := hostPatterns{exact: make(map[string]struct{}, len(allowed))}
	for _, raw := range allowed {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case h == "":
		case strings.HasPrefix(h, "*."):
			p.suffixes = append(p.suffixes, h[1:])
		default:
			p.exact[h] = struct{}{}
		}
	}
	return p
}

func (p hostPatterns) empty() bool {
	return len(p.exact) == 0 && len(p.suffixes) == 0
}

// match ignores case, the port and a trailing root dot
func (p hostPatterns) match(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(parseHostNoPort(host)), ".")
	if _, ok := p.exact[host]; ok {
		return true
	}
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// EnforceHost rejects requests whose Host header matches none of allowedHosts.
// Patterns may be exact names or wildcards like "*.example.com". An empty list passes everything.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := newHostPatterns(allowedHosts)
	if patterns.empty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !patterns.match(r.Host) {
				log.Debug("host rejected", logger.String("host", r.Host), logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
