package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// DefaultCORSMethods are the methods the storefront API serves.
var DefaultCORSMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to DefaultCORSMethods.
	AllowMethods []string
	// AllowHeaders is sent on preflight. When empty the requested headers
	// are echoed back.
	AllowHeaders  []string
	ExposeHeaders []string
	// AllowCredentials disables the "*" wildcard: the request origin is
	// echoed instead.
	AllowCredentials bool
	// MaxAge in seconds. Zero omits the header, negative sends "0".
	MaxAge int
}

type corsPolicy struct {
	allowAll      bool
	origins       map[string]string // lower-case -> configured spelling
	methods       string
	headers       string
	exposeHeaders string
	credentials   bool
	maxAge        string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		allowAll:      len(cfg.AllowOrigins) == 0,
		origins:       make(map[string]string, len(cfg.AllowOrigins)),
		headers:       strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ", "),
		credentials:   cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.allowAll = true
			continue
		}
		p.origins[strings.ToLower(o)] = o
	}
	if p.credentials {
		p.allowAll = false
	}

	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = DefaultCORSMethods
	}
	p.methods = strings.Join(methods, ", ")

	switch {
	case cfg.MaxAge > 0:
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	case cfg.MaxAge < 0:
		p.maxAge = "0"
	}
	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed.
func (p corsPolicy) allowOrigin(origin string) string {
	if p.allowAll {
		return "*"
	}
	if p.credentials && len(p.origins) == 0 {
		return origin
	}
	return p.origins[strings.ToLower(origin)]
}

// CORS handles Cross-Origin Resource Sharing, answering preflight requests
// itself.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")
			if !p.allowAll {
				h.Add("Vary", "Origin")
			}
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := p.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", p.methods)
					if p.headers != "" {
						h.Set("Access-Control-Allow-Headers", p.headers)
					} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
						h.Set("Access-Control-Allow-Headers", rh)
					}
					if p.credentials {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					if p.maxAge != "" {
						h.Set("Access-Control-Max-Age", p.maxAge)
					}
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				if p.exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", p.exposeHeaders)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
