package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/cors"
)

// CORS is a go-chi/cors handler whose allowed origins can be replaced at
// runtime. Entries may be "*" or contain one "*" wildcard, such as
// "https://*.example.com".
type CORS struct {
	mu      sync.RWMutex
	origins []string
}

// NewCORS creates the handler with an initial origin list
func NewCORS(origins []string) *CORS {
	c := &CORS{}
	c.SetOrigins(origins)
	return c
}

// SetOrigins replaces the allowed origins
func (c *CORS) SetOrigins(origins []string) {
	normalized := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/")); o != "" {
			normalized = append(normalized, o)
		}
	}
	c.mu.Lock()
	c.origins = normalized
	c.mu.Unlock()
}

// Origins returns the allowed origins
func (c *CORS) Origins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.origins...)
}

// Allowed reports whether origin may call the API
func (c *CORS) Allowed(_ *http.Request, origin string) bool {
	origin = strings.ToLower(origin)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, allowed := range c.origins {
		if matchOrigin(allowed, origin) {
			return true
		}
	}
	return false
}

// Handler returns the middleware
func (c *CORS) Handler() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  c.Allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "If-Match"},
		ExposedHeaders:   []string{"X-Request-ID", "ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" {
		return true
	}
	prefix, suffix, wildcard := strings.Cut(pattern, "*")
	if !wildcard {
		return pattern == origin
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) &&
		strings.HasSuffix(origin, suffix)
}
