// Package security applies response headers appropriate for a JSON API.
package security

import (
	"net/http"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CacheControl        string
}

// DefaultHeadersConfig returns secure defaults. The API serves no
// scripts or embeds, so the policy locks everything down.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		CacheControl:        "no-store",
	}
}

// HeadersMiddleware applies security headers to responses
type HeadersMiddleware struct {
	config HeadersConfig
}

// NewHeadersMiddleware creates a new security headers middleware
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware sets the configured headers before the handler runs.
func (m *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if m.config.CSP != "" {
			h.Set("Content-Security-Policy", m.config.CSP)
		}
		if m.config.XFrameOptions != "" {
			h.Set("X-Frame-Options", m.config.XFrameOptions)
		}
		if m.config.XContentTypeOptions != "" {
			h.Set("X-Content-Type-Options", m.config.XContentTypeOptions)
		}
		if m.config.ReferrerPolicy != "" {
			h.Set("Referrer-Policy", m.config.ReferrerPolicy)
		}
		if m.config.CacheControl != "" {
			h.Set("Cache-Control", m.config.CacheControl)
		}
		next.ServeHTTP(w, r)
	})
}
