package router

import (
	"net/http"

	"github.com/contactrelay/contactrelay/internal/config"
	"github.com/contactrelay/contactrelay/internal/handler"
	"github.com/contactrelay/contactrelay/internal/middleware"
)

// MaxContactBody caps the size of a contact form submission
const MaxContactBody = 64 << 10

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// Contact form
	mux.Handle("POST /api/contact", mw.MaxBody(MaxContactBody)(http.HandlerFunc(h.Contact)))

	// The site hosting the form, when served from here
	if cfg.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	// Apply middleware stack
	var handler http.Handler = mux

	// CORS
	handler = mw.CORS(cfg.CORSOrigins)(handler)

	// Security headers
	handler = mw.SecurityHeaders(handler)

	// Request logging
	handler = mw.Logger(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
