package handler

import (
	"encoding/json"
	"net/http"

	"github.com/contactrelay/contactrelay/internal/config"
	"github.com/contactrelay/contactrelay/internal/contact"
	"github.com/contactrelay/contactrelay/internal/logger"
)

// Handler holds all HTTP handlers
type Handler struct {
	relay *contact.Relay
	log   *logger.Logger
	cfg   *config.Config
}

// New creates a new Handler instance
func New(relay *contact.Relay, log *logger.Logger, cfg *config.Config) *Handler {
	return &Handler{
		relay: relay,
		log:   log,
		cfg:   cfg,
	}
}

// Version is reported by /health and the version command
var Version = "0.1.0"

// JSON helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
