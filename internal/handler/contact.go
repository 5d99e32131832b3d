package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"

	"github.com/contactrelay/contactrelay/internal/contact"
	"github.com/contactrelay/contactrelay/internal/logger"
)

// maxFormMemory bounds multipart parsing; the body limit middleware caps
// the request itself.
const maxFormMemory = 64 << 10

// formFields are the keys copied from classic form posts.
var formFields = []string{"name", "nom", "email", "message"}

// ContactResponse is the body of every /api/contact answer
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Contact relays a contact form submission by email
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	raw, isForm := h.decodeSubmission(r)

	err := h.relay.Submit(r.Context(), raw)
	status := statusFor(err)

	if isForm && h.cfg.Contact.RedirectURL != "" {
		h.redirect(w, r, err == nil)
		return
	}

	resp := ContactResponse{Success: err == nil, Message: h.cfg.Contact.ErrorMessage}
	if err == nil {
		resp.Message = h.cfg.Contact.SuccessMessage
	}
	writeJSON(w, status, resp)
}

// statusFor maps a Submit result to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, contact.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contact.ErrNoProvider):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeSubmission reads a JSON or form body. Unreadable bodies yield an
// empty map so that validation rejects them.
func (h *Handler) decodeSubmission(r *http.Request) (map[string]any, bool) {
	raw := map[string]any{}
	log := logger.FromContext(r.Context(), h.log)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxFormMemory)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			log.Debug().Err(err).Msg("unreadable form body")
			return raw, true
		}
		for _, key := range formFields {
			if values, ok := r.PostForm[key]; ok && len(values) > 0 {
				raw[key] = values[0]
			}
		}
		return raw, true
	default:
		if r.Body == nil {
			return raw, false
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			log.Debug().Err(err).Msg("unreadable JSON body")
			return map[string]any{}, false
		}
		if raw == nil {
			raw = map[string]any{}
		}
		return raw, false
	}
}

// redirect sends a classic form post back to the site with the outcome in
// the query string.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, ok bool) {
	target, err := url.Parse(h.cfg.Contact.RedirectURL)
	if err != nil {
		h.log.Error().Err(err).Str("redirect_url", h.cfg.Contact.RedirectURL).Msg("invalid redirect URL")
		writeJSON(w, http.StatusInternalServerError, ContactResponse{Message: h.cfg.Contact.ErrorMessage})
		return
	}

	outcome := "erreur"
	if ok {
		outcome = "ok"
	}
	q := target.Query()
	q.Set("envoi", outcome)
	target.RawQuery = q.Encode()
	target.Fragment = "contact"

	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}
