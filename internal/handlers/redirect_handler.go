package handlers

import (
	"net/http"

	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/services"
	"github.com/tinylink/tinylink/pkg/logger"
)

// RedirectHandler handles short code redirects.
type RedirectHandler struct {
	service services.RedirectService
	flash   *FlashStore
	logger  *logger.Logger
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(svc services.RedirectService, flash *FlashStore, log *logger.Logger) *RedirectHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RedirectHandler{service: svc, flash: flash, logger: log}
}

// Redirect handles GET /{code}. Known codes get a 302 to the destination;
// unknown codes go back to the index with a notice.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Resolve(r.Context(), r.PathValue("code"))
	if err != nil {
		category := FlashWarning
		if !models.IsNotFound(err) {
			category = FlashDanger
		}
		h.flash.Set(w, category, userNotice(r, h.logger, err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Every visit must reach the click counter.
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, result.LongURL, http.StatusFound)
}
