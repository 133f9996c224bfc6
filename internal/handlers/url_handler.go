package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/services"
	"github.com/tinylink/tinylink/pkg/logger"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 64 << 10

// ShortenRequest represents the request body for creating a short URL.
type ShortenRequest struct {
	LongURL    string `json:"long_url"`
	CustomCode string `json:"custom_code,omitempty"`
}

// ListItem represents one mapping in the /api/list response.
type ListItem struct {
	LongURL   string `json:"long_url"`
	ShortURL  string `json:"short_url"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"created_at"`
}

// URLResponse represents a single mapping returned by the API.
type URLResponse struct {
	ShortCode string `json:"short_code"`
	LongURL   string `json:"long_url"`
	ShortURL  string `json:"short_url"`
	Clicks    int64  `json:"clicks"`
	CreatedAt string `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// URLHandler serves the JSON API.
type URLHandler struct {
	service   services.URLService
	baseURL   string
	listLimit int
	logger    *logger.Logger
}

// NewURLHandler creates a new URLHandler. An empty baseURL derives links
// from the request host.
func NewURLHandler(svc services.URLService, baseURL string, listLimit int, log *logger.Logger) *URLHandler {
	if listLimit <= 0 {
		listLimit = services.MaxListLimit
	}
	if log == nil {
		log = logger.Nop()
	}
	return &URLHandler{
		service:   svc,
		baseURL:   strings.TrimRight(baseURL, "/"),
		listLimit: listLimit,
		logger:    log,
	}
}

// List handles GET /api/list: the most recent mappings, newest first.
func (h *URLHandler) List(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.ListRecent(r.Context(), h.listLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	base := resolveBaseURL(r, h.baseURL)
	items := make([]ListItem, 0, len(urls))
	for _, u := range urls {
		items = append(items, ListItem{
			LongURL:   u.LongURL,
			ShortURL:  base + "/" + u.ShortCode,
			Clicks:    u.Clicks,
			CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, items)
}

// Shorten handles POST /api/shorten.
func (h *URLHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req ShortenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	url, err := h.service.Shorten(r.Context(), services.ShortenRequest{
		LongURL:    req.LongURL,
		CustomCode: req.CustomCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toURLResponse(url, resolveBaseURL(r, h.baseURL)))
}

// GetURL handles GET /api/urls/{code}. It does not count a click.
func (h *URLHandler) GetURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toURLResponse(url, resolveBaseURL(r, h.baseURL)))
}

func (h *URLHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := mapErrorToResponse(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), h.logger).Error("api request failed",
			"path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

// mapErrorToResponse maps service errors to HTTP status codes and error responses.
func mapErrorToResponse(err error) (int, ErrorResponse) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Message,
			Code:  "VALIDATION_ERROR",
		}
	case models.IsConflict(err):
		return http.StatusConflict, ErrorResponse{
			Error: models.MsgCodeTaken,
			Code:  "CODE_TAKEN",
		}
	case models.IsNotFound(err):
		return http.StatusNotFound, ErrorResponse{
			Error: models.MsgShortCodeAbsent,
			Code:  "NOT_FOUND",
		}
	case errors.Is(err, models.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "no free short code available, try again",
			Code:  "CODE_SPACE_EXHAUSTED",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		}
	}
}

func toURLResponse(u *models.URL, base string) URLResponse {
	return URLResponse{
		ShortCode: u.ShortCode,
		LongURL:   u.LongURL,
		ShortURL:  base + "/" + u.ShortCode,
		Clicks:    u.Clicks,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// resolveBaseURL returns the configured base URL, or scheme://host of the request.
func resolveBaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return configured
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
