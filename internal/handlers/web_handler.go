package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/tinylink/tinylink/internal/models"
	"github.com/tinylink/tinylink/internal/services"
	"github.com/tinylink/tinylink/pkg/logger"
)

//go:embed templates/*.html
var templatesFS embed.FS

// maxFormBody bounds the shorten form body.
const maxFormBody = 16 << 10

// User-facing notices.
const (
	noticeCreated       = "Short URL created successfully!"
	noticeMissingURL    = "Please enter a URL."
	noticeInvalidURL    = "Invalid URL. Include http:// or https://"
	noticeBadCustomCode = "Custom code must be 3-30 chars: letters, numbers, -, _"
	noticeCodeTaken     = "That custom code is already taken. Try another."
	noticeNotFound      = "Short code not found."
	noticeExhausted     = "Could not find a free short code. Please try again."
	noticeInternal      = "Something went wrong. Please try again."
)

// LinkView is a mapping prepared for the HTML pages.
type LinkView struct {
	LongURL   string
	ShortCode string
	ShortURL  string
	Clicks    int64
	CreatedAt string
}

type indexPage struct {
	Flash  *FlashMessage
	Recent []LinkView
}

type showPage struct {
	Flash *FlashMessage
	Link  LinkView
}

// WebHandler serves the HTML pages and the shorten form.
type WebHandler struct {
	service     services.URLService
	flash       *FlashStore
	baseURL     string
	recentLimit int
	logger      *logger.Logger
	index       *template.Template
	show        *template.Template
}

// NewWebHandler parses the embedded templates and creates a WebHandler.
func NewWebHandler(svc services.URLService, flash *FlashStore, baseURL string, recentLimit int, log *logger.Logger) (*WebHandler, error) {
	index, err := template.ParseFS(templatesFS, "templates/base.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	show, err := template.ParseFS(templatesFS, "templates/base.html", "templates/show.html")
	if err != nil {
		return nil, fmt.Errorf("parse show template: %w", err)
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WebHandler{
		service:     svc,
		flash:       flash,
		baseURL:     baseURL,
		recentLimit: recentLimit,
		logger:      log,
		index:       index,
		show:        show,
	}, nil
}

// Index handles GET /: the form plus the most recent mappings.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	flash := h.flash.Pop(w, r)

	urls, err := h.service.ListRecent(r.Context(), h.recentLimit)
	if err != nil {
		logger.FromContext(r.Context(), h.logger).Error("list recent failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	base := resolveBaseURL(r, h.baseURL)
	page := indexPage{Flash: flash, Recent: make([]LinkView, 0, len(urls))}
	for _, u := range urls {
		page.Recent = append(page.Recent, toLinkView(u, base))
	}

	h.render(w, r, h.index, page)
}

// Shorten handles POST /shorten from the index form.
func (h *WebHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		h.flash.Set(w, FlashDanger, noticeInvalidURL)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	url, err := h.service.Shorten(r.Context(), services.ShortenRequest{
		LongURL:    r.PostForm.Get("long_url"),
		CustomCode: r.PostForm.Get("custom_code"),
	})
	if err != nil {
		h.flash.Set(w, FlashDanger, userNotice(r, h.logger, err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.flash.Set(w, FlashSuccess, noticeCreated)
	http.Redirect(w, r, "/u/"+url.ShortCode, http.StatusSeeOther)
}

// Show handles GET /u/{code}: details without counting a click.
func (h *WebHandler) Show(w http.ResponseWriter, r *http.Request) {
	url, err := h.service.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		category := FlashWarning
		if !models.IsNotFound(err) {
			category = FlashDanger
		}
		h.flash.Set(w, category, userNotice(r, h.logger, err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, h.show, showPage{
		Flash: h.flash.Pop(w, r),
		Link:  toLinkView(url, resolveBaseURL(r, h.baseURL)),
	})
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		logger.FromContext(r.Context(), h.logger).Error("render template failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// userNotice turns a service error into a user notice, logging unexpected ones.
func userNotice(r *http.Request, log *logger.Logger, err error) string {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		switch validationErr.Message {
		case models.MsgMissingURL:
			return noticeMissingURL
		case models.MsgBadCustomCode:
			return noticeBadCustomCode
		default:
			return noticeInvalidURL
		}
	case models.IsConflict(err):
		return noticeCodeTaken
	case models.IsNotFound(err):
		return noticeNotFound
	case errors.Is(err, models.ErrCodeSpaceExhausted):
		logger.FromContext(r.Context(), log).Error("short code generation exhausted", "error", err)
		return noticeExhausted
	default:
		logger.FromContext(r.Context(), log).Error("request failed", "path", r.URL.Path, "error", err)
		return noticeInternal
	}
}

func toLinkView(u *models.URL, base string) LinkView {
	return LinkView{
		LongURL:   u.LongURL,
		ShortCode: u.ShortCode,
		ShortURL:  base + "/" + u.ShortCode,
		Clicks:    u.Clicks,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
