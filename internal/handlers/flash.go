package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// Flash categories, also used as CSS classes by the templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
)

const flashCookieName = "flash"

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// FlashStore keeps flash messages in an HMAC-signed cookie.
type FlashStore struct {
	secret []byte
	secure bool
}

// NewFlashStore creates a FlashStore. secure marks the cookie HTTPS-only.
func NewFlashStore(secret string, secure bool) *FlashStore {
	return &FlashStore{secret: []byte(secret), secure: secure}
}

// Set stores a message to be shown on the next page.
func (f *FlashStore) Set(w http.ResponseWriter, category, message string) {
	payload, err := json.Marshal(FlashMessage{Category: category, Message: message})
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value + "." + f.sign(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop returns the pending message, if any, and clears the cookie.
// Tampered or malformed cookies are dropped.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   f.secure,
		SameSite: http.SameSiteLaxMode,
	})

	value, mac, ok := strings.Cut(cookie.Value, ".")
	if !ok || !hmac.Equal([]byte(mac), []byte(f.sign(value))) {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var msg FlashMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Message == "" {
		return nil
	}
	return &msg
}

func (f *FlashStore) sign(value string) string {
	h := hmac.New(sha256.New, f.secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
