// Package validation checks user-supplied long URLs and custom short codes.
package validation

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/tinylink/tinylink/internal/models"
)

// Custom code bounds.
const (
	MinCustomCodeLength = 3
	MaxCustomCodeLength = 30
)

var customCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{3,30}$`)

// reservedCodes are first path segments owned by fixed routes. A mapping
// under one of them could never be reached through GET /{code}.
var reservedCodes = map[string]bool{
	"health":  true,
	"ready":   true,
	"metrics": true,
	"shorten": true,
	"api":     true,
	"u":       true,
}

// allowedSchemes are the only schemes a long URL may use.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// Config holds validator configuration.
type Config struct {
	MaxURLLength      int      // Maximum allowed long URL length
	BlockPrivateHosts bool     // Reject localhost, 10.x, 192.168.x, etc.
	BlockedHosts      []string // Explicitly blocked hostnames
}

// DefaultConfig returns the default validator configuration.
func DefaultConfig() Config {
	return Config{
		MaxURLLength:      2048,
		BlockPrivateHosts: false,
		BlockedHosts:      nil,
	}
}

// Validator validates long URLs and custom codes.
type Validator struct {
	config       Config
	blockedHosts map[string]bool
}

// New creates a new Validator.
func New(cfg Config) *Validator {
	if cfg.MaxURLLength <= 0 {
		cfg.MaxURLLength = DefaultConfig().MaxURLLength
	}
	blockedHosts := make(map[string]bool)
	for _, host := range cfg.BlockedHosts {
		blockedHosts[strings.ToLower(host)] = true
	}

	return &Validator{
		config:       cfg,
		blockedHosts: blockedHosts,
	}
}

// LongURL validates a trimmed long URL. An empty value fails with
// "missing url", anything else that is not an http(s) URL with a host
// fails with "invalid url".
func (v *Validator) LongURL(longURL string) error {
	if longURL == "" {
		return models.NewValidationError(models.MsgMissingURL)
	}
	if len(longURL) > v.config.MaxURLLength {
		return models.NewValidationError(models.MsgInvalidURL)
	}

	u, err := url.Parse(longURL)
	if err != nil {
		return models.NewValidationError(models.MsgInvalidURL)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return models.NewValidationError(models.MsgInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return models.NewValidationError(models.MsgInvalidURL)
	}
	if v.isBlockedHost(host) {
		return models.NewValidationError(models.MsgInvalidURL)
	}
	if v.config.BlockPrivateHosts && isPrivateHost(host) {
		return models.NewValidationError(models.MsgInvalidURL)
	}

	return nil
}

// CustomCode validates a trimmed, non-empty operator-supplied short code.
func (v *Validator) CustomCode(code string) error {
	if !IsValidCustomCode(code) {
		return models.NewValidationError(models.MsgBadCustomCode)
	}
	return nil
}

// IsValidCustomCode reports whether code matches ^[A-Za-z0-9_-]{3,30}$.
func IsValidCustomCode(code string) bool {
	return customCodeRegex.MatchString(code)
}

// IsReservedCode reports whether code collides with a fixed route.
func IsReservedCode(code string) bool {
	return reservedCodes[code]
}

// isBlockedHost checks if a host or any of its parent domains is blocked.
func (v *Validator) isBlockedHost(host string) bool {
	if v.blockedHosts[host] {
		return true
	}

	parts := strings.Split(host, ".")
	for i := 1; i < len(parts); i++ {
		if v.blockedHosts[strings.Join(parts[i:], ".")] {
			return true
		}
	}

	return false
}

// isPrivateHost checks if a host is a private/local address.
func isPrivateHost(host string) bool {
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return false
	}

	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
