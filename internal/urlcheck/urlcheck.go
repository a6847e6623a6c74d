// Package urlcheck validates and canonicalizes monitored URLs.
package urlcheck

import (
	"net/url"
	"strings"
)

// Validator is what the registry needs from URL validation.
type Validator interface {
	IsValid(raw string) bool
}

// HTTP accepts absolute http/https URLs with a non-empty host.
type HTTP struct{}

func (HTTP) IsValid(raw string) bool { return IsValid(raw) }

func IsValid(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	if s != "http" && s != "https" {
		return false
	}
	return u.Hostname() != ""
}

// Normalize lowercases scheme and host, drops default ports and a bare
// trailing slash. Invalid input is returned trimmed but otherwise untouched.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = host + ":" + port
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}
	if u.Path == "/" && u.RawQuery == "" && u.Fragment == "" {
		u.Path = ""
	}
	return u.String()
}
