// Package origin decides whether the declared origin of an incoming
// connection is permitted by the configured allow-list.
package origin

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"github.com/nfrund/chatgate/internal/domain"
)

// Matcher holds the configured allow-list. It is immutable after creation and
// safe for concurrent use.
type Matcher struct {
	allowed []string
	hosts   []string
}

// New creates a Matcher for the given allow-list. Entries are trimmed and blank
// entries are dropped, so an allow-list made only of blanks permits everything.
func New(allowed ...string) *Matcher {
	m := &Matcher{}
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		m.allowed = append(m.allowed, entry)
		if host := hostname(entry); host != "" {
			m.hosts = append(m.hosts, host)
		}
	}
	return m
}

// Parse builds a Matcher from a comma-separated allow-list.
func Parse(list string) *Matcher {
	return New(strings.Split(list, ",")...)
}

// Allowed reports whether a connection declaring origin may proceed.
//
// A missing origin (non-browser clients) and an empty allow-list both allow.
// Otherwise the origin must match an entry exactly or share its hostname,
// ignoring scheme and port, so a frontend on another port of the same host is
// accepted. Origins that fail to parse never match.
func (m *Matcher) Allowed(origin string) bool {
	if origin == "" || len(m.allowed) == 0 {
		return true
	}
	if slices.Contains(m.allowed, origin) {
		return true
	}
	host := hostname(origin)
	if host == "" {
		return false
	}
	return slices.Contains(m.hosts, host)
}

// Check is Allowed expressed as an error for the transport layer.
func (m *Matcher) Check(origin string) error {
	if m.Allowed(origin) {
		return nil
	}
	slog.Warn("Rejected connection from disallowed origin", "origin", origin)
	return fmt.Errorf("%w: %q", domain.ErrPolicy, origin)
}

// Entries returns a copy of the normalized allow-list.
func (m *Matcher) Entries() []string {
	return slices.Clone(m.allowed)
}

// hostname returns the lower-cased hostname of raw, or "" if raw is not an
// absolute URL with a host.
func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
