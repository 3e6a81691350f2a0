package model

import (
	"strings"
	"time"
)

// Credential configures how the HTTP bridge authenticates to one downstream
// service. Pattern may contain "{token}", substituted with Token at request
// time; the bridge never logs the substituted value.
type Credential struct {
	BaseURL    string
	HeaderName string
	Pattern    string
	Token      string
	ExpiresAt  *time.Time
}

// Resolve returns the header name and the fully substituted header value.
func (c Credential) Resolve() (header, value string) {
	pattern := c.Pattern
	if pattern == "" {
		pattern = "{token}"
	}
	return c.HeaderName, strings.ReplaceAll(pattern, "{token}", c.Token)
}

// Expired reports whether the credential's token is known to be stale.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
