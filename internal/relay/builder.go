package relay

import (
	"net/url"
	"strings"
)

// TargetParam is the query parameter the relay reads the origin URL from
const TargetParam = "target"

// Builder constructs relay URLs for a fixed relay host.
type Builder struct {
	Host string
}

// NewBuilder creates a builder for the given relay host
func NewBuilder(host string) *Builder {
	return &Builder{Host: host}
}

// Build returns <Host>?target=<escaped original>. The original URL is not
// validated; a malformed target surfaces as an HTTP error from the relay.
func (b *Builder) Build(original string) string {
	sep := "?"
	if strings.Contains(b.Host, "?") {
		sep = "&"
	}
	return b.Host + sep + TargetParam + "=" + url.QueryEscape(original)
}
