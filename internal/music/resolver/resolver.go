// /internal/music/resolver/resolver.go
package resolver

import (
	"context"
	"strings"

	"shizu/internal/music/stream"
)

// Metadata is the display information attached to a resolved track. It is
// immutable once attached to a queued track.
type Metadata struct {
	Title     string
	Thumbnail string
	SourceURL string
}

// Track is a resolved, playable track: display metadata plus the handle the
// voice transport consumes.
type Track struct {
	Meta   Metadata
	Source *stream.Source
}

// Resolver turns user-supplied text into a playable track. Implementations
// wrap network lookups; callers must never hold a session lock across a call.
type Resolver interface {
	// ResolveURL resolves link-shaped input by direct fetch.
	ResolveURL(ctx context.Context, input string) (*Track, error)

	// ResolveQuery resolves free text by search.
	ResolveQuery(ctx context.Context, input string) (*Track, error)
}

// Resolve dispatches input to direct fetch or search. Anything starting with
// "http" counts as a link.
func Resolve(ctx context.Context, r Resolver, input string) (*Track, error) {
	if IsURL(input) {
		return r.ResolveURL(ctx, input)
	}
	return r.ResolveQuery(ctx, input)
}

// IsURL reports whether input is link-shaped.
func IsURL(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "http")
}
