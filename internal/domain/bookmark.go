package domain

import (
	"strings"
	"time"
)

// Highlight is a quoted excerpt from a bookmark, plus the user's
// optional annotation. Either field may be empty.
type Highlight struct {
	Quote      string
	Annotation string
}

// Annotated reports whether the highlight carries a non-empty annotation.
func (h Highlight) Annotated() bool {
	return strings.TrimSpace(h.Annotation) != ""
}

// BookmarkSnapshot is the source-of-truth view of one bookmark at event
// time. It is built fresh from a query response for each sync attempt
// and discarded afterwards; nothing caches it.
type BookmarkSnapshot struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is the opaque external identifier. It is the only key that is
	// stable across edits and therefore the only one safe to embed as a
	// long-lived cross-system reference.
	ID string

	// Slug is the human-readable identifier assigned by the source
	// service. Unique at any point in time, but NOT stable across
	// edits: usable as a lookup hint, never as a durable key.
	Slug string

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	Title       string
	OriginalURL string
	CreatedAt   time.Time
	Description string

	// Labels are the user-assigned label names on the bookmark.
	Labels []string

	// Highlights preserve the order they were returned in.
	Highlights []Highlight
}

// HasLabel reports whether the bookmark carries the given label name.
// Label names are compared exactly, as the source service treats them.
func (b *BookmarkSnapshot) HasLabel(name string) bool {
	for _, l := range b.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// HasAnnotatedHighlight reports whether at least one highlight carries
// an annotation.
func (b *BookmarkSnapshot) HasAnnotatedHighlight() bool {
	for _, h := range b.Highlights {
		if h.Annotated() {
			return true
		}
	}
	return false
}
