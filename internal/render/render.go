// Package render transforms a bookmark snapshot into the canonical
// post content pushed to the target store. Rendering is pure: the same
// snapshot and configured timezone always produce byte-identical markup.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/linkmirror/linkmirror/internal/domain"
)

// ErrUnrenderable marks a bookmark whose required content is missing
// (empty title or empty body markup). Callers must treat it as a hard
// stop, not a skip: by the time rendering runs the event has already
// been classified as apply, so missing content is a data problem.
var ErrUnrenderable = errors.New("bookmark is missing renderable content")

// Document is the canonical content representation of one bookmark.
type Document struct {
	Title        string
	HTML         string
	CanonicalURL string
}

// LookupMarker returns the markup fragment identifying a post by the
// bookmark's slug at render time. Slugs can change across edits, so
// this marker is only a convenience key.
func LookupMarker(slug string) string {
	return `data-page-id="` + html.EscapeString(slug) + `"`
}

// DeletionMarker returns the markup fragment identifying a post by the
// bookmark's immutable external id. This is the durable key.
func DeletionMarker(id string) string {
	return `data-bookmark-id="` + html.EscapeString(id) + `"`
}

// Renderer converts snapshots to Documents.
type Renderer struct {
	loc           *time.Location
	summaryPrefix string
	tag           string
	md            goldmark.Markdown
}

// New creates a Renderer. loc is the fixed display timezone for
// rendered dates (never the process-local zone), summaryPrefix marks
// machine-generated annotations to drop, and tag is the sync-membership
// tag embedded in the container.
func New(loc *time.Location, summaryPrefix, tag string) *Renderer {
	return &Renderer{
		loc:           loc,
		summaryPrefix: summaryPrefix,
		tag:           tag,
		md:            goldmark.New(),
	}
}

// Render builds the Document for a snapshot. Returns ErrUnrenderable
// when the title is empty; the container markup itself is never empty.
func (r *Renderer) Render(snap *domain.BookmarkSnapshot) (*Document, error) {
	title := strings.TrimSpace(snap.Title)
	if title == "" {
		return nil, fmt.Errorf("bookmark %s: %w", snap.ID, ErrUnrenderable)
	}

	var b strings.Builder

	// The kg-card boundary tells the target renderer to keep the
	// markup raw instead of reprocessing it as text.
	b.WriteString("<!--kg-card-begin: html-->\n")
	b.WriteString(`<div class="link-item"`)
	b.WriteString(` data-tag="` + html.EscapeString(r.tag) + `"`)
	b.WriteString(" " + LookupMarker(snap.Slug))
	b.WriteString(" " + DeletionMarker(snap.ID))
	b.WriteString(` data-title="` + html.EscapeString(title) + `"`)
	b.WriteString(` data-original-url="` + html.EscapeString(snap.OriginalURL) + `"`)
	b.WriteString(` data-creation-date="` + html.EscapeString(r.formatDate(snap.CreatedAt)) + `"`)
	b.WriteString(">\n")

	if desc := strings.TrimSpace(snap.Description); desc != "" {
		b.WriteString(r.markdown(desc))
	}

	for _, h := range snap.Highlights {
		if r.isSummary(h) {
			continue
		}
		if q := strings.TrimSpace(h.Quote); q != "" {
			b.WriteString("<blockquote>\n" + r.markdown(q) + "</blockquote>\n")
		}
		if a := strings.TrimSpace(h.Annotation); a != "" {
			b.WriteString(r.markdown(a))
		}
	}

	b.WriteString("</div>\n<!--kg-card-end: html-->")

	return &Document{
		Title:        title,
		HTML:         b.String(),
		CanonicalURL: snap.OriginalURL,
	}, nil
}

// isSummary reports whether a highlight's annotation is a
// machine-generated summary. Summaries are for the source service's own
// use and are never republished.
func (r *Renderer) isSummary(h domain.Highlight) bool {
	if r.summaryPrefix == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(h.Annotation), r.summaryPrefix)
}

// formatDate renders an instant as a human-readable date in the
// configured timezone, ex: "January 22, 2024".
func (r *Renderer) formatDate(t time.Time) string {
	return t.In(r.loc).Format("January 2, 2006")
}

// markdown converts Markdown text to HTML. Conversion failures fall
// back to an escaped paragraph so rendering stays total.
func (r *Renderer) markdown(src string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>\n"
	}
	return buf.String()
}
