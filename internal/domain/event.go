package domain

// Event actions and states as the source service emits them. Deletion
// is not a separate action: the service signals it as an update whose
// state is DELETED. That quirk is part of the inbound contract and is
// preserved here as-is.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"

	StateDeleted = "DELETED"
)

// SyncEvent is the inbound webhook trigger. Depending on what fired the
// webhook (page, highlight or label change) the article identifier
// arrives in a different spot; exactly one must resolve or the event is
// malformed.
type SyncEvent struct {
	Action string `json:"action"`
	State  string `json:"state,omitempty"`

	Page      *PageRef      `json:"page,omitempty"`
	Highlight *HighlightRef `json:"highlight,omitempty"`
	Label     *LabelRef     `json:"label,omitempty"`
}

// PageRef carries the page fields consumed from page-triggered events.
type PageRef struct {
	ID    string `json:"id,omitempty"`
	Slug  string `json:"slug,omitempty"`
	State string `json:"state,omitempty"`
}

// HighlightRef carries the owning-page id from highlight-triggered events.
type HighlightRef struct {
	PageID string `json:"pageId,omitempty"`
}

// LabelRef carries the owning-page id from label-triggered events.
type LabelRef struct {
	PageID string `json:"pageId,omitempty"`
}

// Identifier returns the article identifier, checking carriers in
// priority order: page slug, highlight's page id, label's page id,
// page id. The second return is false when none resolves.
func (e *SyncEvent) Identifier() (string, bool) {
	switch {
	case e.Page != nil && e.Page.Slug != "":
		return e.Page.Slug, true
	case e.Highlight != nil && e.Highlight.PageID != "":
		return e.Highlight.PageID, true
	case e.Label != nil && e.Label.PageID != "":
		return e.Label.PageID, true
	case e.Page != nil && e.Page.ID != "":
		return e.Page.ID, true
	}
	return "", false
}

// DeleteState returns the state carried by the event, preferring the
// nested page state over the top-level one.
func (e *SyncEvent) DeleteState() string {
	if e.Page != nil && e.Page.State != "" {
		return e.Page.State
	}
	return e.State
}

// IsDeletion reports whether the event is a deletion signal. Deleted
// bookmarks may no longer be queryable upstream, so deletion events are
// processed by identifier alone, without a fetch.
func (e *SyncEvent) IsDeletion() bool {
	return e.Action == ActionUpdated && e.DeleteState() == StateDeleted
}
