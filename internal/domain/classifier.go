package domain

import "strings"

// Intent is what an applied event should do to the mirrored post.
type Intent int

const (
	IntentUpsert Intent = iota
	IntentDelete
)

func (i Intent) String() string {
	if i == IntentDelete {
		return "delete"
	}
	return "upsert"
}

// Content rules for the required-content check on create/update. The
// two observed webhook variants disagree on what counts as "has
// content", so the predicate is configurable rather than hard-coded.
const (
	ContentRuleAnnotation  = "annotation"  // at least one annotated highlight
	ContentRuleDescription = "description" // non-empty description
)

// Decision is the classifier verdict for one event.
type Decision struct {
	Apply  bool
	Intent Intent

	// Reason names the branch that produced the decision. Purely for
	// logging; every skip branch has a distinct reason.
	Reason string
}

func skip(reason string) Decision {
	return Decision{Apply: false, Reason: reason}
}

// Classifier decides whether an inbound event should be applied to the
// target store. It is pure: the same inputs always produce the same
// decision, and nothing is mutated.
type Classifier struct {
	SyncLabel    string // membership label required for create/update
	ExcludeLabel string // label that unconditionally blocks mirroring
	ContentRule  string // ContentRuleAnnotation or ContentRuleDescription
}

// Classify maps (snapshot, action, state) to apply/skip.
//
// snap is nil on the deletion path, where no fetch happens; the
// exclusion check then cannot run and the delete proceeds by identifier
// alone.
func (c Classifier) Classify(snap *BookmarkSnapshot, action, state string) Decision {
	// Exclusion wins over everything else, deletions included,
	// whenever a snapshot is available to check.
	if snap != nil && snap.HasLabel(c.ExcludeLabel) {
		return skip("exclusion label present")
	}

	// Hard deletes may arrive with a stale or missing snapshot, so the
	// membership and content checks do not apply here.
	if action == ActionUpdated && state == StateDeleted {
		return Decision{Apply: true, Intent: IntentDelete, Reason: "deletion signal"}
	}

	if snap == nil {
		return skip("no article in upstream response")
	}

	switch action {
	case ActionCreated, ActionUpdated:
		if !snap.HasLabel(c.SyncLabel) {
			return skip("sync label missing")
		}
		if !c.hasRequiredContent(snap) {
			return skip("required content missing")
		}
		return Decision{Apply: true, Intent: IntentUpsert, Reason: action}
	default:
		return skip("unrecognized action")
	}
}

func (c Classifier) hasRequiredContent(snap *BookmarkSnapshot) bool {
	if c.ContentRule == ContentRuleDescription {
		return strings.TrimSpace(snap.Description) != ""
	}
	return snap.HasAnnotatedHighlight()
}
