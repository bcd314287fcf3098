package sync

import (
	"context"
	"fmt"

	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/render"
	"github.com/linkmirror/linkmirror/internal/target"
)

// Outcome names what the executor actually did.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeDeleted
	OutcomeNothing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "nothing"
	}
}

// PostWriter is the subset of the target client the executor needs.
type PostWriter interface {
	Add(ctx context.Context, draft target.PostDraft) (*target.Post, error)
	Edit(ctx context.Context, id string, draft target.PostDraft) (*target.Post, error)
	Delete(ctx context.Context, id string) error
}

// Executor performs the single idempotent mutation an applied event
// calls for. It never touches more than one post per invocation, and a
// failed store call leaves prior state unchanged.
type Executor struct {
	posts  PostWriter
	index  Index // nil when no side index is configured
	tag    string
	logger logger.Logger
}

func NewExecutor(posts PostWriter, index Index, tag string, log logger.Logger) *Executor {
	return &Executor{
		posts:  posts,
		index:  index,
		tag:    tag,
		logger: log,
	}
}

// Apply reconciles the target store with the decision: upsert creates
// or replaces the mirrored post, delete removes it. existing comes from
// the resolver; doc is required for upserts and ignored for deletes.
func (e *Executor) Apply(ctx context.Context, existing *target.Post, doc *render.Document, intent domain.Intent, id Identity) (Outcome, error) {
	if intent == domain.IntentDelete {
		return e.remove(ctx, existing, id)
	}
	return e.upsert(ctx, existing, doc, id)
}

func (e *Executor) upsert(ctx context.Context, existing *target.Post, doc *render.Document, id Identity) (Outcome, error) {
	if doc == nil {
		return OutcomeNothing, fmt.Errorf("upsert without a rendered document")
	}

	if existing == nil {
		post, err := e.posts.Add(ctx, target.PostDraft{
			Title:        doc.Title,
			HTML:         doc.HTML,
			Tags:         []string{e.tag},
			Status:       "published",
			Visibility:   "public",
			CanonicalURL: doc.CanonicalURL,
		})
		if err != nil {
			return OutcomeNothing, fmt.Errorf("create post: %w", err)
		}
		e.logger.Info("created post",
			logger.String("post_id", post.ID),
			logger.String("bookmark_id", id.BookmarkID))
		e.saveIndex(ctx, id, post.ID)
		return OutcomeCreated, nil
	}

	draft := target.PostDraft{
		HTML:         doc.HTML,
		Tags:         []string{e.tag},
		Status:       "published",
		Visibility:   "public",
		CanonicalURL: doc.CanonicalURL,
		// The store rejects edits without the current concurrency token.
		UpdatedAt: &existing.UpdatedAt,
	}
	// Send the title only when it actually changed, so unchanged posts
	// don't accumulate no-op title diffs.
	if doc.Title != existing.Title {
		draft.Title = doc.Title
	}

	post, err := e.posts.Edit(ctx, existing.ID, draft)
	if err != nil {
		return OutcomeNothing, fmt.Errorf("edit post %s: %w", existing.ID, err)
	}
	e.logger.Info("updated post",
		logger.String("post_id", post.ID),
		logger.String("bookmark_id", id.BookmarkID))
	e.saveIndex(ctx, id, post.ID)
	return OutcomeUpdated, nil
}

func (e *Executor) remove(ctx context.Context, existing *target.Post, id Identity) (Outcome, error) {
	if existing == nil {
		// Already gone (or never mirrored). Deliberate no-op, not an error.
		e.logger.Info("nothing to delete",
			logger.String("bookmark_id", id.BookmarkID),
			logger.String("slug", id.Slug))
		return OutcomeNothing, nil
	}

	if err := e.posts.Delete(ctx, existing.ID); err != nil {
		return OutcomeNothing, fmt.Errorf("delete post %s: %w", existing.ID, err)
	}
	e.logger.Info("deleted post",
		logger.String("post_id", existing.ID),
		logger.String("bookmark_id", id.BookmarkID))
	e.forgetIndex(ctx, id)
	return OutcomeDeleted, nil
}

// Index writes are best effort; the scan path covers for lost entries.
func (e *Executor) saveIndex(ctx context.Context, id Identity, postID string) {
	if e.index == nil {
		return
	}
	if err := e.index.Save(ctx, id.BookmarkID, id.Slug, postID); err != nil {
		e.logger.Warn("failed to update side index",
			logger.String("post_id", postID),
			logger.Error(err))
	}
}

func (e *Executor) forgetIndex(ctx context.Context, id Identity) {
	if e.index == nil {
		return
	}
	if err := e.index.Forget(ctx, id.BookmarkID, id.Slug); err != nil {
		e.logger.Warn("failed to clear side index",
			logger.Error(err))
	}
}
