// Package sync contains the decision-and-reconciliation engine: given
// a classified event and a rendered document, it locates the mirrored
// post and applies the create, update or delete that makes the target
// store match the source.
package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/render"
	"github.com/linkmirror/linkmirror/internal/target"
)

// Identity carries the cross-system keys of one bookmark. On deletion
// events the raw identifier's kind is unknown, so both fields hold the
// same value and the resolver matches it against both markers.
type Identity struct {
	// BookmarkID is the durable external id (deletion marker value).
	BookmarkID string
	// Slug is the lookup hint (lookup marker value). Degrades when the
	// source service reassigns slugs.
	Slug string
}

// PostLister is the subset of the target client the resolver needs.
type PostLister interface {
	Browse(ctx context.Context, tag string, limit int) ([]target.Post, error)
	Read(ctx context.Context, id string) (*target.Post, error)
}

// Index is the optional identity side index (bookmark identity → post
// id). Implementations are best effort: the resolver treats every index
// failure or stale entry as a miss and falls back to scanning.
type Index interface {
	Lookup(ctx context.Context, bookmarkID, slug string) (string, error)
	Save(ctx context.Context, bookmarkID, slug, postID string) error
	Forget(ctx context.Context, bookmarkID, slug string) error
}

// Resolver locates the post mirroring a bookmark identity. The store
// has no column for external ids, so resolution without an index hit is
// a linear scan of managed posts' bodies, capped at limit: posts beyond
// the cap are silently not found.
type Resolver struct {
	posts  PostLister
	index  Index // nil when no side index is configured
	tag    string
	limit  int
	logger logger.Logger
}

func NewResolver(posts PostLister, index Index, tag string, limit int, log logger.Logger) *Resolver {
	return &Resolver{
		posts:  posts,
		index:  index,
		tag:    tag,
		limit:  limit,
		logger: log,
	}
}

// Resolve returns the post mirroring id, or nil when none is found.
// The durable deletion marker takes precedence over the slug lookup
// marker when both could match.
func (r *Resolver) Resolve(ctx context.Context, id Identity) (*target.Post, error) {
	if post := r.fromIndex(ctx, id); post != nil {
		return post, nil
	}

	posts, err := r.posts.Browse(ctx, r.tag, r.limit)
	if err != nil {
		return nil, err
	}

	if id.BookmarkID != "" {
		marker := render.DeletionMarker(id.BookmarkID)
		for i := range posts {
			if strings.Contains(posts[i].HTML, marker) {
				return &posts[i], nil
			}
		}
	}
	if id.Slug != "" {
		marker := render.LookupMarker(id.Slug)
		for i := range posts {
			if strings.Contains(posts[i].HTML, marker) {
				return &posts[i], nil
			}
		}
	}

	r.logger.Debug("no managed post matched identity",
		logger.String("bookmark_id", id.BookmarkID),
		logger.String("slug", id.Slug),
		logger.Int("scanned", len(posts)))
	return nil, nil
}

// fromIndex tries the side index fast path. Any failure, miss or stale
// post id degrades to the scan.
func (r *Resolver) fromIndex(ctx context.Context, id Identity) *target.Post {
	if r.index == nil {
		return nil
	}

	postID, err := r.index.Lookup(ctx, id.BookmarkID, id.Slug)
	if err != nil {
		r.logger.Warn("side index lookup failed, falling back to scan",
			logger.Error(err))
		return nil
	}
	if postID == "" {
		return nil
	}

	post, err := r.posts.Read(ctx, postID)
	if err != nil {
		if errors.Is(err, target.ErrNotFound) {
			// Stale entry: the post went away without us seeing it.
			r.logger.Debug("side index entry is stale",
				logger.String("post_id", postID))
			_ = r.index.Forget(ctx, id.BookmarkID, id.Slug)
			return nil
		}
		r.logger.Warn("side index post read failed, falling back to scan",
			logger.String("post_id", postID),
			logger.Error(err))
		return nil
	}
	return post
}
