// Package redis holds the identity side index: a key-value map from
// bookmark identity (external id, slug) to the target store's post id.
// The index only accelerates resolution; the target store remains the
// system of record, and every index miss falls back to a scan there.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultIndexTTL bounds how long an index entry lives without being
// refreshed. Entries are rewritten on every applied event, and an
// expired entry just means one extra scan.
const DefaultIndexTTL = 30 * 24 * time.Hour

// Store handles Redis operations for the identity side index.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Lookup returns the post id indexed for a bookmark, trying the durable
// external-id key first and the slug key second. An empty string means
// no index entry; callers fall back to scanning.
func (s *Store) Lookup(ctx context.Context, bookmarkID, slug string) (string, error) {
	if bookmarkID != "" {
		postID, err := s.get(ctx, BookmarkKey(bookmarkID))
		if err != nil || postID != "" {
			return postID, err
		}
	}
	if slug != "" {
		return s.get(ctx, SlugKey(slug))
	}
	return "", nil
}

// Save indexes a post id under both identity keys.
func (s *Store) Save(ctx context.Context, bookmarkID, slug, postID string) error {
	pipe := s.client.Pipeline()
	if bookmarkID != "" {
		pipe.Set(ctx, BookmarkKey(bookmarkID), postID, DefaultIndexTTL)
	}
	if slug != "" {
		pipe.Set(ctx, SlugKey(slug), postID, DefaultIndexTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save index entry: %w", err)
	}
	return nil
}

// Forget drops the index entries for a bookmark. The identifier kind
// on deletion events is ambiguous, so both key families are cleared for
// each value passed.
func (s *Store) Forget(ctx context.Context, bookmarkID, slug string) error {
	keys := make([]string, 0, 4)
	if bookmarkID != "" {
		keys = append(keys, BookmarkKey(bookmarkID), SlugKey(bookmarkID))
	}
	if slug != "" && slug != bookmarkID {
		keys = append(keys, BookmarkKey(slug), SlugKey(slug))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to drop index entry: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	postID, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // index miss
		}
		return "", fmt.Errorf("failed to read index entry: %w", err)
	}
	return postID, nil
}
