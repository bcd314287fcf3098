package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/logger"
	"github.com/linkmirror/linkmirror/internal/render"
	"github.com/linkmirror/linkmirror/internal/source"
	"github.com/linkmirror/linkmirror/internal/target"
)

type fakeFetcher struct {
	snap  *domain.BookmarkSnapshot
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*domain.BookmarkSnapshot, error) {
	f.calls++
	return f.snap, f.err
}

func newTestOrchestrator(fetcher Fetcher, store *fakeStore) *Orchestrator {
	log := logger.NewNop()
	classifier := domain.Classifier{
		SyncLabel:    "links",
		ExcludeLabel: "Newsletter",
		ContentRule:  domain.ContentRuleAnnotation,
	}
	renderer := render.New(time.UTC, "AI Summary:", "links")
	resolver := NewResolver(store, nil, "links", 100, log)
	executor := NewExecutor(store, nil, "links", log)
	return NewOrchestrator(fetcher, classifier, renderer, resolver, executor, log)
}

func syncableSnapshot() *domain.BookmarkSnapshot {
	return &domain.BookmarkSnapshot{
		ID:          "bm-1",
		Slug:        "an-article",
		Title:       "An Article",
		OriginalURL: "https://example.com/article",
		CreatedAt:   time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC),
		Labels:      []string{"links"},
		Highlights:  []domain.Highlight{{Quote: "a quote", Annotation: "a note"}},
	}
}

func updateEvent() *domain.SyncEvent {
	return &domain.SyncEvent{
		Action: domain.ActionUpdated,
		Page:   &domain.PageRef{Slug: "an-article"},
	}
}

func TestHandleMissingIdentifier(t *testing.T) {
	fetcher := &fakeFetcher{}
	o := newTestOrchestrator(fetcher, &fakeStore{})

	res := o.Handle(context.Background(), &domain.SyncEvent{Action: domain.ActionCreated})

	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, "Invalid request: Identifier is missing.", res.Message)
	assert.Zero(t, fetcher.calls)
}

func TestHandleCreatesPost(t *testing.T) {
	fetcher := &fakeFetcher{snap: syncableSnapshot()}
	store := &fakeStore{}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusApplied, res.Status)
	assert.Equal(t, "Update processed successfully.", res.Message)
	require.Len(t, store.added, 1)
	assert.Contains(t, store.added[0].HTML, render.DeletionMarker("bm-1"))
}

func TestHandleUpdatesExistingPost(t *testing.T) {
	fetcher := &fakeFetcher{snap: syncableSnapshot()}
	store := &fakeStore{
		browsePosts: []target.Post{managedPost("p1", "an-article", "bm-1")},
	}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusApplied, res.Status)
	assert.Empty(t, store.added)
	assert.Equal(t, []string{"p1"}, store.editedIDs)
}

func TestHandleSkipsWithoutSyncLabel(t *testing.T) {
	snap := syncableSnapshot()
	snap.Labels = []string{"reading"}
	fetcher := &fakeFetcher{snap: snap}
	store := &fakeStore{}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusNoAction, res.Status)
	assert.Equal(t, "No action required.", res.Message)
	assert.Zero(t, store.browseCalls)
	assert.Empty(t, store.added)
}

func TestHandleExclusionLabelBlocksSync(t *testing.T) {
	snap := syncableSnapshot()
	snap.Labels = []string{"links", "Newsletter"}
	fetcher := &fakeFetcher{snap: snap}
	store := &fakeStore{}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusNoAction, res.Status)
	assert.Empty(t, store.added)
}

func TestHandleDeleteNeverFetches(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("must not be called")}
	store := &fakeStore{
		browsePosts: []target.Post{managedPost("p1", "some-slug", "an-article")},
	}
	o := newTestOrchestrator(fetcher, store)

	ev := &domain.SyncEvent{
		Action: domain.ActionUpdated,
		Page:   &domain.PageRef{Slug: "an-article", State: domain.StateDeleted},
	}
	res := o.Handle(context.Background(), ev)

	assert.Equal(t, StatusApplied, res.Status)
	assert.Zero(t, fetcher.calls)
	assert.Equal(t, []string{"p1"}, store.deleted)
}

func TestHandleDeleteWithNothingToRemove(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := &fakeStore{}
	o := newTestOrchestrator(fetcher, store)

	ev := &domain.SyncEvent{
		Action: domain.ActionUpdated,
		State:  domain.StateDeleted,
		Page:   &domain.PageRef{Slug: "never-mirrored"},
	}
	res := o.Handle(context.Background(), ev)

	assert.Equal(t, StatusNoAction, res.Status)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, store.deleted)
}

func TestHandleFetchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "structured remote error", err: &source.RemoteQueryError{Codes: []string{"NOT_FOUND"}}},
		{name: "unexpected shape", err: &source.UnexpectedShapeError{Detail: "empty union"}},
		{name: "transport failure", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{err: tt.err}
			store := &fakeStore{}
			o := newTestOrchestrator(fetcher, store)

			res := o.Handle(context.Background(), updateEvent())

			assert.Equal(t, StatusFailed, res.Status)
			assert.Equal(t, "Internal Server Error", res.Message)
			assert.Zero(t, store.browseCalls)
		})
	}
}

func TestHandleUnrenderableSnapshot(t *testing.T) {
	snap := syncableSnapshot()
	snap.Title = "   "
	fetcher := &fakeFetcher{snap: snap}
	store := &fakeStore{}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusInvalid, res.Status)
	assert.Equal(t, "Invalid article data.", res.Message)
	assert.Zero(t, store.browseCalls)
}

func TestHandleResolutionFailure(t *testing.T) {
	fetcher := &fakeFetcher{snap: syncableSnapshot()}
	store := &fakeStore{browseErr: errors.New("store is down")}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, store.added)
}

func TestHandleMutationFailure(t *testing.T) {
	fetcher := &fakeFetcher{snap: syncableSnapshot()}
	store := &fakeStore{addErr: errors.New("store rejected the write")}
	o := newTestOrchestrator(fetcher, store)

	res := o.Handle(context.Background(), updateEvent())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "Internal Server Error", res.Message)
}

func TestHandleRepeatedUpdateEditsSamePost(t *testing.T) {
	// Replaying the same update against a mirrored post must edit it in
	// place, never create a second one.
	fetcher := &fakeFetcher{snap: syncableSnapshot()}
	store := &fakeStore{
		browsePosts: []target.Post{managedPost("p1", "an-article", "bm-1")},
	}
	o := newTestOrchestrator(fetcher, store)

	for i := 0; i < 2; i++ {
		res := o.Handle(context.Background(), updateEvent())
		assert.Equal(t, StatusApplied, res.Status)
	}

	assert.Empty(t, store.added)
	assert.Equal(t, []string{"p1", "p1"}, store.editedIDs)
}
