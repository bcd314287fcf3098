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
	"github.com/linkmirror/linkmirror/internal/target"
)

var testDoc = &render.Document{
	Title:        "An Article",
	HTML:         "<div>rendered</div>",
	CanonicalURL: "https://example.com/article",
}

var testIdentity = Identity{BookmarkID: "bm-1", Slug: "an-article"}

func TestApplyCreate(t *testing.T) {
	store := &fakeStore{addResult: &target.Post{ID: "p9"}}
	idx := &fakeIndex{}
	e := NewExecutor(store, idx, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), nil, testDoc, domain.IntentUpsert, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	require.Len(t, store.added, 1)
	draft := store.added[0]
	assert.Equal(t, "An Article", draft.Title)
	assert.Equal(t, "<div>rendered</div>", draft.HTML)
	assert.Equal(t, []string{"links"}, draft.Tags)
	assert.Equal(t, "published", draft.Status)
	assert.Equal(t, "public", draft.Visibility)
	assert.Equal(t, "https://example.com/article", draft.CanonicalURL)
	assert.Nil(t, draft.UpdatedAt)

	require.Len(t, idx.saved, 1)
	assert.Equal(t, indexEntry{bookmarkID: "bm-1", slug: "an-article", postID: "p9"}, idx.saved[0])
}

func TestApplyUpdate(t *testing.T) {
	token := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	existing := &target.Post{ID: "p1", Title: "An Article", UpdatedAt: token}

	store := &fakeStore{}
	e := NewExecutor(store, nil, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), existing, testDoc, domain.IntentUpsert, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Empty(t, store.added)

	require.Len(t, store.edited, 1)
	draft := store.edited[0]
	assert.Equal(t, "p1", store.editedIDs[0])
	require.NotNil(t, draft.UpdatedAt)
	assert.True(t, draft.UpdatedAt.Equal(token))
	// Title unchanged, so the draft leaves it out.
	assert.Empty(t, draft.Title)
}

func TestApplyUpdateSendsChangedTitle(t *testing.T) {
	existing := &target.Post{ID: "p1", Title: "Old Title", UpdatedAt: time.Now()}

	store := &fakeStore{}
	e := NewExecutor(store, nil, "links", logger.NewNop())

	_, err := e.Apply(context.Background(), existing, testDoc, domain.IntentUpsert, testIdentity)
	require.NoError(t, err)
	require.Len(t, store.edited, 1)
	assert.Equal(t, "An Article", store.edited[0].Title)
}

func TestApplyDelete(t *testing.T) {
	existing := &target.Post{ID: "p1"}
	store := &fakeStore{}
	idx := &fakeIndex{}
	e := NewExecutor(store, idx, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), existing, nil, domain.IntentDelete, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, outcome)
	assert.Equal(t, []string{"p1"}, store.deleted)
	require.Len(t, idx.forgotten, 1)
}

func TestApplyDeleteWithoutPost(t *testing.T) {
	store := &fakeStore{}
	e := NewExecutor(store, nil, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), nil, nil, domain.IntentDelete, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothing, outcome)
	assert.Empty(t, store.deleted)
}

func TestApplyUpsertWithoutDocument(t *testing.T) {
	store := &fakeStore{}
	e := NewExecutor(store, nil, "links", logger.NewNop())

	_, err := e.Apply(context.Background(), nil, nil, domain.IntentUpsert, testIdentity)
	assert.Error(t, err)
	assert.Empty(t, store.added)
}

func TestApplyStoreFailureLeavesOutcomeNothing(t *testing.T) {
	store := &fakeStore{addErr: errors.New("store rejected the write")}
	e := NewExecutor(store, nil, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), nil, testDoc, domain.IntentUpsert, testIdentity)
	assert.Error(t, err)
	assert.Equal(t, OutcomeNothing, outcome)
}

func TestApplyIndexFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{addResult: &target.Post{ID: "p9"}}
	idx := &fakeIndex{saveErr: errors.New("index unavailable")}
	e := NewExecutor(store, idx, "links", logger.NewNop())

	outcome, err := e.Apply(context.Background(), nil, testDoc, domain.IntentUpsert, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
}
