package sync

import (
	"context"

	"github.com/linkmirror/linkmirror/internal/target"
)

// fakeStore implements PostLister and PostWriter with canned responses
// and call recording.
type fakeStore struct {
	browsePosts []target.Post
	browseErr   error
	browseCalls int

	readPosts map[string]*target.Post
	readErr   error
	readIDs   []string

	addResult *target.Post
	addErr    error
	added     []target.PostDraft

	editResult *target.Post
	editErr    error
	editedIDs  []string
	edited     []target.PostDraft

	deleteErr error
	deleted   []string
}

func (f *fakeStore) Browse(_ context.Context, _ string, _ int) ([]target.Post, error) {
	f.browseCalls++
	return f.browsePosts, f.browseErr
}

func (f *fakeStore) Read(_ context.Context, id string) (*target.Post, error) {
	f.readIDs = append(f.readIDs, id)
	if f.readErr != nil {
		return nil, f.readErr
	}
	if post, ok := f.readPosts[id]; ok {
		return post, nil
	}
	return nil, target.ErrNotFound
}

func (f *fakeStore) Add(_ context.Context, draft target.PostDraft) (*target.Post, error) {
	f.added = append(f.added, draft)
	if f.addErr != nil {
		return nil, f.addErr
	}
	if f.addResult != nil {
		return f.addResult, nil
	}
	return &target.Post{ID: "new-post", Title: draft.Title, HTML: draft.HTML}, nil
}

func (f *fakeStore) Edit(_ context.Context, id string, draft target.PostDraft) (*target.Post, error) {
	f.editedIDs = append(f.editedIDs, id)
	f.edited = append(f.edited, draft)
	if f.editErr != nil {
		return nil, f.editErr
	}
	if f.editResult != nil {
		return f.editResult, nil
	}
	return &target.Post{ID: id, Title: draft.Title, HTML: draft.HTML}, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type indexEntry struct {
	bookmarkID string
	slug       string
	postID     string
}

// fakeIndex implements Index with a single canned lookup result.
type fakeIndex struct {
	lookupResult string
	lookupErr    error
	saveErr      error

	lookups   int
	saved     []indexEntry
	forgotten []indexEntry
}

func (f *fakeIndex) Lookup(_ context.Context, _, _ string) (string, error) {
	f.lookups++
	return f.lookupResult, f.lookupErr
}

func (f *fakeIndex) Save(_ context.Context, bookmarkID, slug, postID string) error {
	f.saved = append(f.saved, indexEntry{bookmarkID: bookmarkID, slug: slug, postID: postID})
	return f.saveErr
}

func (f *fakeIndex) Forget(_ context.Context, bookmarkID, slug string) error {
	f.forgotten = append(f.forgotten, indexEntry{bookmarkID: bookmarkID, slug: slug})
	return nil
}
