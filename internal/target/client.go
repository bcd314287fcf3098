// Package target is the client for the content store's Admin API. It
// covers the four operations the sync needs: list-by-tag, create, edit
// and delete. Every call is an individually atomic network operation
// authenticated with a freshly minted token.
package target

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/linkmirror/linkmirror/internal/logger"
)

// ErrNotFound is returned when the store has no post for the given id.
var ErrNotFound = errors.New("post not found")

// APIError is a non-2xx response from the store.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("target store returned %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// Post is the mirrored representation of one bookmark in the store.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug,omitempty"`
	HTML         string    `json:"html"`
	Status       string    `json:"status,omitempty"`
	Visibility   string    `json:"visibility,omitempty"`
	CanonicalURL string    `json:"canonical_url,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PostDraft is the mutable post payload for create and edit calls.
// Title is omitted when empty so an edit can leave the stored title
// untouched. UpdatedAt carries the optimistic-concurrency token the
// store requires on edits.
type PostDraft struct {
	Title        string     `json:"title,omitempty"`
	HTML         string     `json:"html"`
	Tags         []string   `json:"tags,omitempty"`
	Status       string     `json:"status,omitempty"`
	Visibility   string     `json:"visibility,omitempty"`
	CanonicalURL string     `json:"canonical_url,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type postsEnvelope struct {
	Posts []Post `json:"posts"`
}

type errorsEnvelope struct {
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// Client talks to one store instance.
type Client struct {
	baseURL string
	keyID   string
	secret  []byte
	httpc   *http.Client
	logger  logger.Logger
}

func New(baseURL, adminKey string, log logger.Logger) (*Client, error) {
	keyID, secret, err := splitAdminKey(adminKey)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log,
	}, nil
}

// Browse lists posts carrying the given tag, bodies included, up to
// limit. The store pages results; posts beyond the limit are not
// returned, which callers must treat as a scan ceiling.
func (c *Client) Browse(ctx context.Context, tag string, limit int) ([]Post, error) {
	q := url.Values{}
	q.Set("filter", "tag:"+tag)
	q.Set("formats", "html")
	q.Set("limit", strconv.Itoa(limit))

	env, err := c.do(ctx, http.MethodGet, "/posts/", q, nil)
	if err != nil {
		return nil, err
	}
	return env.Posts, nil
}

// Read fetches one post by id. Returns ErrNotFound when the store has
// no such post.
func (c *Client) Read(ctx context.Context, id string) (*Post, error) {
	q := url.Values{}
	q.Set("formats", "html")

	env, err := c.do(ctx, http.MethodGet, "/posts/"+id+"/", q, nil)
	if err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, ErrNotFound
	}
	return &env.Posts[0], nil
}

// Add creates a new post from the draft's raw HTML body.
func (c *Client) Add(ctx context.Context, draft PostDraft) (*Post, error) {
	q := url.Values{}
	q.Set("source", "html")

	env, err := c.doDraft(ctx, http.MethodPost, "/posts/", q, draft)
	if err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, &APIError{StatusCode: http.StatusCreated, Type: "EmptyResponse", Message: "create returned no post"}
	}
	return &env.Posts[0], nil
}

// Edit replaces a post in place. The draft must carry the post's
// current UpdatedAt token or the store rejects the write.
func (c *Client) Edit(ctx context.Context, id string, draft PostDraft) (*Post, error) {
	q := url.Values{}
	q.Set("source", "html")

	env, err := c.doDraft(ctx, http.MethodPut, "/posts/"+id+"/", q, draft)
	if err != nil {
		return nil, err
	}
	if len(env.Posts) == 0 {
		return nil, &APIError{StatusCode: http.StatusOK, Type: "EmptyResponse", Message: "edit returned no post"}
	}
	return &env.Posts[0], nil
}

// Delete removes a post by id. Returns ErrNotFound when it is already
// gone.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/posts/"+id+"/", nil, nil)
	return err
}

type draftEnvelope struct {
	Posts []PostDraft `json:"posts"`
}

func (c *Client) doDraft(ctx context.Context, method, path string, q url.Values, draft PostDraft) (*postsEnvelope, error) {
	return c.do(ctx, method, path, q, draftEnvelope{Posts: []PostDraft{draft}})
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload any) (*postsEnvelope, error) {
	u := c.baseURL + "/ghost/api/admin" + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token, err := mintToken(c.keyID, c.secret, time.Now())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Version", "v5.0")

	c.logger.Debug("target store call",
		logger.String("method", method),
		logger.String("path", path))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call target store: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Type: "Unknown"}
		var envErr errorsEnvelope
		if decodeErr := json.NewDecoder(resp.Body).Decode(&envErr); decodeErr == nil && len(envErr.Errors) > 0 {
			apiErr.Type = envErr.Errors[0].Type
			apiErr.Message = envErr.Errors[0].Message
		}
		return nil, apiErr
	}

	if resp.StatusCode == http.StatusNoContent {
		return &postsEnvelope{}, nil
	}

	var env postsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode target store response: %w", err)
	}
	return &env, nil
}
