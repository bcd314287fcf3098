// Package source is the client for the read-it-later service's GraphQL
// API. One query, keyed by (owner handle, identifier), returning a
// tagged union of article success or structured error codes.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linkmirror/linkmirror/internal/domain"
	"github.com/linkmirror/linkmirror/internal/logger"
)

// RemoteQueryError is the structured error the source service returns
// inside the tagged union, or at the GraphQL top level.
type RemoteQueryError struct {
	Codes []string
}

func (e *RemoteQueryError) Error() string {
	return "source query failed: " + strings.Join(e.Codes, ", ")
}

// UnexpectedShapeError marks a response that is neither the success nor
// the expected error arm of the union.
type UnexpectedShapeError struct {
	Detail string
}

func (e *UnexpectedShapeError) Error() string {
	return "unexpected source response shape: " + e.Detail
}

const articleQuery = `
  query GetArticle($username: String!, $slug: String!) {
    article(username: $username, slug: $slug) {
      ... on ArticleSuccess {
        article {
          title
          originalArticleUrl
          slug
          id
          createdAt
          description
          labels {
            name
          }
          highlights {
            quote
            annotation
          }
        }
      }
      ... on ArticleError {
        errorCodes
      }
    }
  }`

// Client issues article queries. It never retries; redelivery belongs
// to the webhook source.
type Client struct {
	endpoint string
	token    string
	username string
	httpc    *http.Client
	logger   logger.Logger
}

func New(endpoint, token, username string, log logger.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		username: username,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: log,
	}
}

type gqlRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		Article *struct {
			Article    *gqlArticle `json:"article"`
			ErrorCodes []string    `json:"errorCodes"`
		} `json:"article"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type gqlArticle struct {
	Title              string    `json:"title"`
	OriginalArticleURL string    `json:"originalArticleUrl"`
	Slug               string    `json:"slug"`
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	Description        string    `json:"description"`
	Labels             []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Highlights []struct {
		Quote      string `json:"quote"`
		Annotation string `json:"annotation"`
	} `json:"highlights"`
}

// Fetch retrieves the current bookmark state for an identifier.
func (c *Client) Fetch(ctx context.Context, identifier string) (*domain.BookmarkSnapshot, error) {
	body, err := json.Marshal(gqlRequest{
		Query: articleQuery,
		Variables: map[string]string{
			"username": c.username,
			"slug":     identifier,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal article query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build article request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	c.logger.Debug("querying source service",
		logger.String("identifier", identifier))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query source service: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteQueryError{Codes: []string{fmt.Sprintf("HTTP_%d", resp.StatusCode)}}
	}

	var parsed gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &UnexpectedShapeError{Detail: "body is not valid JSON"}
	}

	if len(parsed.Errors) > 0 {
		codes := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			codes = append(codes, e.Message)
		}
		return nil, &RemoteQueryError{Codes: codes}
	}

	union := parsed.Data.Article
	if union == nil {
		return nil, &UnexpectedShapeError{Detail: "missing article union"}
	}
	if len(union.ErrorCodes) > 0 {
		return nil, &RemoteQueryError{Codes: union.ErrorCodes}
	}
	if union.Article == nil {
		return nil, &UnexpectedShapeError{Detail: "union carries neither article nor error codes"}
	}

	return toSnapshot(union.Article), nil
}

func toSnapshot(a *gqlArticle) *domain.BookmarkSnapshot {
	snap := &domain.BookmarkSnapshot{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		OriginalURL: a.OriginalArticleURL,
		CreatedAt:   a.CreatedAt,
		Description: a.Description,
	}
	for _, l := range a.Labels {
		snap.Labels = append(snap.Labels, l.Name)
	}
	for _, h := range a.Highlights {
		snap.Highlights = append(snap.Highlights, domain.Highlight{
			Quote:      h.Quote,
			Annotation: h.Annotation,
		})
	}
	return snap
}
