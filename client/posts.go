package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// PostQuery filters a post listing. Zero values are omitted.
type PostQuery struct {
	Page      int
	Limit     int
	Published *bool
	Type      string
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Published != nil {
		v.Set("published", strconv.FormatBool(*q.Published))
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	return v
}

func (c *Client) ListPosts(ctx context.Context, q PostQuery) (*Paginated[Post], error) {
	var resp Paginated[Post]
	if err := c.Do(ctx, Request{Endpoint: "/api/posts", Query: q.values()}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []Post{}
	}
	return &resp, nil
}

func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	var resp envelope[Post]
	if err := c.Do(ctx, Request{Endpoint: fmt.Sprintf("/api/posts/%d", id)}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if in.PostType == "" {
		in.PostType = TypePost
	}
	var resp envelope[Post]
	if err := c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/api/posts", Body: in}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int, in PostUpdate) (*Post, error) {
	var resp envelope[Post]
	err := c.Do(ctx, Request{Method: http.MethodPut, Endpoint: fmt.Sprintf("/api/posts/%d", id), Body: in}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: fmt.Sprintf("/api/posts/%d", id)}, nil)
}

// Pages are posts with postType "page".

func (c *Client) ListPages(ctx context.Context, q PostQuery) (*Paginated[Post], error) {
	q.Type = TypePage
	return c.ListPosts(ctx, q)
}

func (c *Client) GetPage(ctx context.Context, id int) (*Post, error) {
	return c.GetPost(ctx, id)
}

// GetPageBySlug looks a page up through the posts listing filtered by slug
// and type. The backend answers with either a single page or a list; an
// empty list is a 404.
func (c *Client) GetPageBySlug(ctx context.Context, slug string) (*Post, error) {
	var resp envelope[json.RawMessage]
	err := c.Do(ctx, Request{
		Endpoint: "/api/posts",
		Query:    url.Values{"slug": {slug}, "type": {TypePage}},
	}, &resp)
	if err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(resp.Data)
	notFound := NewAPIError(fmt.Sprintf("Page %q not found", slug), http.StatusNotFound, CodeNotFound)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, notFound
	}
	if raw[0] == '[' {
		var pages []Post
		if err := json.Unmarshal(raw, &pages); err != nil {
			return nil, NewAPIError("Invalid response from server", http.StatusOK, CodeInvalidResponse).withCause(err)
		}
		if len(pages) == 0 {
			return nil, notFound
		}
		return &pages[0], nil
	}
	var page Post
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, NewAPIError("Invalid response from server", http.StatusOK, CodeInvalidResponse).withCause(err)
	}
	return &page, nil
}

func (c *Client) CreatePage(ctx context.Context, in PostInput) (*Post, error) {
	in.PostType = TypePage
	return c.CreatePost(ctx, in)
}

func (c *Client) UpdatePage(ctx context.Context, id int, in PostUpdate) (*Post, error) {
	postType := TypePage
	in.PostType = &postType
	return c.UpdatePost(ctx, id, in)
}

func (c *Client) DeletePage(ctx context.Context, id int) error {
	return c.DeletePost(ctx, id)
}

// Revision listings default to the first page of 20.
const (
	defaultRevisionPage  = 1
	defaultRevisionLimit = 20
)

// ListRevisions returns one page of the saved revisions of a post, newest
// first. Zero page or limit take the defaults.
func (c *Client) ListRevisions(ctx context.Context, postID, page, limit int) (*Paginated[Revision], error) {
	if page <= 0 {
		page = defaultRevisionPage
	}
	if limit <= 0 {
		limit = defaultRevisionLimit
	}
	var resp Paginated[Revision]
	err := c.Do(ctx, Request{
		Endpoint: fmt.Sprintf("/api/posts/%d/revisions", postID),
		Query:    url.Values{"page": {strconv.Itoa(page)}, "limit": {strconv.Itoa(limit)}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []Revision{}
	}
	return &resp, nil
}

func (c *Client) GetRevision(ctx context.Context, postID, revisionID int) (*Revision, error) {
	var resp envelope[Revision]
	err := c.Do(ctx, Request{Endpoint: fmt.Sprintf("/api/posts/%d/revisions/%d", postID, revisionID)}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// RestoreRevision copies a revision back onto its post.
func (c *Client) RestoreRevision(ctx context.Context, postID, revisionID int) (*Post, error) {
	var resp envelope[Post]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf("/api/posts/%d/revisions/%d/restore", postID, revisionID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
