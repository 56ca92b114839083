package client

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/laelblog/blogctl/pkg/tree"
	"github.com/rs/zerolog/log"
)

// AdminCommentQuery filters the moderation queue. Zero values are omitted.
type AdminCommentQuery struct {
	Page   int
	Limit  int
	Status string
	PostID int
}

func (q AdminCommentQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.PostID > 0 {
		v.Set("postId", strconv.Itoa(q.PostID))
	}
	return v
}

// commentListing covers both listing shapes: the public one carries the
// array in data, the moderation queue nests {comments, pagination} in it.
type commentListing struct {
	Data       json.RawMessage `json:"data"`
	Total      int             `json:"total"`
	Pagination Pagination      `json:"pagination"`
}

func (l commentListing) page() *Paginated[Comment] {
	res := &Paginated[Comment]{Data: []Comment{}, Pagination: l.Pagination}
	data := bytes.TrimSpace(l.Data)
	switch {
	case len(data) == 0:
	case data[0] == '[':
		if err := json.Unmarshal(data, &res.Data); err != nil || res.Data == nil {
			log.Debug().Err(err).Msg("Comment listing data is malformed, treating as empty")
			res.Data = []Comment{}
		}
	case data[0] == '{':
		var nested struct {
			Comments   []Comment  `json:"comments"`
			Pagination Pagination `json:"pagination"`
		}
		if err := json.Unmarshal(data, &nested); err != nil {
			log.Debug().Err(err).Msg("Comment listing data is malformed, treating as empty")
			break
		}
		if nested.Comments != nil {
			res.Data = nested.Comments
		}
		res.Pagination = nested.Pagination
	default:
		log.Debug().Msg("Comment listing data is not an array, treating as empty")
	}
	if res.Pagination.Total == 0 {
		res.Pagination.Total = l.Total
	}
	return res
}

// ListComments returns the approved comments of a post. With threaded set
// the server nests replies. A missing or malformed data array yields an
// empty list.
func (c *Client) ListComments(ctx context.Context, postID, page, limit int, threaded bool) (*Paginated[Comment], error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if threaded {
		q.Set("tree", "true")
	}
	var resp commentListing
	err := c.Do(ctx, Request{
		Endpoint: fmt.Sprintf("/api/comments/post/%d", postID),
		Query:    q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.page(), nil
}

func (c *Client) CreateComment(ctx context.Context, in CommentInput) (*Comment, error) {
	var resp envelope[Comment]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/comments",
		Body:     in,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UpdateComment edits the text of a comment.
func (c *Client) UpdateComment(ctx context.Context, id int, content string) (*Comment, error) {
	var resp envelope[Comment]
	err := c.Do(ctx, Request{
		Method:   http.MethodPut,
		Endpoint: fmt.Sprintf("/api/comments/%d", id),
		Body:     map[string]string{"content": content},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: fmt.Sprintf("/api/comments/%d", id)}, nil)
}

// ModerateComment moves a comment to status.
func (c *Client) ModerateComment(ctx context.Context, id int, status string) (*Comment, error) {
	var resp envelope[Comment]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf("/api/comments/%d/moderate", id),
		Body:     map[string]string{"status": status},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) ListAdminComments(ctx context.Context, q AdminCommentQuery) (*Paginated[Comment], error) {
	var resp commentListing
	if err := c.Do(ctx, Request{Endpoint: "/api/admin/comments", Query: q.values()}, &resp); err != nil {
		return nil, err
	}
	return resp.page(), nil
}

func (c *Client) CommentStats(ctx context.Context) (*CommentStats, error) {
	var resp envelope[CommentStats]
	if err := c.Do(ctx, Request{Endpoint: "/api/admin/comments/stats"}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// BuildCommentTree threads a flat comment list. Each level is ordered by
// creation time, then id. Comments without a parent (nil or 0) are roots;
// replies to unknown comments are dropped.
func BuildCommentTree(flat []Comment) []*Comment {
	forest := tree.Build(flat,
		func(c Comment) int { return c.ID },
		func(c Comment) (int, bool) {
			if c.ParentID == nil || *c.ParentID == 0 {
				return 0, false
			}
			return *c.ParentID, true
		},
		func(a, b Comment) int {
			if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
				return n
			}
			return cmp.Compare(a.ID, b.ID)
		},
	)
	return toComments(forest)
}

func toComments(nodes []*tree.Node[Comment]) []*Comment {
	out := make([]*Comment, 0, len(nodes))
	for _, n := range nodes {
		c := n.Item
		c.Replies = toComments(n.Children)
		out = append(out, &c)
	}
	return out
}
