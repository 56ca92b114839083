package client

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/laelblog/blogctl/pkg/tree"
)

func (c *Client) ListMenus(ctx context.Context) ([]Menu, error) {
	var resp envelope[[]Menu]
	if err := c.Do(ctx, Request{Endpoint: "/api/menus"}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Menu{}, nil
	}
	return resp.Data, nil
}

func (c *Client) GetMenu(ctx context.Context, id int) (*Menu, error) {
	var resp envelope[Menu]
	if err := c.Do(ctx, Request{Endpoint: fmt.Sprintf("/api/menus/%d", id)}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetMenuBySlug is the public read used to render navigation.
func (c *Client) GetMenuBySlug(ctx context.Context, slug string) (*Menu, error) {
	var resp envelope[Menu]
	err := c.Do(ctx, Request{Endpoint: "/api/menus/slug/" + url.PathEscape(slug), SkipAuth: true}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) CreateMenu(ctx context.Context, in MenuInput) (*Menu, error) {
	var resp envelope[Menu]
	if err := c.Do(ctx, Request{Method: http.MethodPost, Endpoint: "/api/menus", Body: in}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateMenu(ctx context.Context, id int, in MenuInput) (*Menu, error) {
	var resp envelope[Menu]
	err := c.Do(ctx, Request{Method: http.MethodPut, Endpoint: fmt.Sprintf("/api/menus/%d", id), Body: in}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteMenu(ctx context.Context, id int) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: fmt.Sprintf("/api/menus/%d", id)}, nil)
}

func (c *Client) ListMenuItems(ctx context.Context, menuID int) ([]MenuItem, error) {
	var resp envelope[[]MenuItem]
	if err := c.Do(ctx, Request{Endpoint: fmt.Sprintf("/api/menus/%d/items", menuID)}, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []MenuItem{}, nil
	}
	return resp.Data, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, menuID int, in MenuItemInput) (*MenuItem, error) {
	var resp envelope[MenuItem]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf("/api/menus/%d/items", menuID),
		Body:     in,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) UpdateMenuItem(ctx context.Context, menuID, itemID int, in MenuItemInput) (*MenuItem, error) {
	var resp envelope[MenuItem]
	err := c.Do(ctx, Request{
		Method:   http.MethodPut,
		Endpoint: fmt.Sprintf("/api/menus/%d/items/%d", menuID, itemID),
		Body:     in,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) DeleteMenuItem(ctx context.Context, menuID, itemID int) error {
	return c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Endpoint: fmt.Sprintf("/api/menus/%d/items/%d", menuID, itemID),
	}, nil)
}

// ReorderMenuItems saves new positions and parents for the given items.
func (c *Client) ReorderMenuItems(ctx context.Context, menuID int, order []MenuItemOrder) error {
	return c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf("/api/menus/%d/items/reorder", menuID),
		Body:     map[string][]MenuItemOrder{"items": order},
	}, nil)
}

// MenuNode is a menu item with its nested children.
type MenuNode struct {
	MenuItem
	Children []*MenuNode
}

// BuildMenuTree nests flat menu items under their parents, ordering each
// level by sortOrder, then id. Items pointing at a missing parent are
// dropped.
func BuildMenuTree(items []MenuItem) []*MenuNode {
	forest := tree.Build(items,
		func(it MenuItem) int { return it.ID },
		func(it MenuItem) (int, bool) {
			if it.ParentID == nil || *it.ParentID == 0 {
				return 0, false
			}
			return *it.ParentID, true
		},
		func(a, b MenuItem) int {
			if n := cmp.Compare(a.SortOrder, b.SortOrder); n != 0 {
				return n
			}
			return cmp.Compare(a.ID, b.ID)
		},
	)
	return toMenuNodes(forest)
}

func toMenuNodes(nodes []*tree.Node[MenuItem]) []*MenuNode {
	out := make([]*MenuNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &MenuNode{MenuItem: n.Item, Children: toMenuNodes(n.Children)})
	}
	return out
}

// Link returns where a menu item points: its URL for hyperlinks, the post
// permalink for post items, "#" when neither is known.
func (it MenuItem) Link() string {
	switch it.Type {
	case MenuItemPost:
		if it.PostSlug != "" {
			return "/posts/" + it.PostSlug
		}
		if it.PostID != nil {
			return fmt.Sprintf("/posts/%d", *it.PostID)
		}
	default:
		if it.URL != "" {
			return it.URL
		}
	}
	return "#"
}
