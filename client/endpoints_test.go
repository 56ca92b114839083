package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPosts_SendsQuery(t *testing.T) {
	var query string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       []map[string]any{{"id": 1, "title": "A"}, {"id": 2, "title": "B"}},
			"pagination": map[string]any{"page": 2, "limit": 2, "total": 6, "totalPages": 3, "hasNext": true},
		})
	}))

	published := true
	resp, err := c.ListPosts(context.Background(), PostQuery{Page: 2, Limit: 2, Published: &published})
	require.NoError(t, err)
	assert.Equal(t, "limit=2&page=2&published=true", query)
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
}

func TestListPages_FiltersByType(t *testing.T) {
	var typ string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		typ = r.URL.Query().Get("type")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	resp, err := c.ListPages(context.Background(), PostQuery{})
	require.NoError(t, err)
	assert.Equal(t, TypePage, typ)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestCreatePage_SetsPostType(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, ok(map[string]any{"id": 9, "postType": "page"}))
	}))

	page, err := c.CreatePage(context.Background(), PostInput{Title: "About", Content: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, 9, page.ID)
	assert.Equal(t, "page", body["postType"])
}

func TestUpdatePost_OmitsUnsetFields(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/posts/3", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, ok(map[string]any{"id": 3, "published": false}))
	}))

	published := false
	_, err := c.UpdatePost(context.Background(), 3, PostUpdate{Published: &published})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"published": false}, body)

	_, err = c.UpdatePage(context.Background(), 3, PostUpdate{Published: &published})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"published": false, "postType": "page"}, body)
}

func TestGetPageBySlug(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		wantID   int
		notFound bool
	}{
		{"object", map[string]any{"id": 4, "slug": "about"}, 4, false},
		{"array", []map[string]any{{"id": 5, "slug": "about"}}, 5, false},
		{"empty array", []map[string]any{}, 0, true},
		{"null", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/posts", r.URL.Path)
				assert.Equal(t, "about", r.URL.Query().Get("slug"))
				assert.Equal(t, TypePage, r.URL.Query().Get("type"))
				assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
				writeJSON(w, http.StatusOK, ok(tt.data))
			}))
			require.NoError(t, c.SetToken(context.Background(), "abc"))

			page, err := c.GetPageBySlug(context.Background(), "about")
			if tt.notFound {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusNotFound, apiErr.Status)
				assert.Equal(t, CodeNotFound, apiErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, page.ID)
		})
	}
}

func TestRevisions(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/posts/2/revisions":
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			writeJSON(w, http.StatusOK, map[string]any{
				"data":       []map[string]any{{"id": 11, "postId": 2, "revisionNumber": 3}},
				"pagination": map[string]any{"page": 1, "limit": 20, "total": 1, "totalPages": 1},
			})
		case "/api/posts/2/revisions/11/restore":
			assert.Equal(t, http.MethodPost, r.Method)
			writeJSON(w, http.StatusOK, ok(map[string]any{"id": 2, "title": "restored"}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	ctx := context.Background()

	revs, err := c.ListRevisions(ctx, 2, 0, 0)
	require.NoError(t, err)
	require.Len(t, revs.Data, 1)
	assert.Equal(t, 3, revs.Data[0].RevisionNumber)
	assert.Equal(t, 1, revs.Pagination.Total)

	post, err := c.RestoreRevision(ctx, 2, 11)
	require.NoError(t, err)
	assert.Equal(t, "restored", post.Title)

	_, err = c.GetRevision(ctx, 2, 99)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestListComments_NormalizesData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"array", `{"success":true,"data":[{"id":1},{"id":2}]}`, 2},
		{"missing", `{"success":true}`, 0},
		{"not an array", `{"success":true,"data":{"oops":true}}`, 0},
		{"null", `{"success":true,"data":null}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/comments/post/5", r.URL.Path)
				assert.Equal(t, "true", r.URL.Query().Get("tree"))
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, tt.body)
			}))

			resp, err := c.ListComments(context.Background(), 5, 1, 20, true)
			require.NoError(t, err)
			assert.NotNil(t, resp.Data)
			assert.Len(t, resp.Data, tt.want)
		})
	}
}

func TestListAdminComments_NestedListing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/comments", r.URL.Path)
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"comments":   []map[string]any{{"id": 4, "status": "pending", "post_title": "Hello"}},
			"pagination": map[string]any{"page": 1, "limit": 20, "total": 1, "totalPages": 1},
		}))
	}))

	res, err := c.ListAdminComments(context.Background(), AdminCommentQuery{Status: CommentPending})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Hello", res.Data[0].PostTitle)
	assert.Equal(t, 1, res.Pagination.Total)
}

func TestCommentRoutes(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, ok(map[string]any{"id": 3}))
	}))
	ctx := context.Background()

	_, err := c.CreateComment(ctx, CommentInput{PostID: 7, AuthorName: "Ann", Content: "Hi"})
	require.NoError(t, err)
	_, err = c.UpdateComment(ctx, 3, "Edited")
	require.NoError(t, err)
	require.NoError(t, c.DeleteComment(ctx, 3))
	_, err = c.CommentStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /api/comments",
		"PUT /api/comments/3",
		"DELETE /api/comments/3",
		"GET /api/admin/comments/stats",
	}, seen)
}

func TestModerateComment(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/comments/8/moderate", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, ok(map[string]any{"id": 8, "status": "approved"}))
	}))

	cm, err := c.ModerateComment(context.Background(), 8, CommentApproved)
	require.NoError(t, err)
	assert.Equal(t, CommentApproved, cm.Status)
	assert.Equal(t, map[string]string{"status": "approved"}, body)
}

func TestBuildCommentTree(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	flat := []Comment{
		{ID: 3, ParentID: intPtr(1), CreatedAt: base.Add(3 * time.Minute)},
		{ID: 1, CreatedAt: base.Add(time.Minute)},
		{ID: 2, ParentID: intPtr(1), CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, ParentID: intPtr(0), CreatedAt: base},
		{ID: 5, ParentID: intPtr(42), CreatedAt: base},
		{ID: 6, ParentID: intPtr(2), CreatedAt: base.Add(4 * time.Minute)},
	}

	roots := BuildCommentTree(flat)
	require.Len(t, roots, 2)
	assert.Equal(t, 4, roots[0].ID)
	assert.Equal(t, 1, roots[1].ID)
	require.Len(t, roots[1].Replies, 2)
	assert.Equal(t, 2, roots[1].Replies[0].ID)
	assert.Equal(t, 3, roots[1].Replies[1].ID)
	require.Len(t, roots[1].Replies[0].Replies, 1)
	assert.Equal(t, 6, roots[1].Replies[0].Replies[0].ID)
}

func TestBuildMenuTree(t *testing.T) {
	items := []MenuItem{
		{ID: 1, Label: "Blog", SortOrder: 2},
		{ID: 2, Label: "Home", SortOrder: 1},
		{ID: 3, Label: "Archive", ParentID: intPtr(1), SortOrder: 1},
		{ID: 4, Label: "Tags", ParentID: intPtr(1), SortOrder: 0},
		{ID: 5, Label: "Lost", ParentID: intPtr(77)},
		{ID: 6, Label: "Loop", ParentID: intPtr(6)},
	}

	roots := BuildMenuTree(items)
	require.Len(t, roots, 2)
	assert.Equal(t, "Home", roots[0].Label)
	assert.Equal(t, "Blog", roots[1].Label)
	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "Tags", roots[1].Children[0].Label)
	assert.Equal(t, "Archive", roots[1].Children[1].Label)
}

func TestMenuItemLink(t *testing.T) {
	assert.Equal(t, "https://example.com", MenuItem{Type: MenuItemHyperlink, URL: "https://example.com"}.Link())
	assert.Equal(t, "/posts/hello", MenuItem{Type: MenuItemPost, PostID: intPtr(3), PostSlug: "hello"}.Link())
	assert.Equal(t, "/posts/3", MenuItem{Type: MenuItemPost, PostID: intPtr(3)}.Link())
	assert.Equal(t, "#", MenuItem{Type: MenuItemHyperlink}.Link())
}

func TestReorderMenuItems(t *testing.T) {
	var body map[string][]MenuItemOrder
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/menus/2/items/reorder", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	order := []MenuItemOrder{{ID: 1, SortOrder: 0}, {ID: 2, ParentID: intPtr(1), SortOrder: 1}}
	require.NoError(t, c.ReorderMenuItems(context.Background(), 2, order))
	assert.Equal(t, order, body["items"])
}

func TestMenuRoutes(t *testing.T) {
	var seen []string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+" auth="+r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, ok(map[string]any{"id": 1}))
	}))
	ctx := context.Background()
	require.NoError(t, c.SetToken(ctx, "abc"))

	_, err := c.GetMenuBySlug(ctx, "main")
	require.NoError(t, err)
	_, err = c.GetMenu(ctx, 1)
	require.NoError(t, err)
	_, err = c.CreateMenu(ctx, MenuInput{Name: "Footer", Slug: "footer"})
	require.NoError(t, err)
	_, err = c.UpdateMenuItem(ctx, 1, 5, MenuItemInput{Label: "Home", Type: MenuItemHyperlink, URL: "/"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteMenu(ctx, 1))

	assert.Equal(t, []string{
		"GET /api/menus/slug/main auth=",
		"GET /api/menus/1 auth=Bearer abc",
		"POST /api/menus auth=Bearer abc",
		"PUT /api/menus/1/items/5 auth=Bearer abc",
		"DELETE /api/menus/1 auth=Bearer abc",
	}, seen)
}

func TestFixSchema_NilValidatesFirst(t *testing.T) {
	var submitted map[string][]SchemaIssue
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/schema/validate":
			writeJSON(w, http.StatusOK, ok(map[string]any{
				"valid": false,
				"issues": []map[string]any{
					{"type": "missing_column", "severity": "error", "table": "posts", "column": "summary", "expected": "TEXT", "fixable": true, "fixQuery": "ALTER TABLE posts ADD COLUMN summary TEXT"},
					{"type": "wrong_type", "severity": "warning", "table": "posts", "column": "id", "expected": "INTEGER", "actual": "TEXT", "fixable": false},
				},
				"tablesCount":  6,
				"indexesCount": 4,
			}))
		case "/api/admin/schema/fix":
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			writeJSON(w, http.StatusOK, ok(map[string]any{"fixed": 1, "failed": []string{}, "message": "1 fixed"}))
		}
	}))

	res, err := c.FixSchema(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, submitted["issues"], 1)
	assert.Equal(t, "summary", submitted["issues"][0].Column)
	assert.Equal(t, "ALTER TABLE posts ADD COLUMN summary TEXT", submitted["issues"][0].FixQuery)
	assert.Equal(t, 1, res.Fixed)
	assert.Equal(t, []string{}, res.Failed)
}

func TestFixSchema_NothingFixableStillSubmits(t *testing.T) {
	var submitted map[string][]SchemaIssue
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/schema/fix" {
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			writeJSON(w, http.StatusOK, ok(map[string]any{"fixed": 0, "message": "Nothing to fix"}))
			return
		}
		writeJSON(w, http.StatusOK, ok(map[string]any{"valid": true}))
	}))

	res, err := c.FixSchema(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, submitted["issues"])
	assert.Empty(t, submitted["issues"])
	assert.Equal(t, 0, res.Fixed)
	assert.Equal(t, []string{}, res.Failed)
}

func TestDatabaseInfo(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/database/info", r.URL.Path)
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"tables":       []map[string]any{{"name": "posts"}},
			"indexes":      []map[string]any{{"name": "idx_posts_slug", "tbl_name": "posts"}},
			"totalTables":  1,
			"totalIndexes": 1,
		}))
	}))

	info, err := c.DatabaseInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []TableRef{{Name: "posts"}}, info.Tables)
	assert.Equal(t, "posts", info.Indexes[0].Table)
	assert.NotNil(t, info.TableStats)
	assert.Equal(t, 1, info.TotalIndexes)
}

func TestFixSchema_NoData(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	res, err := c.FixSchema(context.Background(), []SchemaIssue{{Type: "missing_table", Table: "menus", Fixable: true}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Fixed)
	assert.Equal(t, []string{}, res.Failed)
	assert.Equal(t, noDataMessage, res.Message)
}

func TestValidateSchema_Defaults(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))

	v, err := c.ValidateSchema(context.Background())
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.NotNil(t, v.Issues)
}

func TestSiteSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"wrapped", `{"success":true,"data":{"site_title":"Lael","posts_per_page":10}}`, map[string]string{"site_title": "Lael", "posts_per_page": "10"}},
		{"bare", `{"site_title":"Lael","active_theme":null}`, map[string]string{"site_title": "Lael", "active_theme": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			got, err := c.SiteSettings(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActiveTheme(t *testing.T) {
	theme := ""
	var updated map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			_ = json.NewDecoder(r.Body).Decode(&updated)
			theme = updated["active_theme"]
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
		writeJSON(w, http.StatusOK, ok(map[string]string{"active_theme": theme}))
	}))
	ctx := context.Background()

	got, err := c.ActiveTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, got)

	require.NoError(t, c.SetActiveTheme(ctx, "minimal"))
	got, err = c.ActiveTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "minimal", got)
}

func TestPublicSiteSettings_SkipsAuth(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/site-settings", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, ok(map[string]string{"site_title": "Lael"}))
	}))
	require.NoError(t, c.SetToken(context.Background(), "abc"))

	s, err := c.PublicSiteSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lael", s.SiteTitle)
	assert.Equal(t, DefaultTheme, s.ActiveTheme)
}

func TestLoginStoresBothTokens(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"top level", map[string]any{
			"success":      true,
			"message":      "Login successful",
			"admin":        map[string]any{"id": 1, "email": "admin@example.com"},
			"accessToken":  "a1",
			"refreshToken": "r1",
		}},
		{"wrapped in data", ok(map[string]any{
			"admin":        map[string]any{"id": 1, "email": "admin@example.com"},
			"accessToken":  "a1",
			"refreshToken": "r1",
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/auth/login", r.URL.Path)
				var body map[string]string
				_ = json.NewDecoder(r.Body).Decode(&body)
				assert.Equal(t, "admin@example.com", body["email"])
				writeJSON(w, http.StatusOK, tt.body)
			}))

			resp, err := c.Login(context.Background(), "admin@example.com", "secret")
			require.NoError(t, err)
			assert.Equal(t, "admin@example.com", resp.Admin.Email)
			assert.Equal(t, "a1", c.Token())
			refresh, _ := c.store.RefreshToken(context.Background())
			assert.Equal(t, "r1", refresh)
		})
	}
}

func TestLogin_SendsExistingBearer(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "accessToken": "a2", "refreshToken": "r2"})
	}), WithTokenStore(seededStore(t, "old", "r1")))

	_, err := c.Login(context.Background(), "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer old", auth)
	assert.Equal(t, "a2", c.Token())
}

func TestMe(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "admin": map[string]any{"id": 7, "email": "me@example.com"}})
	}))

	admin, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, admin.ID)
	assert.Equal(t, "me@example.com", admin.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	var refreshCalls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshEndpoint {
			refreshCalls.Add(1)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "Invalid credentials", "code": "INVALID_CREDENTIALS"}})
	}))

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, int32(0), refreshCalls.Load())
}

func TestLogout_ClearsTokensEvenOnServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"message": "down"}})
	}), WithTokenStore(seededStore(t, "a1", "r1")))

	err := c.Logout(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Token())
	refresh, _ := c.store.RefreshToken(context.Background())
	assert.Empty(t, refresh)
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestUploadFile_PresignedFlow(t *testing.T) {
	var putBody []byte
	var putAuth, putType string
	var confirm map[string]string
	mux := http.NewServeMux()
	c, srv := newTestClient(t, mux)
	mux.HandleFunc("/api/admin/upload/presigned", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "photo.png", body["filename"])
		assert.Equal(t, "image/png", body["contentType"])
		assert.InDelta(t, 15, body["fileSize"], 0)
		assert.Equal(t, UploadImage, body["uploadType"])
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"presignedUrl":   srv.URL + "/storage/tmp/abc",
			"tempKey":        "tmp/abc",
			"finalKey":       "images/abc.png",
			"uniqueFilename": "abc.png",
		}))
	})
	mux.HandleFunc("/storage/tmp/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		putAuth = r.Header.Get("Authorization")
		putType = r.Header.Get("Content-Type")
		putBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/admin/upload/confirm", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&confirm)
		writeJSON(w, http.StatusOK, ok(map[string]any{"url": "https://cdn.example.com/images/abc.png"}))
	})
	require.NoError(t, c.SetToken(context.Background(), "abc"))

	data := []byte("\x89PNG fake image")
	var progress bytes.Buffer
	res, err := c.UploadFile(context.Background(), UploadInput{
		Filename:    "photo.png",
		ContentType: "image/png",
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
		Progress:    &progress,
	})
	require.NoError(t, err)
	assert.Equal(t, data, putBody)
	assert.Empty(t, putAuth)
	assert.Equal(t, "image/png", putType)
	assert.Equal(t, data, progress.Bytes())
	assert.Equal(t, map[string]string{
		"tempKey":        "tmp/abc",
		"finalKey":       "images/abc.png",
		"uploadType":     UploadImage,
		"uniqueFilename": "abc.png",
	}, confirm)
	assert.Equal(t, "https://cdn.example.com/images/abc.png", res.URL)
	assert.Equal(t, "images/abc.png", res.Key)
	assert.Equal(t, "abc.png", res.Filename)
}

func TestUploadFile_DirectFlow(t *testing.T) {
	var filename, directAuth string
	var content []byte
	var confirm map[string]string
	mux := http.NewServeMux()
	c, _ := newTestClient(t, mux)
	mux.HandleFunc("/api/admin/upload/presigned", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"presignedUrl":   "/api/admin/upload/direct/tmp-doc",
			"tempKey":        "tmp/doc",
			"finalKey":       "documents/doc-1.pdf",
			"uniqueFilename": "doc-1.pdf",
			"isDirect":       true,
		}))
	})
	mux.HandleFunc("/api/admin/upload/direct/tmp-doc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		directAuth = r.Header.Get("Authorization")
		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			filename = header.Filename
			content, _ = io.ReadAll(file)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "tempKey": "tmp/doc"})
	})
	mux.HandleFunc("/api/admin/upload/confirm", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&confirm)
		writeJSON(w, http.StatusOK, ok(map[string]any{"url": "https://cdn.example.com/documents/doc-1.pdf"}))
	})
	require.NoError(t, c.SetToken(context.Background(), "abc"))

	res, err := c.UploadFile(context.Background(), UploadInput{
		Filename: "doc.pdf",
		Body:     strings.NewReader("%PDF"),
		Type:     UploadDocument,
	})
	require.NoError(t, err)
	assert.Equal(t, "doc.pdf", filename)
	assert.Equal(t, []byte("%PDF"), content)
	assert.Equal(t, "Bearer abc", directAuth)
	assert.Equal(t, UploadDocument, confirm["uploadType"])
	assert.Equal(t, "doc-1.pdf", confirm["uniqueFilename"])
	assert.Equal(t, "doc-1.pdf", res.Filename)
	assert.Equal(t, "documents/doc-1.pdf", res.Key)
}

func TestPresignUpload_MissingURL(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{"tempKey": "tmp/x"}))
	}))

	_, err := c.PresignUpload(context.Background(), "a.png", "image/png", 3, UploadImage)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeInvalidResponse, apiErr.Code)
}

func TestPutObject_Failure(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	err := c.PutObject(context.Background(), srv.URL+"/storage/x", strings.NewReader("x"), 1, "", nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CodeUploadFailed, apiErr.Code)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestUploadFavicon_UpdatesSetting(t *testing.T) {
	var setting map[string]string
	var presignType, confirmType string
	mux := http.NewServeMux()
	c, _ := newTestClient(t, mux)
	mux.HandleFunc("/api/admin/upload/presigned", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		presignType, _ = body["uploadType"].(string)
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"presignedUrl":   "/api/admin/upload/direct/fav",
			"tempKey":        "tmp/fav",
			"finalKey":       "favicons/favicon.ico",
			"uniqueFilename": "favicon.ico",
			"isDirect":       true,
		}))
	})
	mux.HandleFunc("/api/admin/upload/direct/fav", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "tempKey": "tmp/fav"})
	})
	mux.HandleFunc("/api/admin/upload/confirm", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		confirmType = body["uploadType"]
		writeJSON(w, http.StatusOK, ok(map[string]any{"url": "https://cdn.example.com/favicon.ico"}))
	})
	mux.HandleFunc("/api/admin/settings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&setting)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	_, err := c.UploadFavicon(context.Background(), UploadInput{Filename: "favicon.ico", Body: strings.NewReader("ico")})
	require.NoError(t, err)
	assert.Equal(t, UploadFavicon, presignType)
	assert.Equal(t, UploadFavicon, confirmType)
	assert.Equal(t, map[string]string{"favicon_url": "https://cdn.example.com/favicon.ico"}, setting)
}
