package cmd

import (
	"net/http"
	"testing"

	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInfo(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/database/info", r.URL.Path)
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"tables":       []map[string]any{{"name": "posts"}, {"name": "comments"}},
			"indexes":      []map[string]any{{"name": "idx_posts_slug", "tbl_name": "posts"}},
			"tableStats":   []map[string]any{{"name": "posts", "rowCount": 12}, {"name": "comments", "rowCount": 40}},
			"totalTables":  2,
			"totalIndexes": 1,
		}))
	}))
	env.seed("tok", "")

	res := env.run("", "schema", "info")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "posts")
	assert.Contains(t, res.stdout, "40")
	assert.Contains(t, res.stdout, "2 tables, 1 indexes")
}

func TestSchemaFix_ReportsFailures(t *testing.T) {
	var submitted map[string]any
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/schema/validate":
			writeJSON(w, http.StatusOK, ok(map[string]any{
				"valid": false,
				"issues": []map[string]any{
					{"type": "missing_index", "severity": "warning", "table": "posts", "index": "idx_posts_slug", "fixable": true},
					{"type": "missing_column", "severity": "error", "table": "posts", "column": "summary", "fixable": true},
				},
			}))
		case "/api/admin/schema/fix":
			assert.Equal(t, http.MethodPost, r.Method)
			submitted = readBody(t, r)
			writeJSON(w, http.StatusOK, ok(map[string]any{
				"fixed":   1,
				"failed":  []string{"posts.summary: duplicate column"},
				"message": "Fixed 1 of 2 issues",
			}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	env.seed("tok", "")

	res := env.run("", "schema", "fix")
	require.Error(t, res.err)
	assert.Equal(t, clierr.API, clierr.FromAPI(res.err).Type)
	issues, _ := submitted["issues"].([]any)
	assert.Len(t, issues, 2)
	assert.Contains(t, res.stdout, "Fixed 1 issues.")
	assert.Contains(t, res.stdout, "failed: posts.summary: duplicate column")
}

func TestSchemaValidate_PrintsIssues(t *testing.T) {
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ok(map[string]any{
			"valid": false,
			"issues": []map[string]any{
				{"type": "wrong_type", "severity": "error", "table": "posts", "column": "id", "expected": "INTEGER", "actual": "TEXT"},
			},
		}))
	}))
	env.seed("tok", "")

	res := env.run("", "schema", "validate")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "posts.id")
	assert.Contains(t, res.stdout, "INTEGER")
}
