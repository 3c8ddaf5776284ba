package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/health"
	"github.com/genomemcp/genomemcp/internal/store"
	"github.com/genomemcp/genomemcp/internal/tools"
)

type runnerFunc func(ctx context.Context, q string) (string, error)

func (f runnerFunc) Run(ctx context.Context, q string) (string, error) { return f(ctx, q) }

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r, err := tools.NewRegistry(nil, tools.Capability{
		Spec: core.CapabilitySpec{
			Name:        "get_gene_info",
			Description: "Gene summary",
			Params:      []core.ParamSpec{{Name: "gene_symbol", Type: core.TypeString, Required: true}},
		},
		Handler: func(_ context.Context, a tools.Args) (any, error) {
			return "# " + a.String("gene_symbol"), nil
		},
	})
	require.NoError(t, err)
	return r
}

func setup(t *testing.T, runner Runner) (*Server, *store.DB) {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := health.NewRegistry()
	reg.Register("store", db)
	return New(Deps{Tools: testRegistry(t), Runner: runner, Store: db, Health: reg}), db
}

func do(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	s, _ := setup(t, nil)
	code, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, health.StatusOK, body["status"])
	assert.Contains(t, body["components"], "store")
}

func TestTools_ListAndInvoke(t *testing.T) {
	s, _ := setup(t, nil)

	code, body := do(t, s, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, code)
	list := body["tools"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "get_gene_info", list[0].(map[string]any)["name"])

	code, body = do(t, s, http.MethodPost, "/api/tools/get_gene_info", `{"gene_symbol":"BRCA1"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "# BRCA1", body["report"])

	code, body = do(t, s, http.MethodPost, "/api/tools/get_gene_info", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["error"], "Error executing get_gene_info")

	code, body = do(t, s, http.MethodPost, "/api/tools/nope", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Unknown tool: nope", body["error"])
}

func TestAsk_RecordsHistory(t *testing.T) {
	s, db := setup(t, runnerFunc(func(_ context.Context, q string) (string, error) {
		return "answer to " + q, nil
	}))

	code, body := do(t, s, http.MethodPost, "/api/ask", `{"query":"What is BRCA1?","user_id":"u1"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "answer to What is BRCA1?", body["answer"])

	require.Eventually(t, func() bool {
		items, err := db.History(context.Background(), "u1", 10)
		return err == nil && len(items) == 1
	}, 2*time.Second, 20*time.Millisecond)

	code, body = do(t, s, http.MethodGet, "/api/history/u1?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "What is BRCA1?", items[0].(map[string]any)["query"])
}

func TestAsk_Errors(t *testing.T) {
	s, _ := setup(t, runnerFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model unreachable")
	}))
	code, body := do(t, s, http.MethodPost, "/api/ask", `{"query":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Query is required", body["error"])

	code, body = do(t, s, http.MethodPost, "/api/ask", `{"query":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "model unreachable", body["error"])

	noAgent, _ := setup(t, nil)
	code, _ = do(t, noAgent, http.MethodPost, "/api/ask", `{"query":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestFavorites_Toggle(t *testing.T) {
	s, _ := setup(t, nil)

	code, body := do(t, s, http.MethodPost, "/api/favorites/u1", `{"item_type":"gene","item_id":"TP53","data":{"symbol":"TP53"}}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["favorite"])

	code, body = do(t, s, http.MethodGet, "/api/favorites/u1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 1)

	code, body = do(t, s, http.MethodPost, "/api/favorites/u1", `{"item_type":"gene","item_id":"TP53"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["favorite"])

	code, body = do(t, s, http.MethodPost, "/api/favorites/u1", `{"item_type":"gene"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ItemID is required", body["error"])
}
