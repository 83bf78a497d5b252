package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"discuss/internal/auth"
	"discuss/internal/db"
	"discuss/internal/mentions"
	"discuss/internal/models"
	"discuss/internal/notify"
	"discuss/internal/search"
)

type testServer struct {
	*httptest.Server
	database *sql.DB
	apiKey   string
	worker   *mentions.Worker
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWithOptions(t, Options{})
}

// setupTestServerWithOptions wires the full stack over a temp database and
// protects it with a fresh api key.
func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	database, err := db.OpenMigrated(filepath.Join(t.TempDir(), "discuss-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	store := db.NewStore(database)
	index, err := db.NewIndex(database)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	engine, err := search.NewEngine(index)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	resolver, err := mentions.NewResolver(store)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	dispatcher, err := notify.NewDispatcher(store, store, store)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	worker, err := mentions.NewWorker(resolver, store, dispatcher, mentions.WithPoolSize(2))
	if err != nil {
		t.Fatalf("new worker: %v", err)
	}
	t.Cleanup(worker.Release)

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatalf("generate api key: %v", err)
	}
	opts.Database = database
	opts.Search = engine
	opts.Mentions = worker
	opts.Version = "test"
	opts.APIKeyHash = auth.HashAPIKey(apiKey)

	srv := httptest.NewServer(NewRouter(opts))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, database: database, apiKey: apiKey, worker: worker}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	return doReq(t, s.URL, s.apiKey, method, path, body)
}

func doReq(t *testing.T, baseURL, apiKey, method, path string, body any) *http.Response {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal req: %v", err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		t.Fatalf("expected status %d, got %d (%v)", want, resp.StatusCode, body)
	}
}

func createUserForTest(t *testing.T, s *testServer, username string) models.User {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/users", map[string]any{"username": username})
	expectStatus(t, resp, http.StatusCreated)
	var u models.User
	decodeJSON(t, resp, &u)
	return u
}

func createThreadForTest(t *testing.T, s *testServer, body map[string]any) models.Content {
	t.Helper()
	if _, ok := body["title"]; !ok {
		body["title"] = "title"
	}
	if _, ok := body["course_id"]; !ok {
		body["course_id"] = "course"
	}
	resp := s.do(t, http.MethodPost, "/api/v1/threads", body)
	expectStatus(t, resp, http.StatusCreated)
	var c models.Content
	decodeJSON(t, resp, &c)
	return c
}

func TestStatusReportsStats(t *testing.T) {
	s := setupTestServer(t)
	alice := createUserForTest(t, s, "alice")
	createThreadForTest(t, s, map[string]any{"author_id": alice.ID, "body": "hello"})

	resp := doReq(t, s.URL, "", http.MethodGet, "/api/v1/status", nil)
	expectStatus(t, resp, http.StatusOK)
	var payload struct {
		Status  string        `json:"status"`
		Version string        `json:"version"`
		Stats   db.ForumStats `json:"stats"`
	}
	decodeJSON(t, resp, &payload)
	if payload.Status != "ok" || payload.Version != "test" {
		t.Fatalf("unexpected status payload: %+v", payload)
	}
	if payload.Stats.Users != 1 || payload.Stats.Threads != 1 {
		t.Fatalf("unexpected stats: %+v", payload.Stats)
	}

	resp = doReq(t, s.URL, "", http.MethodPost, "/api/v1/status", nil)
	expectStatus(t, resp, http.StatusMethodNotAllowed)
	resp.Body.Close()
}

func TestAuthRequiresAPIKey(t *testing.T) {
	s := setupTestServer(t)

	resp := doReq(t, s.URL, "", http.MethodGet, "/api/v1/search/threads?text=x", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = doReq(t, s.URL, "discuss_ak_wrong", http.MethodGet, "/api/v1/search/threads?text=x", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/v1/search/threads?text=x", nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestOpenRouterWithoutAPIKey(t *testing.T) {
	database, err := db.OpenMigrated(filepath.Join(t.TempDir(), "open.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer database.Close()
	index, err := db.NewIndex(database)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	engine, err := search.NewEngine(index)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	srv := httptest.NewServer(NewRouter(Options{Database: database, Search: engine, Version: "test"}))
	defer srv.Close()

	resp := doReq(t, srv.URL, "", http.MethodPost, "/api/v1/users", map[string]any{"username": "alice"})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	if _, err := db.GetUserByUsername(context.Background(), database, "alice"); err != nil {
		t.Fatalf("user not stored: %v", err)
	}
}

func TestWriteStoreErrorMapping(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/threads/missing", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/v1/users", map[string]any{"username": " "})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/v1/unknown", nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}
