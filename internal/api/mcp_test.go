package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"discuss/internal/models"
)

func TestMCPUnauthorized(t *testing.T) {
	s := setupTestServer(t)

	body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	req, err := http.NewRequest(http.MethodPost, s.URL+"/mcp", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestMCPSearchThreads(t *testing.T) {
	s := setupTestServer(t)
	alice := createUserForTest(t, s, "alice")
	thread := createThreadForTest(t, s, map[string]any{
		"author_id": alice.ID, "title": "Lab setup", "body": "installing the compiler", "commentable_id": "labs",
	})
	createThreadForTest(t, s, map[string]any{
		"author_id": alice.ID, "title": "Other", "body": "compiler errors", "commentable_id": "general",
	})

	httpClient := &http.Client{
		Timeout: 15 * time.Second,
		Transport: &authHeaderTransport{
			token: s.apiKey,
			base:  http.DefaultTransport,
		},
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "discuss-test-client",
		Version: "test",
	}, nil)

	ctx := context.Background()
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   s.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	if err != nil {
		t.Fatalf("connect mcp client: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	found := false
	for _, tool := range tools.Tools {
		if tool.Name == "discuss_search_threads" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing tool discuss_search_threads")
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name: "discuss_search_threads",
		Arguments: map[string]any{
			"text":            "compiler",
			"commentable_ids": []string{"labs"},
		},
	})
	if err != nil {
		t.Fatalf("call discuss_search_threads: %v", err)
	}
	var result models.SearchResult
	if err := json.Unmarshal([]byte(firstTextContent(t, res)), &result); err != nil {
		t.Fatalf("decode search result: %v", err)
	}
	if result.TotalResults != 1 || len(result.Collection) != 1 || result.Collection[0].ID != thread.ID {
		t.Fatalf("unexpected search result: %+v", result)
	}
}

type authHeaderTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header = req.Header.Clone()
	cloned.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(cloned)
}

func firstTextContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected tool content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}
