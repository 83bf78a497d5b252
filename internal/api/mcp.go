package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	mcpauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"discuss/internal/auth"
	"discuss/internal/search"
)

type mcpSearchThreadsArgs struct {
	Text           string   `json:"text"`
	CourseID       string   `json:"course_id,omitempty"`
	CommentableIDs []string `json:"commentable_ids,omitempty"`
	GroupIDs       []string `json:"group_ids,omitempty"`
	Context        string   `json:"context,omitempty"`
	Flagged        bool     `json:"flagged,omitempty"`
	Unanswered     bool     `json:"unanswered,omitempty"`
	Unread         bool     `json:"unread,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	SortKey        string   `json:"sort_key,omitempty"`
	Page           int      `json:"page,omitempty"`
	PerPage        int      `json:"per_page,omitempty"`
}

func (a mcpSearchThreadsArgs) query() search.Query {
	return search.Query{
		Text: a.Text,
		Filters: search.Filters{
			CourseID:       a.CourseID,
			CommentableIDs: a.CommentableIDs,
			GroupIDs:       a.GroupIDs,
			Context:        a.Context,
			Flagged:        a.Flagged,
			Unanswered:     a.Unanswered,
			Unread:         a.Unread,
			UserID:         a.UserID,
		},
		SortKey: search.SortKey(a.SortKey),
		Page:    a.Page,
		PerPage: a.PerPage,
	}
}

func mcpHandler(engine *search.Engine, version, apiKeyHash string) http.Handler {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "discuss-server",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "discuss_search_threads",
		Description: "Full-text search over discussion threads and their comments",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args mcpSearchThreadsArgs) (*mcp.CallToolResult, any, error) {
		result, err := engine.Search(ctx, args.query())
		if err != nil {
			return nil, nil, err
		}
		out, err := toJSONText(result)
		if err != nil {
			return nil, nil, err
		}
		return textToolResult(out), nil, nil
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	if apiKeyHash == "" {
		return handler
	}

	verify := func(ctx context.Context, token string, req *http.Request) (*mcpauth.TokenInfo, error) {
		if !auth.VerifyAPIKey(token, apiKeyHash) {
			return nil, mcpauth.ErrInvalidToken
		}
		return &mcpauth.TokenInfo{
			Scopes:     []string{"read"},
			Expiration: time.Now().UTC().Add(10 * 365 * 24 * time.Hour),
		}, nil
	}

	return mcpauth.RequireBearerToken(verify, nil)(handler)
}

func textToolResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func toJSONText(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
