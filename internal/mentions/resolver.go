package mentions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"discuss/internal/models"
)

// UserDirectory resolves usernames. Unknown usernames are reported with an
// error wrapping sql.ErrNoRows.
type UserDirectory interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Outcome is the result of scanning one version of a piece of content.
type Outcome struct {
	// Records replaces the stored mention list.
	Records []models.MentionRecord
	// NewUserIDs are mentioned now but were not in the previous list.
	NewUserIDs []string
}

// Resolver scans content and resolves the mentioned users.
type Resolver struct {
	users    UserDirectory
	renderer Renderer
}

type ResolverOption func(*Resolver) error

// WithRenderer sets the markdown renderer.
// Default is MarkdownRenderer.
func WithRenderer(renderer Renderer) ResolverOption {
	return func(r *Resolver) error {
		if renderer == nil {
			return ErrRendererRequired
		}
		r.renderer = renderer
		return nil
	}
}

func NewResolver(users UserDirectory, opts ...ResolverOption) (*Resolver, error) {
	if users == nil {
		return nil, ErrUserDirectoryRequired
	}
	r := &Resolver{users: users, renderer: MarkdownRenderer{}}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ContentText is the text scanned for mentions: title and body separated by a
// blank line for threads, the body alone for comments.
func ContentText(c *models.Content) string {
	if c.IsThread() {
		return c.TitleText() + "\n\n" + c.Body
	}
	return c.Body
}

// Tokens returns the tokens of the rendered content, outside code elements.
func (r *Resolver) Tokens(c *models.Content) ([]Token, error) {
	rendered, err := r.renderer.Render(markText(ContentText(c)))
	if err != nil {
		return nil, fmt.Errorf("render content %s: %w", c.ID, err)
	}
	return scanHTML(rendered)
}

// Scan returns the mention records of c. Tokens naming unknown users are
// dropped.
func (r *Resolver) Scan(ctx context.Context, c *models.Content) ([]models.MentionRecord, error) {
	tokens, err := r.Tokens(c)
	if err != nil {
		return nil, err
	}
	known := map[string]*models.User{}
	records := make([]models.MentionRecord, 0, len(tokens))
	for _, tok := range tokens {
		u, seen := known[tok.Username]
		if !seen {
			u, err = r.users.UserByUsername(ctx, tok.Username)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("resolve @%s: %w", tok.Username, err)
			}
			known[tok.Username] = u
		}
		if u == nil {
			continue
		}
		records = append(records, models.MentionRecord{
			Position: tok.Position,
			Username: tok.Username,
			UserID:   u.ID,
		})
	}
	return records, nil
}

// Resolve scans c and diffs the result against the previously stored list.
func (r *Resolver) Resolve(ctx context.Context, c *models.Content, previous []models.MentionRecord) (*Outcome, error) {
	records, err := r.Scan(ctx, c)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Records:    records,
		NewUserIDs: Diff(previous, records),
	}, nil
}

// Diff returns the user ids in current that are absent from previous, in
// order of first appearance.
func Diff(previous, current []models.MentionRecord) []string {
	before := make(map[string]struct{}, len(previous))
	for _, rec := range previous {
		before[rec.UserID] = struct{}{}
	}
	out := make([]string, 0)
	for _, rec := range current {
		if _, ok := before[rec.UserID]; ok {
			continue
		}
		before[rec.UserID] = struct{}{}
		out = append(out, rec.UserID)
	}
	return out
}
