package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"

	"discuss/internal/models"
	"discuss/internal/search"
)

const (
	defaultMaxEdits   = 2
	minSuggestionTerm = 4
)

// Index serves thread searches from the content_fts table. It satisfies
// search.Index.
type Index struct {
	database  *sql.DB
	maxEdits  int
	scanLimit int
}

var _ search.Index = (*Index)(nil)

var (
	ErrInvalidMaxEdits  = errors.New("suggestion edit distance must be positive")
	ErrInvalidScanLimit = errors.New("suggestion scan limit must not be negative")
)

type IndexOption func(*Index) error

// WithMaxEdits bounds the edit distance of spelling suggestions.
// Default is 2.
func WithMaxEdits(n int) IndexOption {
	return func(ix *Index) error {
		if n < 1 {
			return ErrInvalidMaxEdits
		}
		ix.maxEdits = n
		return nil
	}
}

// WithSuggestScanLimit bounds how many vocabulary terms, most frequent first,
// are considered per suggestion. Zero means no bound.
func WithSuggestScanLimit(n int) IndexOption {
	return func(ix *Index) error {
		if n < 0 {
			return ErrInvalidScanLimit
		}
		ix.scanLimit = n
		return nil
	}
}

func NewIndex(database *sql.DB, opts ...IndexOption) (*Index, error) {
	ix := &Index{database: database, maxEdits: defaultMaxEdits}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Query returns threads where the thread itself or one of its comments
// contains every term.
func (ix *Index) Query(ctx context.Context, q search.IndexQuery) (*search.IndexPage, error) {
	if len(q.Terms) == 0 {
		return &search.IndexPage{Items: []models.ThreadSummary{}}, nil
	}
	limit := q.Limit
	offset := q.Offset
	if limit <= 0 {
		limit = search.DefaultPerPage
	}
	if offset < 0 {
		offset = 0
	}
	whereClause, args := indexWhereClause(q)

	var total int
	if err := ix.database.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM content t`+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	page := &search.IndexPage{Total: total, Items: []models.ThreadSummary{}}
	if offset >= total {
		return page, nil
	}

	query := `
SELECT t.id, COALESCE(t.title, ''), t.body, t.author_id, u.username, t.anonymous, t.course_id, t.commentable_id,
       t.group_id, t.thread_type, t.context, t.created_at, t.last_activity_at, t.comment_count, t.votes
FROM content t
LEFT JOIN users u ON u.id = t.author_id` + whereClause +
		" ORDER BY " + sortColumn(q.Sort) + " DESC, t.created_at DESC, t.rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := ix.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item         models.ThreadSummary
			authorID     string
			username     sql.NullString
			anonymous    int
			created      int64
			lastActivity int64
		)
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Body, &authorID, &username, &anonymous, &item.CourseID, &item.CommentableID,
			&item.GroupID, &item.ThreadType, &item.Context, &created, &lastActivity, &item.CommentCount, &item.Votes,
		); err != nil {
			return nil, err
		}
		item.Anonymous = anonymous == 1
		if !item.Anonymous {
			item.AuthorID = &authorID
			if username.Valid {
				item.AuthorUsername = &username.String
			}
		}
		item.CreatedAt = fromNanos(created)
		item.LastActivityAt = fromNanos(lastActivity)
		page.Items = append(page.Items, item)
	}
	return page, rows.Err()
}

func sortColumn(key search.SortKey) string {
	switch key {
	case search.SortDate:
		return "t.created_at"
	case search.SortVotes:
		return "t.votes"
	case search.SortComments:
		return "t.comment_count"
	default:
		return "t.last_activity_at"
	}
}

func indexWhereClause(q search.IndexQuery) (string, []any) {
	whereClause := `
WHERE t.type = 'thread'
  AND t.id IN (
	SELECT c.thread_id
	FROM content_fts
	JOIN content c ON c.rowid = content_fts.rowid
	WHERE content_fts MATCH ?
  )`
	args := []any{matchExpression(q.Terms)}

	f := q.Filters
	if f.CourseID != "" {
		whereClause += " AND t.course_id = ?"
		args = append(args, f.CourseID)
	}
	if len(f.CommentableIDs) > 0 {
		whereClause += " AND t.commentable_id IN (" + placeholders(len(f.CommentableIDs)) + ")"
		args = appendStrings(args, f.CommentableIDs)
	}
	if len(f.GroupIDs) > 0 {
		whereClause += " AND (t.group_id IS NULL OR t.group_id IN (" + placeholders(len(f.GroupIDs)) + "))"
		args = appendStrings(args, f.GroupIDs)
	}
	if f.Context != "" {
		whereClause += " AND t.context = ?"
		args = append(args, f.Context)
	}
	if f.Flagged {
		whereClause += `
  AND EXISTS (
	SELECT 1 FROM abuse_flags af
	JOIN content fc ON fc.id = af.content_id
	WHERE fc.thread_id = t.id
  )`
	}
	if f.Unanswered {
		whereClause += `
  AND t.thread_type = 'question'
  AND NOT EXISTS (
	SELECT 1 FROM content ec
	WHERE ec.thread_id = t.id AND ec.type = 'comment' AND ec.endorsed = 1
  )`
	}
	if f.Unread && f.UserID != "" {
		whereClause += `
  AND NOT EXISTS (
	SELECT 1 FROM read_states rs
	WHERE rs.user_id = ? AND rs.thread_id = t.id AND rs.last_read >= t.last_activity_at
  )`
		args = append(args, f.UserID)
	}
	return whereClause, args
}

// matchExpression quotes every term so FTS5 treats them as plain tokens and
// requires all of them.
func matchExpression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendStrings(args []any, values []string) []any {
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

// Suggest picks the closest indexed term sharing the first letter of term.
// Terms that are themselves indexed get no suggestion. Ties on distance go to
// the term found in more documents.
func (ix *Index) Suggest(ctx context.Context, term string) (string, bool, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if utf8.RuneCountInString(term) < minSuggestionTerm {
		return "", false, nil
	}

	var docs int
	err := ix.database.QueryRowContext(ctx, `
SELECT doc
FROM content_vocab
WHERE term = ?`, term).Scan(&docs)
	if err == nil && docs > 0 {
		return "", false, nil
	}
	if err != nil && !isNotFound(err) {
		return "", false, fmt.Errorf("lookup term: %w", err)
	}

	first, _ := utf8.DecodeRuneInString(term)
	query := `
SELECT term, doc
FROM content_vocab
WHERE substr(term, 1, 1) = ?
ORDER BY doc DESC, term ASC`
	args := []any{string(first)}
	if ix.scanLimit > 0 {
		query += " LIMIT ?"
		args = append(args, ix.scanLimit)
	}
	rows, err := ix.database.QueryContext(ctx, query, args...)
	if err != nil {
		return "", false, fmt.Errorf("scan vocabulary: %w", err)
	}
	defer rows.Close()

	best := ""
	bestDist := ix.maxEdits + 1
	termLen := utf8.RuneCountInString(term)
	for rows.Next() {
		var (
			candidate string
			candDocs  int
		)
		if err := rows.Scan(&candidate, &candDocs); err != nil {
			return "", false, err
		}
		if candDocs <= 0 || candidate == term {
			continue
		}
		if abs(utf8.RuneCountInString(candidate)-termLen) > ix.maxEdits {
			continue
		}
		dist := smetrics.WagnerFischer(term, candidate, 1, 1, 1)
		if dist > ix.maxEdits {
			continue
		}
		// rows arrive by doc DESC, term ASC, so only a strictly closer
		// candidate displaces the current best.
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, err
	}
	if best == "" {
		return "", false, nil
	}
	return best, true, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
