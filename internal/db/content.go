package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"discuss/internal/models"
)

type CreateThreadParams struct {
	AuthorID      string
	Anonymous     bool
	Title         string
	Body          string
	CourseID      string
	CommentableID string
	GroupID       *string
	ThreadType    string
	Context       string
}

type CreateCommentParams struct {
	AuthorID  string
	Anonymous bool
	Body      string
	ParentID  *string
}

const contentColumns = `id, type, thread_id, parent_id, author_id, anonymous, title, body,
       course_id, commentable_id, group_id, thread_type, context, created_at, last_activity_at,
       comment_count, endorsed, votes, body_revision, mentions`

func CreateThread(ctx context.Context, database *sql.DB, p CreateThreadParams) (*models.Content, error) {
	if strings.TrimSpace(p.Body) == "" {
		return nil, invalidInput("body is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, invalidInput("title is required")
	}
	threadType := p.ThreadType
	if threadType == "" {
		threadType = models.ThreadTypeDiscussion
	}
	if threadType != models.ThreadTypeDiscussion && threadType != models.ThreadTypeQuestion {
		return nil, invalidInput("invalid thread_type")
	}
	contextValue := p.Context
	if contextValue == "" {
		contextValue = models.ContextCourse
	}
	if contextValue != models.ContextCourse && contextValue != models.ContextStandalone {
		return nil, invalidInput("invalid context")
	}
	groupID := p.GroupID
	if groupID != nil && strings.TrimSpace(*groupID) == "" {
		groupID = nil
	}

	id := uuid.NewString()
	now := nowNanos()
	if _, err := database.ExecContext(ctx, `
INSERT INTO content (id, type, thread_id, parent_id, author_id, anonymous, title, body,
                     course_id, commentable_id, group_id, thread_type, context, created_at, last_activity_at)
VALUES (?, 'thread', ?, NULL, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, id, p.AuthorID, boolInt(p.Anonymous), p.Title, p.Body,
		p.CourseID, p.CommentableID, groupID, threadType, contextValue, now, now); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, id)
}

func CreateComment(ctx context.Context, database *sql.DB, threadID string, p CreateCommentParams) (*models.Content, error) {
	if strings.TrimSpace(p.Body) == "" {
		return nil, invalidInput("body is required")
	}
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	thread, err := getContentTx(ctx, tx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.IsThread() {
		return nil, invalidInput("target is not a thread")
	}
	if p.ParentID != nil {
		parent, err := getContentTx(ctx, tx, *p.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Kind != models.KindComment || parent.ThreadID != threadID {
			return nil, invalidInput("parent is not a comment in this thread")
		}
	}

	id := uuid.NewString()
	now := nowNanos()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO content (id, type, thread_id, parent_id, author_id, anonymous, title, body,
                     course_id, commentable_id, group_id, thread_type, context, created_at, last_activity_at)
VALUES (?, 'comment', ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, threadID, p.ParentID, p.AuthorID, boolInt(p.Anonymous), p.Body,
		thread.CourseID, thread.CommentableID, thread.GroupID, thread.ThreadType, thread.Context, now, now); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE content
SET comment_count = comment_count + 1, last_activity_at = ?
WHERE id = ?`, now, threadID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, id)
}

// UpdateThread replaces the body, and the title when one is given, and bumps
// the body revision.
func UpdateThread(ctx context.Context, database *sql.DB, id string, title *string, body string) (*models.Content, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalidInput("body is required")
	}
	if title != nil && strings.TrimSpace(*title) == "" {
		title = nil
	}
	res, err := database.ExecContext(ctx, `
UPDATE content
SET title = COALESCE(?, title), body = ?, body_revision = body_revision + 1, last_activity_at = ?
WHERE id = ? AND type = 'thread'`, title, body, nowNanos(), id)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, id)
}

func UpdateComment(ctx context.Context, database *sql.DB, id string, body string) (*models.Content, error) {
	if strings.TrimSpace(body) == "" {
		return nil, invalidInput("body is required")
	}
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := nowNanos()
	var threadID string
	if err := tx.QueryRowContext(ctx, `
SELECT thread_id
FROM content
WHERE id = ? AND type = 'comment'`, id).Scan(&threadID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE content
SET body = ?, body_revision = body_revision + 1, last_activity_at = ?
WHERE id = ?`, body, now, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE content
SET last_activity_at = ?
WHERE id = ?`, now, threadID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, id)
}

func DeleteThread(ctx context.Context, database *sql.DB, id string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var t string
	if err := tx.QueryRowContext(ctx, `SELECT type FROM content WHERE id = ?`, id).Scan(&t); err != nil {
		return err
	}
	if t != string(models.KindThread) {
		return invalidInput("target is not a thread")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content WHERE thread_id = ? AND type = 'comment'`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteComment removes a comment and its replies and recounts the thread.
func DeleteComment(ctx context.Context, database *sql.DB, id string) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		contentType string
		threadID    string
	)
	if err := tx.QueryRowContext(ctx, `
SELECT type, thread_id
FROM content
WHERE id = ?`, id).Scan(&contentType, &threadID); err != nil {
		return err
	}
	if contentType != string(models.KindComment) {
		return invalidInput("target is not a comment")
	}

	if _, err := tx.ExecContext(ctx, `
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM content WHERE id = ?
	UNION ALL
	SELECT c.id
	FROM content c
	INNER JOIN subtree s ON c.parent_id = s.id
)
DELETE FROM content
WHERE id IN (SELECT id FROM subtree)`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE content
SET comment_count = (SELECT COUNT(*) FROM content c WHERE c.thread_id = ? AND c.type = 'comment')
WHERE id = ?`, threadID, threadID); err != nil {
		return err
	}
	return tx.Commit()
}

func GetContent(ctx context.Context, database *sql.DB, id string) (*models.Content, error) {
	c, err := scanContent(database.QueryRowContext(ctx, `
SELECT `+contentColumns+`
FROM content
WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	c.AbuseFlaggers, err = listFlaggers(ctx, database, id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListThreadComments returns the comments of a thread in creation order.
func ListThreadComments(ctx context.Context, database *sql.DB, threadID string) ([]models.Content, error) {
	rows, err := database.QueryContext(ctx, `
SELECT `+contentColumns+`
FROM content
WHERE thread_id = ? AND type = 'comment'
ORDER BY created_at ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func SetEndorsed(ctx context.Context, database *sql.DB, commentID string, endorsed bool) (*models.Content, error) {
	res, err := database.ExecContext(ctx, `
UPDATE content
SET endorsed = ?
WHERE id = ? AND type = 'comment'`, boolInt(endorsed), commentID)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, commentID)
}

// SetVotes overwrites the vote score of a thread. Vote bookkeeping lives with
// the caller.
func SetVotes(ctx context.Context, database *sql.DB, threadID string, votes int) (*models.Content, error) {
	res, err := database.ExecContext(ctx, `
UPDATE content
SET votes = ?
WHERE id = ? AND type = 'thread'`, votes, threadID)
	if err != nil {
		return nil, err
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return GetContent(ctx, database, threadID)
}

func FlagContent(ctx context.Context, database *sql.DB, contentID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidInput("user_id is required")
	}
	if _, err := getContentTx(ctx, database, contentID); err != nil {
		return err
	}
	_, err := database.ExecContext(ctx, `
INSERT OR IGNORE INTO abuse_flags (content_id, user_id, created)
VALUES (?, ?, ?)`, contentID, userID, nowNanos())
	return err
}

func UnflagContent(ctx context.Context, database *sql.DB, contentID, userID string) error {
	_, err := database.ExecContext(ctx, `
DELETE FROM abuse_flags
WHERE content_id = ? AND user_id = ?`, contentID, userID)
	return err
}

// MarkRead records that userID has seen threadID as of now.
func MarkRead(ctx context.Context, database *sql.DB, userID, threadID string) error {
	var t string
	if err := database.QueryRowContext(ctx, `SELECT type FROM content WHERE id = ?`, threadID).Scan(&t); err != nil {
		return err
	}
	if t != string(models.KindThread) {
		return invalidInput("target is not a thread")
	}
	_, err := database.ExecContext(ctx, `
INSERT INTO read_states (user_id, thread_id, last_read)
VALUES (?, ?, ?)
ON CONFLICT(user_id, thread_id) DO UPDATE SET last_read = excluded.last_read`,
		userID, threadID, nowNanos())
	return err
}

func listFlaggers(ctx context.Context, database *sql.DB, contentID string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT user_id
FROM abuse_flags
WHERE content_id = ?
ORDER BY created ASC`, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getContentTx(ctx context.Context, q queryRower, id string) (*models.Content, error) {
	return scanContent(q.QueryRowContext(ctx, `
SELECT `+contentColumns+`
FROM content
WHERE id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	var (
		c            models.Content
		kind         string
		anonymous    int
		endorsed     int
		created      int64
		lastActivity int64
		mentionsJSON string
	)
	if err := row.Scan(
		&c.ID, &kind, &c.ThreadID, &c.ParentID, &c.AuthorID, &anonymous, &c.Title, &c.Body,
		&c.CourseID, &c.CommentableID, &c.GroupID, &c.ThreadType, &c.Context, &created, &lastActivity,
		&c.CommentCount, &endorsed, &c.Votes, &c.BodyRevision, &mentionsJSON,
	); err != nil {
		return nil, err
	}
	c.Kind = models.ContentKind(kind)
	c.Anonymous = anonymous == 1
	c.Endorsed = endorsed == 1
	c.CreatedAt = fromNanos(created)
	c.LastActivityAt = fromNanos(lastActivity)
	c.AbuseFlaggers = []string{}
	if err := json.Unmarshal([]byte(mentionsJSON), &c.Mentions); err != nil {
		return nil, err
	}
	if c.Mentions == nil {
		c.Mentions = []models.MentionRecord{}
	}
	return &c, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
