package db

import (
	"context"
	"database/sql"
)

type ForumStats struct {
	Users           int `json:"users"`
	Threads         int `json:"threads"`
	Comments        int `json:"comments"`
	Questions       int `json:"questions"`
	Unanswered      int `json:"unanswered_questions"`
	FlaggedContent  int `json:"flagged_content"`
	Notifications   int `json:"notifications"`
	PendingMentions int `json:"pending_mention_scans"`
}

func GetForumStats(ctx context.Context, database *sql.DB) (ForumStats, error) {
	stats := ForumStats{}
	queries := []struct {
		sql string
		dst *int
	}{
		{`SELECT COUNT(1) FROM users`, &stats.Users},
		{`SELECT COUNT(1) FROM content WHERE type = 'thread'`, &stats.Threads},
		{`SELECT COUNT(1) FROM content WHERE type = 'comment'`, &stats.Comments},
		{`SELECT COUNT(1) FROM content WHERE type = 'thread' AND thread_type = 'question'`, &stats.Questions},
		{`
SELECT COUNT(1)
FROM content t
WHERE t.type = 'thread' AND t.thread_type = 'question'
  AND NOT EXISTS (SELECT 1 FROM content c WHERE c.thread_id = t.id AND c.type = 'comment' AND c.endorsed = 1)`, &stats.Unanswered},
		{`SELECT COUNT(DISTINCT content_id) FROM abuse_flags`, &stats.FlaggedContent},
		{`SELECT COUNT(1) FROM notifications`, &stats.Notifications},
		{`SELECT COUNT(1) FROM content WHERE mentions_body_revision < body_revision`, &stats.PendingMentions},
	}
	for _, q := range queries {
		if err := database.QueryRowContext(ctx, q.sql).Scan(q.dst); err != nil {
			return ForumStats{}, err
		}
	}
	return stats, nil
}
