package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"discuss/internal/models"
)

// ErrMentionsConflict is returned when the stored mention list changed between
// reading it and writing its replacement.
var ErrMentionsConflict = errors.New("mention list modified concurrently")

func GetMentionState(ctx context.Context, database *sql.DB, contentID string) (*models.MentionState, error) {
	var (
		raw   string
		state models.MentionState
	)
	if err := database.QueryRowContext(ctx, `
SELECT mentions, mention_revision, mentions_body_revision
FROM content
WHERE id = ?`, contentID).Scan(&raw, &state.Revision, &state.BodyRevision); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &state.Records); err != nil {
		return nil, err
	}
	if state.Records == nil {
		state.Records = []models.MentionRecord{}
	}
	return &state, nil
}

// ReplaceMentions overwrites the mention list of a content row if its revision
// is still expectRevision, recording which body revision it was computed from.
func ReplaceMentions(
	ctx context.Context,
	database *sql.DB,
	contentID string,
	records []models.MentionRecord,
	expectRevision, bodyRevision int64,
) error {
	if records == nil {
		records = []models.MentionRecord{}
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return err
	}
	res, err := database.ExecContext(ctx, `
UPDATE content
SET mentions = ?, mention_revision = mention_revision + 1, mentions_body_revision = ?
WHERE id = ? AND mention_revision = ?`, string(encoded), bodyRevision, contentID, expectRevision)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := GetMentionState(ctx, database, contentID); err != nil {
			return err
		}
		return ErrMentionsConflict
	}
	return nil
}
