package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"discuss/internal/models"
)

// CreateNotification appends n and its receivers. A missing id is generated
// and a zero creation time is set to now.
func CreateNotification(ctx context.Context, database *sql.DB, n *models.Notification) error {
	if n == nil {
		return errors.New("notification is required")
	}
	if len(n.Receivers) == 0 {
		return errors.New("notification has no receivers")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Created.IsZero() {
		n.Created = fromNanos(nowNanos())
	}
	info, err := json.Marshal(n.Info)
	if err != nil {
		return err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications (id, type, info, actor_id, target_id, target_type, created)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Type, string(info), n.ActorID, n.TargetID, string(n.TargetKind), n.Created.UnixNano()); err != nil {
		return err
	}
	for _, receiver := range n.Receivers {
		if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO notification_receivers (notification_id, user_id)
VALUES (?, ?)`, n.ID, receiver); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListNotifications returns the notifications received by userID, newest first.
func ListNotifications(ctx context.Context, database *sql.DB, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := database.QueryContext(ctx, `
SELECT n.id, n.type, n.info, n.actor_id, n.target_id, n.target_type, n.created
FROM notifications n
JOIN notification_receivers r ON r.notification_id = n.id
WHERE r.user_id = ?
ORDER BY n.created DESC
LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var (
			n          models.Notification
			info       string
			targetKind string
			created    int64
		)
		if err := rows.Scan(&n.ID, &n.Type, &info, &n.ActorID, &n.TargetID, &targetKind, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(info), &n.Info); err != nil {
			return nil, err
		}
		n.TargetKind = models.ContentKind(targetKind)
		n.Created = fromNanos(created)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		receivers, err := listReceivers(ctx, database, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Receivers = receivers
	}
	return out, nil
}

func listReceivers(ctx context.Context, database *sql.DB, notificationID string) ([]string, error) {
	rows, err := database.QueryContext(ctx, `
SELECT user_id
FROM notification_receivers
WHERE notification_id = ?
ORDER BY user_id ASC`, notificationID)
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
