// Package notify turns newly mentioned users into persisted notifications.
package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"discuss/internal/models"
)

// UserDirectory resolves user ids. Missing users are reported with an error
// wrapping sql.ErrNoRows.
type UserDirectory interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// ContentStore loads the thread a comment belongs to.
type ContentStore interface {
	Content(ctx context.Context, id string) (*models.Content, error)
}

// NotificationStore persists notifications. It never updates or deletes them.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

type Dispatcher struct {
	users         UserDirectory
	contents      ContentStore
	notifications NotificationStore
	logger        *slog.Logger
}

type Option func(*Dispatcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

func NewDispatcher(users UserDirectory, contents ContentStore, notifications NotificationStore, opts ...Option) (*Dispatcher, error) {
	if users == nil {
		return nil, ErrUserDirectoryRequired
	}
	if contents == nil {
		return nil, ErrContentStoreRequired
	}
	if notifications == nil {
		return nil, ErrNotificationStoreRequired
	}
	d := &Dispatcher{
		users:         users,
		contents:      contents,
		notifications: notifications,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch creates one at_user notification for the users in userIDs who
// exist and did not write c. It returns nil when nobody is left to notify.
func (d *Dispatcher) Dispatch(ctx context.Context, c *models.Content, userIDs []string) (*models.Notification, error) {
	receivers := make([]string, 0, len(userIDs))
	seen := map[string]struct{}{}
	for _, id := range userIDs {
		if id == c.AuthorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		u, err := d.users.UserByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			d.logger.Warn("mentioned user no longer exists", "user_id", id, "content_id", c.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve receiver %s: %w", id, err)
		}
		receivers = append(receivers, u.ID)
	}
	if len(receivers) == 0 {
		return nil, nil
	}

	title, err := d.threadTitle(ctx, c)
	if err != nil {
		return nil, err
	}
	n := &models.Notification{
		Type: models.NotificationTypeAtUser,
		Info: models.NotificationInfo{
			ContentID:   c.ID,
			ContentType: c.Kind,
			ThreadTitle: title,
		},
		TargetID:   c.ID,
		TargetKind: c.Kind,
		Receivers:  receivers,
	}
	if !c.Anonymous {
		author, err := d.users.UserByID(ctx, c.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("resolve author %s: %w", c.AuthorID, err)
		}
		actorID := author.ID
		n.ActorID = &actorID
		n.Info.ActorUsername = &author.Username
	}

	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}
	d.logger.Info("notification created",
		"notification_id", n.ID, "content_id", c.ID, "receivers", len(receivers))
	return n, nil
}

func (d *Dispatcher) threadTitle(ctx context.Context, c *models.Content) (string, error) {
	if c.IsThread() {
		return c.TitleText(), nil
	}
	thread, err := d.contents.Content(ctx, c.ThreadID)
	if err != nil {
		return "", fmt.Errorf("load thread %s: %w", c.ThreadID, err)
	}
	return thread.TitleText(), nil
}
